package youtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawURLEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TEST-123", "TEST-123"},
		{"TEST 1", "TEST%201"},
		{"a/b", "a%2Fb"},
		{"a+b", "a%2Bb"},
		{"x_y.z~", "x_y.z~"},
		{"é", "%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, rawURLEncode(tt.in))
		})
	}
}

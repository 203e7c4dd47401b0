// Package logger builds the slog loggers used by the attachment tooling.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a LOG_LEVEL value onto a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a JSON logger writing to w whose records never carry
// credentials.
func New(level string, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(NewRedactingHandler(handler))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RedactingHandler removes attributes whose key might hold a secret before
// passing records on.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler wraps next
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

// Enabled implements slog.Handler
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		if kept, ok := redact(attr); ok {
			clean.AddAttrs(kept)
		}
		return true
	})
	return h.next.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	kept := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		if a, ok := redact(attr); ok {
			kept = append(kept, a)
		}
	}
	return &RedactingHandler{next: h.next.WithAttrs(kept)}
}

// WithGroup implements slog.Handler
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

// redact drops sensitive attributes and filters nested groups.
func redact(attr slog.Attr) (slog.Attr, bool) {
	if isSensitiveKey(attr.Key) {
		return slog.Attr{}, false
	}
	if attr.Value.Kind() != slog.KindGroup {
		return attr, true
	}

	group := attr.Value.Group()
	kept := make([]any, 0, len(group))
	for _, child := range group {
		if a, ok := redact(child); ok {
			kept = append(kept, a)
		}
	}
	return slog.Group(attr.Key, kept...), true
}

// isSensitiveKey checks if a key might contain sensitive data.
func isSensitiveKey(key string) bool {
	sensitiveKeys := map[string]bool{
		"password":       true,
		"api_key":        true,
		"apikey":         true,
		"token":          true,
		"youtrack_token": true,
		"secret":         true,
		"authorization":  true,
		"auth":           true,
		"credential":     true,
		"credentials":    true,
		"session":        true,
		"cookie":         true,
	}
	return sensitiveKeys[strings.ToLower(key)]
}

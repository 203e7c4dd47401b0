package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/youtrack-attach/pkg/youtrack"
)

// MockRequester implements youtrack.Requester
type MockRequester struct {
	mock.Mock
}

// Request records the call and returns the configured response
func (m *MockRequester) Request(ctx context.Context, method, path, filePath string) (*youtrack.Response, error) {
	args := m.Called(ctx, method, path, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*youtrack.Response), args.Error(1)
}

// MockContentFetcher implements youtrack.ContentFetcher
type MockContentFetcher struct {
	mock.Mock
}

// Fetch records the call and returns the configured reader
func (m *MockContentFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// MockAttachmentClient implements services.AttachmentClient
type MockAttachmentClient struct {
	mock.Mock
}

// GetAttachments lists the configured attachments
func (m *MockAttachmentClient) GetAttachments(ctx context.Context, issueID string) ([]youtrack.Attachment, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]youtrack.Attachment), args.Error(1)
}

// CreateAttachmentFromAttachment records the copy request
func (m *MockAttachmentClient) CreateAttachmentFromAttachment(ctx context.Context, issueID string, attachment youtrack.Attachment) (*youtrack.Response, error) {
	args := m.Called(ctx, issueID, attachment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*youtrack.Response), args.Error(1)
}

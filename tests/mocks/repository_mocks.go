package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/youtrack-attach/internal/models"
)

// MockTransferRepository implements repository.TransferRepository
type MockTransferRepository struct {
	mock.Mock
}

// Create records a copied attachment
func (m *MockTransferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

// Exists reports whether the attachment was already copied to the target issue
func (m *MockTransferRepository) Exists(ctx context.Context, sourceAttachmentID, targetIssueID string) (bool, error) {
	args := m.Called(ctx, sourceAttachmentID, targetIssueID)
	return args.Bool(0), args.Error(1)
}

// ListByTarget retrieves all transfers into an issue
func (m *MockTransferRepository) ListByTarget(ctx context.Context, targetIssueID string) ([]models.Transfer, error) {
	args := m.Called(ctx, targetIssueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transfer), args.Error(1)
}

// DeleteByTarget forgets every transfer into an issue
func (m *MockTransferRepository) DeleteByTarget(ctx context.Context, targetIssueID string) (int64, error) {
	args := m.Called(ctx, targetIssueID)
	return args.Get(0).(int64), args.Error(1)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/youtrack-attach/internal/models"
	"gorm.io/gorm"
)

// TransferRepository defines the interface for transfer journal access
type TransferRepository interface {
	Create(ctx context.Context, transfer *models.Transfer) error
	Exists(ctx context.Context, sourceAttachmentID, targetIssueID string) (bool, error)
	ListByTarget(ctx context.Context, targetIssueID string) ([]models.Transfer, error)
	DeleteByTarget(ctx context.Context, targetIssueID string) (int64, error)
}

// transferRepository implements TransferRepository using GORM
type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates a new TransferRepository instance
func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

// Create records a copied attachment
func (r *transferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	if transfer.SourceAttachmentID == "" || transfer.TargetIssueID == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).Create(transfer)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create transfer: %w", result.Error)
	}
	return nil
}

// Exists reports whether the attachment was already copied to the target issue
func (r *transferRepository) Exists(ctx context.Context, sourceAttachmentID, targetIssueID string) (bool, error) {
	var transfer models.Transfer
	result := r.db.WithContext(ctx).
		Where("source_attachment_id = ? AND target_issue_id = ?", sourceAttachmentID, targetIssueID).
		Take(&transfer)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up transfer: %w", result.Error)
	}
	return true, nil
}

// ListByTarget retrieves all transfers into an issue, oldest first
func (r *transferRepository) ListByTarget(ctx context.Context, targetIssueID string) ([]models.Transfer, error) {
	var transfers []models.Transfer
	result := r.db.WithContext(ctx).
		Where("target_issue_id = ?", targetIssueID).
		Order("copied_at ASC, id ASC").
		Find(&transfers)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", result.Error)
	}
	return transfers, nil
}

// DeleteByTarget forgets every transfer into an issue so it can be copied again
func (r *transferRepository) DeleteByTarget(ctx context.Context, targetIssueID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("target_issue_id = ?", targetIssueID).
		Delete(&models.Transfer{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete transfers: %w", result.Error)
	}
	return result.RowsAffected, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/youtrack-attach/internal/models"
	"github.com/welldanyogia/youtrack-attach/internal/repository"
	"github.com/welldanyogia/youtrack-attach/pkg/youtrack"
)

// AttachmentClient is the part of youtrack.Connection the copier needs
type AttachmentClient interface {
	GetAttachments(ctx context.Context, issueID string) ([]youtrack.Attachment, error)
	CreateAttachmentFromAttachment(ctx context.Context, issueID string, attachment youtrack.Attachment) (*youtrack.Response, error)
}

// CopyOptions tunes a copy run
type CopyOptions struct {
	// Force copies attachments even if the journal says they were copied before
	Force bool
}

// CopyReport lists what a copy run did, by source attachment ID
type CopyReport struct {
	Copied  []string
	Skipped []string
}

// AttachmentCopierService defines the interface for copying attachments between issues
type AttachmentCopierService interface {
	// Copy re-uploads every attachment of sourceIssueID to targetIssueID,
	// skipping the ones the journal has already recorded for that target
	Copy(ctx context.Context, sourceIssueID, targetIssueID string, opts CopyOptions) (*CopyReport, error)

	// History lists the journaled transfers into targetIssueID
	History(ctx context.Context, targetIssueID string) ([]models.Transfer, error)

	// Forget drops the journal entries of targetIssueID
	Forget(ctx context.Context, targetIssueID string) (int64, error)
}

// attachmentCopierService implements AttachmentCopierService
type attachmentCopierService struct {
	client  AttachmentClient
	journal repository.TransferRepository
	logger  *slog.Logger
}

// NewAttachmentCopierService creates a new AttachmentCopierService instance
func NewAttachmentCopierService(client AttachmentClient, journal repository.TransferRepository, logger *slog.Logger) AttachmentCopierService {
	return &attachmentCopierService{
		client:  client,
		journal: journal,
		logger:  logger,
	}
}

// Copy runs sequentially and stops at the first failed upload. The report
// returned alongside an error describes the attachments handled before it.
func (s *attachmentCopierService) Copy(ctx context.Context, sourceIssueID, targetIssueID string, opts CopyOptions) (*CopyReport, error) {
	if sourceIssueID == targetIssueID {
		return nil, fmt.Errorf("%w: source and target issue are both %s", repository.ErrInvalidInput, sourceIssueID)
	}

	attachments, err := s.client.GetAttachments(ctx, sourceIssueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments of %s: %w", sourceIssueID, err)
	}

	report := &CopyReport{}
	for _, attachment := range attachments {
		if !opts.Force {
			done, err := s.journal.Exists(ctx, attachment.ID(), targetIssueID)
			if err != nil {
				return report, err
			}
			if done {
				s.logger.Info("attachment already copied",
					slog.String("attachment_id", attachment.ID()),
					slog.String("target_issue_id", targetIssueID),
				)
				report.Skipped = append(report.Skipped, attachment.ID())
				continue
			}
		}

		if _, err := s.client.CreateAttachmentFromAttachment(ctx, targetIssueID, attachment); err != nil {
			return report, fmt.Errorf("failed to copy attachment %s (%s): %w", attachment.ID(), attachment.Name(), err)
		}

		err := s.journal.Create(ctx, &models.Transfer{
			SourceIssueID:      sourceIssueID,
			SourceAttachmentID: attachment.ID(),
			TargetIssueID:      targetIssueID,
			Name:               attachment.Name(),
			AuthorLogin:        attachment.AuthorLogin(),
		})
		if err != nil && !errors.Is(err, repository.ErrDuplicateEntry) {
			return report, fmt.Errorf("attachment %s copied but not journaled: %w", attachment.ID(), err)
		}

		s.logger.Info("attachment copied",
			slog.String("attachment_id", attachment.ID()),
			slog.String("name", attachment.Name()),
			slog.String("source_issue_id", sourceIssueID),
			slog.String("target_issue_id", targetIssueID),
		)
		report.Copied = append(report.Copied, attachment.ID())
	}

	return report, nil
}

// History lists the journaled transfers into targetIssueID
func (s *attachmentCopierService) History(ctx context.Context, targetIssueID string) ([]models.Transfer, error) {
	return s.journal.ListByTarget(ctx, targetIssueID)
}

// Forget drops the journal entries of targetIssueID
func (s *attachmentCopierService) Forget(ctx context.Context, targetIssueID string) (int64, error) {
	deleted, err := s.journal.DeleteByTarget(ctx, targetIssueID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("journal entries removed",
		slog.String("target_issue_id", targetIssueID),
		slog.Int64("count", deleted),
	)
	return deleted, nil
}

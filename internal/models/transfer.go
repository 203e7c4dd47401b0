package models

import (
	"time"
)

// Transfer records one attachment copied from a source issue to a target issue
type Transfer struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SourceIssueID      string    `gorm:"not null;size:64;index" json:"source_issue_id"`
	SourceAttachmentID string    `gorm:"not null;size:64;uniqueIndex:idx_transfer_source_target" json:"source_attachment_id"`
	TargetIssueID      string    `gorm:"not null;size:64;uniqueIndex:idx_transfer_source_target;index" json:"target_issue_id"`
	Name               string    `gorm:"size:255" json:"name"`
	AuthorLogin        string    `gorm:"size:100" json:"author_login,omitempty"`
	CopiedAt           time.Time `gorm:"autoCreateTime" json:"copied_at"`
}

// TableName returns the table name for Transfer
func (Transfer) TableName() string {
	return "transfers"
}

// Package validator provides validation and sanitization of command-line
// input before it reaches the tracker.
package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidIssueID      = errors.New("invalid issue ID format")
	ErrInvalidAttachmentID = errors.New("invalid attachment ID format")
	ErrInputTooLong        = errors.New("input exceeds maximum length")
	ErrEmptyInput          = errors.New("input cannot be empty")
)

// Regex patterns for validation
var (
	// Issue ID: project short name, a dash, and the issue number, e.g. TEST-123
	issueIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*-[0-9]+$`)

	// Attachment ID: two dash-separated numbers, e.g. 62-180
	attachmentIDRegex = regexp.MustCompile(`^[0-9]+-[0-9]+$`)
)

// MaxIssueIDLength bounds issue IDs accepted from the command line
const MaxIssueIDLength = 64

// ValidateIssueID validates a human-readable issue ID.
// Returns nil if valid, or an appropriate error.
func ValidateIssueID(issueID string) error {
	issueID = strings.TrimSpace(issueID)

	if issueID == "" {
		return ErrEmptyInput
	}

	if utf8.RuneCountInString(issueID) > MaxIssueIDLength {
		return ErrInputTooLong
	}

	if !issueIDRegex.MatchString(issueID) {
		return ErrInvalidIssueID
	}

	return nil
}

// ValidateAttachmentID validates an attachment ID.
// Returns nil if valid, or an appropriate error.
func ValidateAttachmentID(attachmentID string) error {
	attachmentID = strings.TrimSpace(attachmentID)

	if attachmentID == "" {
		return ErrEmptyInput
	}

	if !attachmentIDRegex.MatchString(attachmentID) {
		return ErrInvalidAttachmentID
	}

	return nil
}

// SanitizeFilename removes dangerous characters from filename.
// Prevents path traversal and removes control characters.
func SanitizeFilename(filename string) string {
	// Remove path separators to prevent path traversal
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")

	// Remove null bytes
	filename = strings.ReplaceAll(filename, "\x00", "")

	// Remove control characters (ASCII 0-31 and 127)
	filename = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, filename)

	// Trim whitespace
	filename = strings.TrimSpace(filename)

	// Limit length to 255 characters (common filesystem limit)
	if utf8.RuneCountInString(filename) > 255 {
		runes := []rune(filename)
		filename = string(runes[:255])
	}

	// Fallback for empty filename
	if filename == "" {
		return "unnamed"
	}

	return filename
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	// Remove control characters (ASCII 0-31 and 127)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	// Trim whitespace
	input = strings.TrimSpace(input)

	// Enforce maximum length if specified
	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}

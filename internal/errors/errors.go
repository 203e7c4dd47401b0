// Package errors maps failures from the tracker client, the journal and
// input validation onto stable codes and process exit statuses.
package errors

import (
	"context"
	"errors"

	"github.com/welldanyogia/youtrack-attach/internal/repository"
	"github.com/welldanyogia/youtrack-attach/internal/storage"
	"github.com/welldanyogia/youtrack-attach/internal/validator"
	"github.com/welldanyogia/youtrack-attach/pkg/youtrack"
)

// Error codes printed with a failed command
const (
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeFileNotReadable = "FILE_NOT_READABLE"
	CodeDuplicateEntry  = "DUPLICATE_ENTRY"
	CodeRequestFailed   = "REQUEST_FAILED"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeCanceled        = "CANCELED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Process exit statuses
const (
	ExitInternal     = 1
	ExitInvalidInput = 2
	ExitNotFound     = 3
	ExitAuth         = 4
	ExitRemote       = 5
	ExitCanceled     = 130
)

// AppError represents an application error with context
type AppError struct {
	Err      error
	Message  string
	Code     string
	ExitCode int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string, exitCode int) *AppError {
	return &AppError{
		Err:      err,
		Message:  message,
		Code:     code,
		ExitCode: exitCode,
	}
}

// Classify wraps err in an AppError carrying its code and exit status.
// An AppError already in the chain is returned as is. Nil stays nil.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	code, exitCode := classify(err)
	return NewAppError(err, "", code, exitCode)
}

func classify(err error) (string, int) {
	switch {
	case errors.Is(err, context.Canceled):
		return CodeCanceled, ExitCanceled
	case errors.Is(err, youtrack.ErrNotFound):
		return CodeNotFound, ExitNotFound
	case errors.Is(err, youtrack.ErrUnauthorized):
		return CodeUnauthorized, ExitAuth
	case errors.Is(err, youtrack.ErrForbidden):
		return CodeForbidden, ExitAuth
	case errors.Is(err, youtrack.ErrFileNotReadable):
		return CodeFileNotReadable, ExitInvalidInput
	case errors.Is(err, youtrack.ErrInvalidAttachment),
		errors.Is(err, validator.ErrInvalidIssueID),
		errors.Is(err, validator.ErrInvalidAttachmentID),
		errors.Is(err, validator.ErrInputTooLong),
		errors.Is(err, validator.ErrEmptyInput),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, storage.ErrPathTraversal),
		errors.Is(err, storage.ErrFileTooLarge):
		return CodeInvalidInput, ExitInvalidInput
	case errors.Is(err, repository.ErrDuplicateEntry):
		return CodeDuplicateEntry, ExitInternal
	case errors.Is(err, youtrack.ErrInvalidResponse):
		return CodeInvalidResponse, ExitRemote
	case errors.Is(err, youtrack.ErrRequestFailed),
		errors.Is(err, context.DeadlineExceeded):
		return CodeRequestFailed, ExitRemote
	default:
		return CodeInternalError, ExitInternal
	}
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	appErr := Classify(err)
	return appErr != nil && appErr.Code == CodeNotFound
}

// IsAuth checks if the error is an authentication or authorization failure
func IsAuth(err error) bool {
	appErr := Classify(err)
	return appErr != nil && appErr.ExitCode == ExitAuth
}

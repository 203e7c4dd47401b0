package youtrack

import (
	"errors"
	"fmt"
	"net/http"
)

// Client-side error types
var (
	// ErrFileNotReadable indicates the local file to upload does not exist or cannot be read
	ErrFileNotReadable = errors.New("file does not exist or is not readable")

	// ErrNotFound indicates the tracker answered 404
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the tracker rejected the credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the credentials lack the required permission
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidResponse indicates a response body that could not be decoded
	ErrInvalidResponse = errors.New("invalid response")

	// ErrInvalidAttachment indicates an attachment that lacks the data an operation needs
	ErrInvalidAttachment = errors.New("invalid attachment")

	// ErrNoContentFetcher indicates an attachment download was requested without a fetcher
	ErrNoContentFetcher = errors.New("no content fetcher configured")

	// ErrRequestFailed indicates any other non-2xx response
	ErrRequestFailed = errors.New("request failed")
)

// APIError represents a non-2xx answer from the tracker
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Unwrap maps the status code onto one of the sentinel errors
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return ErrRequestFailed
	}
}

// NewAPIError creates a new APIError
func NewAPIError(method, url string, statusCode int, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
		Body:       body,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an authentication or permission error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// GetAPIError extracts APIError from an error if it exists
func GetAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

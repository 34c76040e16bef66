// Package errors provides structured error types for the tracking engine.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout        = errors.New("operation timed out")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrUnavailable    = errors.New("service unavailable")
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrSyncInProgress = errors.New("sync cycle already in progress")
)

// SourceError represents a failure fetching from an external activity source.
type SourceError struct {
	Source     string
	StatusCode int
	Message    string
	Err        error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s source error (status %d): %s: %v", e.Source, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s source error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError creates a new source fetch error.
func NewSourceError(source string, statusCode int, message string) *SourceError {
	return &SourceError{Source: source, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		switch srcErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}

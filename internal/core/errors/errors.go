package errors

import (
	"errors"
)

// Domain errors - these represent business rule and lookup failures
// surfaced by the streaming core.
var (
	// Lookups
	ErrQueueNotFound  = errors.New("queue not found")
	ErrTicketNotFound = errors.New("ticket not found")

	// Request validation
	ErrQueueIDRequired  = errors.New("queue ID is required")
	ErrTicketIDRequired = errors.New("ticket ID is required")
	ErrInvalidID        = errors.New("identifier is not a valid UUID")
	ErrInvalidStatus    = errors.New("invalid ticket status filter")

	// Upstream / transport
	ErrChangeSourceUnavailable = errors.New("change notification source is unavailable")
	ErrSinkClosed              = errors.New("stream sink is closed")

	// Generic
	ErrRateLimited = errors.New("rate limit exceeded")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: 400,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an Abacus error code.
type ErrorCode string

const (
	ErrInvalidInput ErrorCode = "INVALID_INPUT" // 400
	ErrNotFound     ErrorCode = "NOT_FOUND"     // 404
	ErrInternal     ErrorCode = "INTERNAL"      // 500
)

// Messages returned to HTTP clients. Validation is the only failure with a
// stable payload; everything else is reported generically.
const (
	MsgInvalidInput = "Invalid input"
	MsgNotFound     = "Not found"
	MsgInternal     = "Internal server error"
)

// AbacusError represents a structured error with code, status, and details.
type AbacusError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the underlying failure for internal errors. Never sent to clients.
	cause error
}

// Error implements the error interface.
func (e *AbacusError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AbacusError) Unwrap() error {
	return e.cause
}

// NewInvalidInput creates a 400 error for a rejected request body.
// reason is kept in Details for logs and tooling; the message stays fixed.
func NewInvalidInput(reason string) *AbacusError {
	e := &AbacusError{
		Code:    ErrInvalidInput,
		Status:  400,
		Message: MsgInvalidInput,
	}
	if reason != "" {
		e.Details = map[string]any{"reason": reason}
	}
	return e
}

// NewNotFound creates a 404 error for an unknown API path.
func NewNotFound(path string) *AbacusError {
	return &AbacusError{
		Code:    ErrNotFound,
		Status:  404,
		Message: MsgNotFound,
		Details: map[string]any{"path": path},
	}
}

// NewInternal creates a 500 error wrapping a storage or other unexpected failure.
func NewInternal(err error) *AbacusError {
	return &AbacusError{
		Code:    ErrInternal,
		Status:  500,
		Message: MsgInternal,
		cause:   err,
	}
}

// Is checks if err is (or wraps) an AbacusError with the given code.
func Is(err error, code ErrorCode) bool {
	var aErr *AbacusError
	if stderrors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}

// From returns err as an AbacusError, wrapping unknown errors as internal.
func From(err error) *AbacusError {
	var aErr *AbacusError
	if stderrors.As(err, &aErr) {
		return aErr
	}
	return NewInternal(err)
}

package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Type engine error codes
const (
	ErrUnification   ErrorCode = "UNIFICATION_FAILED"
	ErrShapeMismatch ErrorCode = "SHAPE_MISMATCH"
)

// Streaming validation error codes
const (
	ErrExpectedClass         ErrorCode = "EXPECTED_CLASS"
	ErrIncompleteDoneValue   ErrorCode = "INCOMPLETE_DONE_VALUE"
	ErrMissingNeededFields   ErrorCode = "MISSING_NEEDED_FIELDS"
	ErrDistributeTypeFailure ErrorCode = "DISTRIBUTE_TYPE_FAILURE"
	ErrMaxDepthExceeded      ErrorCode = "MAX_DEPTH_EXCEEDED"
)

// Catalog error codes
const (
	ErrCatalogInvalid  ErrorCode = "CATALOG_INVALID"
	ErrCatalogNotFound ErrorCode = "CATALOG_NOT_FOUND"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Path      string    `json:"path,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so sentinel values work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithPath records where in a value tree the error was raised.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

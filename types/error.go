package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Schema error codes
const (
	ErrCodeNoSchemaSet         ErrorCode = "NO_SCHEMA_SET"
	ErrCodeInvalidSchemaFormat ErrorCode = "INVALID_SCHEMA_FORMAT"
)

// Generation error codes
const (
	ErrCodeJSONDecode           ErrorCode = "JSON_DECODE"
	ErrCodeSchemaValidation     ErrorCode = "SCHEMA_VALIDATION"
	ErrCodeRetryBudgetExhausted ErrorCode = "RETRY_BUDGET_EXHAUSTED"
)

// Sentinel errors for errors.Is comparisons. Matching is by code, so an
// *Error built with NewError(ErrCodeNoSchemaSet, ...) matches ErrNoSchemaSet.
var (
	ErrNoSchemaSet          = NewError(ErrCodeNoSchemaSet, "no schema has been set")
	ErrInvalidSchemaFormat  = NewError(ErrCodeInvalidSchemaFormat, "invalid schema format")
	ErrRetryBudgetExhausted = NewError(ErrCodeRetryBudgetExhausted, "failed to obtain a valid JSON response after retries")
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Attempts  int       `json:"attempts,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
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

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
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

// WithAttempts records how many provider round-trips were made.
func (e *Error) WithAttempts(n int) *Error {
	e.Attempts = n
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

// IsErrorCode reports whether err carries the given code anywhere in its chain.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

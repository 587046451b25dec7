// Package errors provides domain-specific error types for hostgate.
//
// Errors carry a code so callers can branch with errors.Is against the
// sentinels below without depending on message text.
package errors

import "fmt"

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeConfig indicates invalid configuration (bad port, unreadable file).
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeAlreadyStarted indicates Start was called on a server that left the idle state.
	ErrCodeAlreadyStarted ErrorCode = "ALREADY_STARTED"

	// ErrCodeNotRunning indicates the server never reached the running state.
	ErrCodeNotRunning ErrorCode = "NOT_RUNNING"

	// ErrCodeHandlerFailure indicates a route handler returned an error or panicked.
	ErrCodeHandlerFailure ErrorCode = "HANDLER_FAILURE"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrConfig         = New(ErrCodeConfig, "configuration error")
	ErrAlreadyStarted = New(ErrCodeAlreadyStarted, "server already started")
	ErrNotRunning     = New(ErrCodeNotRunning, "server is not running")
	ErrHandlerFailure = New(ErrCodeHandlerFailure, "handler failure")
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewAlreadyStartedError reports a Start call outside the idle state.
func NewAlreadyStartedError(state string) *Error {
	return New(ErrCodeAlreadyStarted, fmt.Sprintf("server cannot start from state %s", state))
}

// NewNotRunningError reports an operation that needs a server which never ran.
func NewNotRunningError(message string, cause error) *Error {
	return Wrap(ErrCodeNotRunning, message, cause)
}

// NewHandlerFailure wraps an error returned or raised by a route handler.
func NewHandlerFailure(message string, cause error) *Error {
	return Wrap(ErrCodeHandlerFailure, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}

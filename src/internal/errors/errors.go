// Package errors provides domain-specific error types for openwrt-monitor.
//
// Errors carry a code so callers can classify failures (bad credentials versus
// an unreachable router, for example) without matching on message text.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeAuth indicates rejected credentials or a rejected session.
	ErrCodeAuth ErrorCode = "AUTH_ERROR"

	// ErrCodeConnection indicates a network, timeout or malformed-response failure.
	ErrCodeConnection ErrorCode = "CONNECTION_ERROR"

	// ErrCodeParse indicates a response field could not be interpreted.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeReconfigure indicates the router instance cannot start until its
	// credentials are changed.
	ErrCodeReconfigure ErrorCode = "RECONFIGURE_REQUIRED"

	// ErrCodeUpdateFailed indicates a poll cycle failed; the next cycle retries.
	ErrCodeUpdateFailed ErrorCode = "UPDATE_FAILED"

	// ErrCodeConfig indicates a configuration-related error.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeValidation indicates a validation error.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

// NewAuthError creates a new authentication error.
func NewAuthError(message string, cause error) *Error {
	return Wrap(ErrCodeAuth, message, cause)
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) *Error {
	return Wrap(ErrCodeConnection, message, cause)
}

// NewParseError creates a new parse error.
func NewParseError(message string, cause error) *Error {
	return Wrap(ErrCodeParse, message, cause)
}

// NewReconfigureError creates an error signalling that setup cannot proceed
// with the current credentials.
func NewReconfigureError(message string, cause error) *Error {
	return Wrap(ErrCodeReconfigure, message, cause)
}

// NewUpdateFailedError creates a new poll-cycle failure.
func NewUpdateFailedError(message string, cause error) *Error {
	return Wrap(ErrCodeUpdateFailed, message, cause)
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, cause error) *Error {
	return Wrap(ErrCodeValidation, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &Error{Code: code})
}

// IsAuth reports whether err is (or wraps) an authentication error.
func IsAuth(err error) bool {
	return HasCode(err, ErrCodeAuth)
}

// IsConnection reports whether err is (or wraps) a connection error.
func IsConnection(err error) bool {
	return HasCode(err, ErrCodeConnection)
}

// CodeOf returns the code of the outermost domain error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

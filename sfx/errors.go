package sfx

import (
	"errors"
	"fmt"
)

// Kind categorizes a generation failure.
type Kind string

const (
	KindParameter      Kind = "parameter"
	KindAuthentication Kind = "authentication"
	KindPermission     Kind = "permission"
	KindRateLimit      Kind = "rate_limit"
	KindGeneration     Kind = "generation"
	KindAPI            Kind = "api"
	KindUnexpected     Kind = "unexpected"
)

// Error represents a classified generation failure.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int  // HTTP status from the remote API, 0 when not applicable
	Retryable  bool
	Cause      error // Original remote or local error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("(status %d) %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsParameterError checks if an error is a parameter validation error.
func IsParameterError(err error) bool {
	return isKind(err, KindParameter)
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	return isKind(err, KindAuthentication)
}

// IsPermissionError checks if an error is a permission error.
func IsPermissionError(err error) bool {
	return isKind(err, KindPermission)
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	return isKind(err, KindRateLimit)
}

// IsGenerationError checks if an error is a generation error (bad request or
// exhausted server errors).
func IsGenerationError(err error) bool {
	return isKind(err, KindGeneration)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var sfxErr *Error
	if errors.As(err, &sfxErr) {
		return sfxErr.Retryable
	}
	return false
}

func isKind(err error, kind Kind) bool {
	var sfxErr *Error
	if errors.As(err, &sfxErr) {
		return sfxErr.Kind == kind
	}
	return false
}

// NewParameterError creates a new parameter validation error.
func NewParameterError(message string) *Error {
	return &Error{
		Kind:    KindParameter,
		Message: message,
	}
}

// NewUnexpectedError wraps an error that is not one of the library's own
// kinds. Callers must check with errors.As before wrapping to avoid double
// wrapping; see wrapUnexpected.
func NewUnexpectedError(message string, cause error) *Error {
	return &Error{
		Kind:    KindUnexpected,
		Message: message,
		Cause:   cause,
	}
}

// wrapUnexpected wraps err into an unexpected-kind Error unless it already is
// one of the library's own error kinds, in which case it is returned
// unchanged. The check is a type test, not a string comparison.
func wrapUnexpected(message string, err error) error {
	var sfxErr *Error
	if errors.As(err, &sfxErr) {
		return err
	}
	return NewUnexpectedError(message, err)
}

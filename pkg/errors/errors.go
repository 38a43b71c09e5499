package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeNetwork indicates a connectivity or DNS failure against an
	// external source; retryable and counted toward circuit-breaker failures
	ErrorTypeNetwork ErrorType = "NETWORK"

	// ErrorTypeTimeout indicates a fetch deadline expired; treated
	// identically to a network failure
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeParse indicates a malformed or unexpected payload;
	// non-retryable for this attempt, still counted as a failure
	ErrorTypeParse ErrorType = "PARSE"

	// ErrorTypeRateLimited indicates provider pushback (HTTP 429);
	// a failure with extended backoff
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"

	// ErrorTypeAuth indicates the provider rejected our credentials;
	// a failure with extended backoff
	ErrorTypeAuth ErrorType = "AUTH"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal when err is not
// an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsThrottled reports whether err represents provider pushback that warrants
// an extended circuit-breaker backoff.
func IsThrottled(err error) bool {
	t := TypeOf(err)
	return t == ErrorTypeRateLimited || t == ErrorTypeAuth
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeNetwork, Message: message, Err: err}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeTimeout, Message: message, Err: err}
}

// NewParseError creates a new parse error
func NewParseError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeParse, Message: message, Err: err}
}

// NewRateLimitedError creates a new rate-limited error
func NewRateLimitedError(message string) *AppError {
	return &AppError{Type: ErrorTypeRateLimited, Message: message}
}

// NewAuthError creates a new auth error
func NewAuthError(message string) *AppError {
	return &AppError{Type: ErrorTypeAuth, Message: message}
}

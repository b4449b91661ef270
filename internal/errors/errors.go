package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates invalid client-side input; it blocks
	// submission locally and never reaches the upstream API.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnreachable indicates no response was received from upstream.
	ErrCodeUnreachable ErrorCode = "unreachable"
	// ErrCodeUnauthorized indicates upstream rejected the credentials (401).
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeRateLimited indicates upstream throttled the attempt (429).
	ErrCodeRateLimited ErrorCode = "rate_limited"
	// ErrCodeServerRejected indicates any other upstream 4xx/5xx; Message
	// carries the upstream body's message verbatim when one was present.
	ErrCodeServerRejected ErrorCode = "server_rejected"
	// ErrCodeAuthExpired indicates the profile check during bootstrap failed;
	// it always degrades to unauthenticated.
	ErrCodeAuthExpired ErrorCode = "auth_expired"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInternal indicates an internal gateway error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message,
// and optional cause. It supports error wrapping and unwrapping for use with
// errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Unreachable creates a new Unreachable error wrapping the transport cause.
func Unreachable(cause error) *AppError {
	return &AppError{Code: ErrCodeUnreachable, Message: "no server response", Cause: cause}
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message}
}

// RateLimited creates a new RateLimited error.
func RateLimited(message string) *AppError {
	return &AppError{Code: ErrCodeRateLimited, Message: message}
}

// ServerRejected creates a new ServerRejected error carrying the upstream
// message verbatim.
func ServerRejected(message string) *AppError {
	return &AppError{Code: ErrCodeServerRejected, Message: message}
}

// AuthExpired creates a new AuthExpired error.
func AuthExpired(cause error) *AppError {
	return &AppError{Code: ErrCodeAuthExpired, Message: "session no longer valid", Cause: cause}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsUnreachable checks if an error is an Unreachable error.
func IsUnreachable(err error) bool { return isCode(err, ErrCodeUnreachable) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsRateLimited checks if an error is a RateLimited error.
func IsRateLimited(err error) bool { return isCode(err, ErrCodeRateLimited) }

// IsServerRejected checks if an error is a ServerRejected error.
func IsServerRejected(err error) bool { return isCode(err, ErrCodeServerRejected) }

// IsAuthExpired checks if an error is an AuthExpired error.
func IsAuthExpired(err error) bool { return isCode(err, ErrCodeAuthExpired) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserMessage returns the human-readable message for an error, falling back
// to the provided default for non-AppError or empty-message errors. Handlers
// use this to populate form error surfaces.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

package login

import (
	"fmt"
	"net/http"
)

// Login error codes as constants
const (
	ErrorCodeMissingInput      = "missing_input"
	ErrorCodeUnauthorized      = "unauthorized"
	ErrorCodeProviderError     = "provider_error"
	ErrorCodeServerError       = "server_error"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
)

// Error represents a login API error response
type Error struct {
	Code    string // Machine-readable error code (e.g., "missing_input")
	Message string // Human-readable error description
	Status  int    // HTTP status code
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new login error
func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Common login errors as reusable constructors
var (
	// ErrMissingInput indicates the request is missing a required field
	ErrMissingInput = func(msg string) *Error {
		return NewError(ErrorCodeMissingInput, msg, http.StatusBadRequest)
	}

	// ErrUnauthorized indicates the session token is missing, unknown, or expired
	ErrUnauthorized = func(msg string) *Error {
		return NewError(ErrorCodeUnauthorized, msg, http.StatusUnauthorized)
	}

	// ErrProviderError indicates the identity provider rejected or failed the request
	ErrProviderError = func(msg string) *Error {
		return NewError(ErrorCodeProviderError, msg, http.StatusInternalServerError)
	}

	// ErrServerError indicates an internal server error occurred
	ErrServerError = func(msg string) *Error {
		return NewError(ErrorCodeServerError, msg, http.StatusInternalServerError)
	}

	// ErrRateLimitExceeded indicates the caller exceeded the per-IP rate limit
	ErrRateLimitExceeded = func(msg string) *Error {
		return NewError(ErrorCodeRateLimitExceeded, msg, http.StatusTooManyRequests)
	}
)

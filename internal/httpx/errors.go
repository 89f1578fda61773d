// Package httpx carries the API error taxonomy and JSON response helpers
// shared by the dispatcher and handlers.
package httpx

import (
	"fmt"
	"net/http"
)

// Error is an API-level failure with a stable machine code and HTTP status.
// Handlers return it; the dispatch boundary converts it to a response.
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Validation flags malformed client input (400). The message is exposed.
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation_error", Message: message}
}

// Unauthorized flags a missing, invalid or expired credential (401).
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "authentication_required", Message: message}
}

// Forbidden flags a CSRF mismatch or insufficient role (403).
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Message: message}
}

// NotFound flags a missing resource or unmatched route (404).
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Message: message}
}

// TooManyRequests flags an exhausted rate-limit window (429).
func TooManyRequests(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: message}
}

// Internal wraps an unexpected failure (500). The wrapped cause is logged but
// only shown to clients in development mode.
func Internal(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error.", cause: cause}
}

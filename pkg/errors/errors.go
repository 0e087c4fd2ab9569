// Package errors defines the coded errors shared by the Auri CLI and API.
//
// Every failure that crosses a package boundary carries a [Code]. The CLI
// prints the code next to the message and the API maps it to an HTTP status
// with [HTTPStatus]. [UserMessage] turns an error into text safe to show in
// the journal UI.
//
//	err := errors.New(errors.ErrCodeInvalidInput, "frequency must be >= 0, got %d", f)
//	err = errors.Wrap(errors.ErrCodeAI, cause, "analyze entry")
//	if errors.Is(err, errors.ErrCodeAI) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidFilter Code = "INVALID_FILTER"

	// Resource errors
	ErrCodeNotFound   Code = "NOT_FOUND"
	ErrCodeSaveFailed Code = "SAVE_FAILED"

	// Network errors
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeRateLimited  Code = "RATE_LIMITED"
	ErrCodeNoConnection Code = "NO_CONNECTION"

	// Authentication errors
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"

	// Layout errors
	ErrCodeLayoutOverflow Code = "LAYOUT_OVERFLOW"

	// Remote service errors
	ErrCodeAI Code = "AI_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// userMessages are the texts shown to people using the journal, keyed by code.
var userMessages = map[Code]string{
	ErrCodeTimeout:        "Request timed out. Please try again.",
	ErrCodeNoConnection:   "No internet connection.",
	ErrCodeRateLimited:    "Too many requests. Please try again later.",
	ErrCodeUnauthorized:   "You're not authorized to perform this action",
	ErrCodeSessionExpired: "Session expired. Please sign in again.",
	ErrCodeNotFound:       "The requested data could not be found",
	ErrCodeSaveFailed:     "Failed to save data",
}

// UserMessage returns a user-friendly message for the error.
// Codes with a fixed user-facing text return that text; other *Error values
// return their message without the code prefix. Plain errors are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if msg, ok := userMessages[e.Code]; ok {
			return msg
		}
		switch e.Code {
		case ErrCodeNetwork:
			return "Server error: " + e.Message
		case ErrCodeAI:
			return "AI service error: " + e.Message
		}
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the HTTP status code used by the API.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidFilter:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized, ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeLayoutOverflow:
		return http.StatusUnprocessableEntity
	case ErrCodeNetwork, ErrCodeAI, ErrCodeNoConnection:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}

package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies the failures the fetcher can run into
type ErrorType string

const (
	// ErrorTypeConfig marks invalid or incomplete configuration. Fatal.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInvalidCredentials marks a rejected login. Fatal, never retried.
	ErrorTypeInvalidCredentials ErrorType = "invalid_credentials"
	// ErrorTypeNetwork marks transport failures (DNS, refused, timeouts).
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeUnexpectedResponse marks responses the platform should not
	// have produced (malformed JSON, missing token, wrong shape).
	ErrorTypeUnexpectedResponse ErrorType = "unexpected_response"
	// ErrorTypeRateLimit marks HTTP 429 responses.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServerError marks HTTP 5xx responses.
	ErrorTypeServerError ErrorType = "server_error"
	// ErrorTypeSessionExpired marks HTTP 401 on an authenticated request.
	// The session client handles it with a single re-login.
	ErrorTypeSessionExpired ErrorType = "session_expired"
	// ErrorTypeNotFound marks HTTP 404 responses.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeForbidden marks HTTP 403 responses.
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeDiscovery marks a subtree that could not be enumerated.
	ErrorTypeDiscovery ErrorType = "discovery"
	// ErrorTypeConversion marks content that could not be converted.
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeWrite marks filesystem failures while persisting output.
	ErrorTypeWrite ErrorType = "write"
	// ErrorTypeCancelled marks work abandoned because the run was cancelled.
	ErrorTypeCancelled ErrorType = "cancelled"
	// ErrorTypeUnknown is the catch-all for unclassified failures.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error represents a classified error with optional HTTP code and cause
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Newf creates a classified error with a formatted message
func Newf(errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error wrapping an underlying cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// FromStatusCode maps an HTTP status code on an authenticated request to a
// classified error
func FromStatusCode(statusCode int, message string) *Error {
	var errorType ErrorType
	switch {
	case statusCode == 401:
		errorType = ErrorTypeSessionExpired
	case statusCode == 403:
		errorType = ErrorTypeForbidden
	case statusCode == 404:
		errorType = ErrorTypeNotFound
	case statusCode == 429:
		errorType = ErrorTypeRateLimit
	case statusCode >= 500:
		errorType = ErrorTypeServerError
	default:
		errorType = ErrorTypeUnknown
	}
	return &Error{Type: errorType, Message: message, Code: statusCode}
}

// TypeOf extracts the error type, returning ErrorTypeUnknown for errors that
// were never classified
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType checks whether the error carries the given classification
func IsType(err error, errorType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return IsRetryableType(e.Type)
	}
	return false
}

// IsRetryableType checks if an error type should be retried
func IsRetryableType(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeUnexpectedResponse:
		return true
	default:
		return false
	}
}

// IsSessionExpired checks whether the error requires a re-login
func IsSessionExpired(err error) bool {
	return IsType(err, ErrorTypeSessionExpired)
}

// IsFatal checks whether the error should abort the whole run
func IsFatal(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeConfig, ErrorTypeInvalidCredentials:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}

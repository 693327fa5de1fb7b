package gims

import (
	"errors"
	"fmt"
)

// Sentinel errors for API failure classification. Use errors.Is to test
// which class an *APIError belongs to.
var (
	// ErrAuthFailed indicates the access token was rejected (HTTP 401).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrPermissionDenied indicates insufficient permissions (HTTP 403).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrNotJSON indicates a 2xx response whose content type is not JSON.
	// The raw bytes are never passed through to callers.
	ErrNotJSON = errors.New("response is not JSON")

	// ErrBadJSON indicates a response that declared JSON but failed to parse.
	ErrBadJSON = errors.New("malformed JSON response")

	// ErrAuth indicates the refresh token itself was rejected. This is
	// unrecoverable for the current credential pair: no further retries
	// are attempted.
	ErrAuth = errors.New("refresh token rejected")
)

// APIError represents an error response from the GIMS API.
type APIError struct {
	// StatusCode is the HTTP status of the failed response.
	StatusCode int

	// Message is a short, fixed description of the failure class.
	Message string

	// Detail carries sanitized context from the response body. For HTML
	// error pages only the page title or a tag-stripped snippet is kept.
	Detail string

	// class is the sentinel this error matches, if any.
	class error
}

// Error returns the formatted error message.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("GIMS API error (%d): %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("GIMS API error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap returns the classification sentinel for errors.Is checks.
func (e *APIError) Unwrap() error {
	return e.class
}

// AuthError reports an unrecoverable authentication failure: the refresh
// token was rejected while trying to renew an expired access token.
type AuthError struct {
	// Detail describes why the refresh was rejected.
	Detail string
}

// Error returns the formatted error message.
func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("authentication failed permanently: %s", e.Detail)
	}
	return "authentication failed permanently: refresh token invalid or expired"
}

// Is reports whether this error matches ErrAuth.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// apiError builds an *APIError bound to a classification sentinel.
func apiError(status int, message, detail string, class error) *APIError {
	return &APIError{StatusCode: status, Message: message, Detail: detail, class: class}
}

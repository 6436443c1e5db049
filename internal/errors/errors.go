// Package errors provides the error taxonomy for trito sessions and completers.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrAuthRejected         = errors.New("credential rejected")
	ErrNotAuthenticated     = errors.New("session is not authenticated")
	ErrCompleterUnavailable = errors.New("completer unavailable")
	ErrBusy                 = errors.New("a reply is still being generated")
	ErrEmptyReply           = errors.New("completer returned an empty reply")
	ErrNoSecret             = errors.New("no access password configured")
	ErrUnknownProvider      = errors.New("unknown completer provider")
	ErrMissingAPIKey        = errors.New("missing provider API key")
	ErrSessionNotFound      = errors.New("session not found")
)

// CompleterError wraps any failure of the remote completion call.
// It matches ErrCompleterUnavailable so callers only need one check.
type CompleterError struct {
	Provider string
	Err      error
}

func (e *CompleterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completer %s unavailable", e.Provider)
	}
	return fmt.Sprintf("completer %s unavailable: %v", e.Provider, e.Err)
}

func (e *CompleterError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *CompleterError) Is(target error) bool {
	if target == ErrCompleterUnavailable {
		return true
	}
	_, ok := target.(*CompleterError)
	return ok
}

// NewCompleterError creates a new CompleterError
func NewCompleterError(provider string, err error) *CompleterError {
	return &CompleterError{Provider: provider, Err: err}
}

// APIError represents a non-2xx answer from a provider
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NetworkError represents a transport failure before any response arrived
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// Is matches context.DeadlineExceeded so wrapped deadlines and explicit
// timeouts are treated alike.
func (e *TimeoutError) Is(target error) bool {
	if target == context.DeadlineExceeded {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// IsCompleterError reports whether err came from a failed completion call
func IsCompleterError(err error) bool {
	return errors.Is(err, ErrCompleterUnavailable)
}

// IsTimeoutError reports whether err is a timeout of any kind
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded)
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsRateLimitError reports whether the provider answered 429
func IsRateLimitError(err error) bool {
	return GetHTTPStatus(err) == 429
}

// IsRetryable reports whether another attempt at the same request may succeed
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if IsTimeoutError(err) || IsNetworkError(err) || IsRateLimitError(err) {
		return true
	}
	return GetHTTPStatus(err) >= 500
}

// GetHTTPStatus returns the provider status code carried by err, or 0
func GetHTTPStatus(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCompleterError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewCompleterError("openai", cause)

	expected := "completer openai unavailable: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrCompleterUnavailable) {
		t.Error("Expected CompleterError to match ErrCompleterUnavailable")
	}

	if !errors.Is(err, cause) {
		t.Error("Expected CompleterError to unwrap to its cause")
	}

	wrapped := fmt.Errorf("submit: %w", err)
	if !IsCompleterError(wrapped) {
		t.Error("Expected wrapped CompleterError to be detected")
	}

	if errors.Is(err, ErrBusy) {
		t.Error("Expected CompleterError not to match ErrBusy")
	}
}

func TestCompleterError_NilCause(t *testing.T) {
	err := NewCompleterError("echo", nil)
	if err.Error() != "completer echo unavailable" {
		t.Errorf("Error() = %s", err.Error())
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(503, "/v1/chat/completions", "overloaded")

	expected := "API error [503] at /v1/chat/completions: overloaded"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	noStatus := NewAPIError(0, "gemini", "blocked")
	if noStatus.Error() != "API error at gemini: blocked" {
		t.Errorf("Error() = %s", noStatus.Error())
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("after 30s")

	if err.Error() != "request timed out: after 30s" {
		t.Errorf("Error() = %s", err.Error())
	}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Expected TimeoutError to match context.DeadlineExceeded")
	}

	if NewTimeoutError("").Error() != "request timed out" {
		t.Error("Expected default message for empty TimeoutError")
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("dial tcp: no such host")
	err := NewNetworkError("chat completion", "https://example.test", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected NetworkError to unwrap")
	}

	expected := "network error during chat completion at https://example.test: dial tcp: no such host"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		timeout   bool
		network   bool
		rateLimit bool
		retryable bool
		status    int
	}{
		{
			name:      "timeout",
			err:       NewTimeoutError(""),
			timeout:   true,
			retryable: true,
		},
		{
			name:      "deadline exceeded",
			err:       fmt.Errorf("call: %w", context.DeadlineExceeded),
			timeout:   true,
			retryable: true,
		},
		{
			name:      "network",
			err:       NewNetworkError("op", "", errors.New("reset")),
			network:   true,
			retryable: true,
		},
		{
			name:      "rate limit",
			err:       NewAPIError(429, "x", "slow down"),
			rateLimit: true,
			retryable: true,
			status:    429,
		},
		{
			name:      "server error",
			err:       NewCompleterError("compat", NewAPIError(502, "x", "bad gateway")),
			retryable: true,
			status:    502,
		},
		{
			name:   "client error",
			err:    NewAPIError(401, "x", "bad key"),
			status: 401,
		},
		{
			name: "canceled",
			err:  context.Canceled,
		},
		{
			name: "nil",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeoutError(tt.err); got != tt.timeout {
				t.Errorf("IsTimeoutError() = %v, want %v", got, tt.timeout)
			}
			if got := IsNetworkError(tt.err); got != tt.network {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.network)
			}
			if got := IsRateLimitError(tt.err); got != tt.rateLimit {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.rateLimit)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := GetHTTPStatus(tt.err); got != tt.status {
				t.Errorf("GetHTTPStatus() = %d, want %d", got, tt.status)
			}
		})
	}
}

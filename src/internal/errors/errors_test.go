package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "error without cause",
			err:      &Error{Code: ErrCodeConfig, Message: "invalid configuration"},
			expected: "[CONFIG_ERROR] invalid configuration",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeConnection, "login request failed", errors.New("connection refused")),
			expected: "[CONNECTION_ERROR] login request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "wrapper", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestError_Is(t *testing.T) {
	err1 := &Error{Code: ErrCodeAuth, Message: "test error"}
	err2 := &Error{Code: ErrCodeAuth, Message: "another error"}
	err3 := &Error{Code: ErrCodeConnection, Message: "network error"}

	if !err1.Is(err2) {
		t.Errorf("Expected errors with same code to match")
	}

	if err1.Is(err3) {
		t.Errorf("Expected errors with different codes to not match")
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	auth := NewAuthError("invalid credentials", nil)
	wrapped := fmt.Errorf("cycle: %w", NewUpdateFailedError("fetch failed", auth))

	if !IsAuth(wrapped) {
		t.Error("expected wrapped auth error to be classified as auth")
	}
	if IsConnection(wrapped) {
		t.Error("did not expect connection classification")
	}
	if !HasCode(wrapped, ErrCodeUpdateFailed) {
		t.Error("expected update-failed code in chain")
	}
	if code, ok := CodeOf(wrapped); !ok || code != ErrCodeUpdateFailed {
		t.Errorf("CodeOf() = %v, %v; want %v", code, ok, ErrCodeUpdateFailed)
	}

	timeout := NewConnectionError("timed out", context.DeadlineExceeded)
	if !IsConnection(timeout) || !errors.Is(timeout, context.DeadlineExceeded) {
		t.Error("expected connection error to keep its cause")
	}
}

func TestNewAuthError(t *testing.T) {
	cause := errors.New("HTTP 403")
	err := NewAuthError("login rejected", cause)

	if err.Code != ErrCodeAuth {
		t.Errorf("Expected code %v, got %v", ErrCodeAuth, err.Code)
	}
	if err.Message != "login rejected" {
		t.Errorf("Expected message 'login rejected', got %v", err.Message)
	}
	if err.Cause != cause {
		t.Errorf("Expected cause to be preserved")
	}
}

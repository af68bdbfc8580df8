package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	withCode := &Error{Type: ErrorTypeRateLimit, Message: "too many requests", Code: 429}
	if got, want := withCode.Error(), "rate_limit error (code 429): too many requests"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	withoutCode := &Error{Type: ErrorTypeConfig, Message: "concurrency out of range"}
	if got, want := withoutCode.Error(), "config error: concurrency out of range"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnwrap(t *testing.T) {
	wrapped := Wrap(ErrorTypeNetwork, "request failed", io.ErrUnexpectedEOF)

	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("expected errors.Is to find the wrapped cause")
	}

	// Classification survives another fmt wrapping layer.
	outer := fmt.Errorf("fetching item 12: %w", wrapped)
	if TypeOf(outer) != ErrorTypeNetwork {
		t.Errorf("TypeOf through fmt wrap = %v, want network", TypeOf(outer))
	}
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{401, ErrorTypeSessionExpired},
		{403, ErrorTypeForbidden},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{502, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			err := FromStatusCode(tt.code, "boom")
			if err.Type != tt.expected {
				t.Errorf("FromStatusCode(%d).Type = %v, want %v", tt.code, err.Type, tt.expected)
			}
			if err.Code != tt.code {
				t.Errorf("FromStatusCode(%d).Code = %d", tt.code, err.Code)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"network", New(ErrorTypeNetwork, "connection refused"), true},
		{"rate limit", New(ErrorTypeRateLimit, "slow down"), true},
		{"server error", FromStatusCode(503, "unavailable"), true},
		{"unexpected response", New(ErrorTypeUnexpectedResponse, "bad json"), true},
		{"invalid credentials", New(ErrorTypeInvalidCredentials, "wrong password"), false},
		{"not found", FromStatusCode(404, "gone"), false},
		{"forbidden", FromStatusCode(403, "nope"), false},
		{"session expired", FromStatusCode(401, "expired"), false},
		{"write", New(ErrorTypeWrite, "disk full"), false},
		{"plain error", errors.New("unclassified"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestIsSessionExpired(t *testing.T) {
	if !IsSessionExpired(FromStatusCode(401, "token expired")) {
		t.Error("401 should report session expired")
	}
	if IsSessionExpired(FromStatusCode(403, "forbidden")) {
		t.Error("403 should not report session expired")
	}
	if IsSessionExpired(errors.New("random")) {
		t.Error("plain errors should not report session expired")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(New(ErrorTypeConfig, "missing domain")) {
		t.Error("config errors are fatal")
	}
	if !IsFatal(New(ErrorTypeInvalidCredentials, "rejected")) {
		t.Error("invalid credentials are fatal")
	}
	if IsFatal(New(ErrorTypeNetwork, "refused")) {
		t.Error("network errors are not fatal")
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	retryable := []int{0, 429, 500, 502, 503, 504, 599}
	for _, code := range retryable {
		if !IsRetryableStatusCode(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}

	terminal := []int{401, 403, 404, 400, 422}
	for _, code := range terminal {
		if IsRetryableStatusCode(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}

package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestRemoteFetchError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *RemoteFetchError
		expected string
	}{
		{
			name: "status error",
			err: &RemoteFetchError{
				Status:     500,
				Identifier: "weekly-contest-489",
				Endpoint:   "contest_info",
				Class:      ErrorClassServer,
			},
			expected: "contest_info HTTP 500 for weekly-contest-489",
		},
		{
			name: "wrapped transport error",
			err: &RemoteFetchError{
				Identifier: "two-sum",
				Endpoint:   "graphql",
				Class:      ErrorClassNetwork,
				Err:        errors.New("connection refused"),
			},
			expected: "graphql request for two-sum failed (network): connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRemoteFetchError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	err := &RemoteFetchError{Class: ErrorClassNetwork, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	wrapped := fmt.Errorf("fetch contest: %w", err)
	var rfe *RemoteFetchError
	if !errors.As(wrapped, &rfe) {
		t.Fatal("errors.As should find *RemoteFetchError through wrapping")
	}
	if rfe.Class != ErrorClassNetwork {
		t.Errorf("Class = %q", rfe.Class)
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(errors.New("plain")); got != 0 {
		t.Errorf("StatusOf(plain) = %d, want 0", got)
	}
	if got := StatusOf(nil); got != 0 {
		t.Errorf("StatusOf(nil) = %d, want 0", got)
	}
	err := fmt.Errorf("ctx: %w", &RemoteFetchError{Status: 403})
	if got := StatusOf(err); got != 403 {
		t.Errorf("StatusOf() = %d, want 403", got)
	}
}

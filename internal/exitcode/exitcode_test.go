package exitcode

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/vulnark/internal/api"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"AccessDenied", AccessDenied, 3},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "401 from the api",
			err:      &api.Error{Kind: api.KindAuthentication, Status: 401},
			expected: AuthError,
		},
		{
			name:     "403 from the api",
			err:      &api.Error{Kind: api.KindAuthorization, Status: 403},
			expected: AccessDenied,
		},
		{
			name:     "api unreachable",
			err:      &api.Error{Kind: api.KindNetwork, Err: errors.New("dial tcp: connection refused")},
			expected: NetworkError,
		},
		{
			name:     "request refused locally",
			err:      &api.Error{Kind: api.KindValidation},
			expected: UsageError,
		},
		{
			name:     "server error",
			err:      &api.Error{Kind: api.KindServer, Status: 500},
			expected: GeneralError,
		},
		{
			name:     "wrapped api error",
			err:      fmt.Errorf("list assets: %w", &api.Error{Kind: api.KindAuthentication}),
			expected: AuthError,
		},
		{
			name:     "cancelled request",
			err:      &api.Error{Kind: api.KindNetwork, Err: context.Canceled},
			expected: Interrupted,
		},
		{
			name:     "not logged in",
			err:      cerrors.SessionRequired(),
			expected: AuthError,
		},
		{
			name:     "guard redirect",
			err:      cerrors.Redirected("/users", "/vulnerabilities", "administrator role required"),
			expected: AccessDenied,
		},
		{
			name:     "bad configuration",
			err:      cerrors.New(cerrors.ErrCodeConfigInvalid, "ui.theme must be light or dark"),
			expected: UsageError,
		},
		{
			name:     "storage failure",
			err:      cerrors.New(cerrors.ErrCodeSessionStorage, "storage.json is corrupt"),
			expected: GeneralError,
		},
		{
			name:     "usage error - unknown flag",
			err:      errors.New("unknown flag: --foo"),
			expected: UsageError,
		},
		{
			name:     "usage error - required flag",
			err:      errors.New(`required flag(s) "username" not set`),
			expected: UsageError,
		},
		{
			name:     "usage error - arg count",
			err:      errors.New("accepts 1 arg(s), received 0"),
			expected: UsageError,
		},
		{
			name:     "connection refused message",
			err:      errors.New("dial tcp 127.0.0.1:8080: connection refused"),
			expected: NetworkError,
		},
		{
			name:     "timeout message",
			err:      errors.New("request timeout"),
			expected: NetworkError,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	for _, code := range []int{Success, GeneralError, UsageError, AccessDenied, AuthError, NetworkError, Interrupted} {
		if desc := GetExitCodeDescription(code); desc == "" || desc == "Unknown error" {
			t.Errorf("GetExitCodeDescription(%d) = %q", code, desc)
		}
	}
	if desc := GetExitCodeDescription(99); desc != "Unknown error" {
		t.Errorf("GetExitCodeDescription(99) = %q", desc)
	}
}

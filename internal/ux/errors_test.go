package ux

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/vulnark/internal/api"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
)

func TestNewErrorWithSuggestion(t *testing.T) {
	if NewErrorWithSuggestion(nil, "x") != nil {
		t.Error("NewErrorWithSuggestion(nil) should be nil")
	}

	base := errors.New("test error")
	err := NewErrorWithSuggestion(base, "do this")
	if got, want := err.Error(), "test error\n\n💡 Suggestion: do this"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Error("suggestion wrapper must unwrap to the original error")
	}
	if got := NewErrorWithSuggestion(base, "").Error(); got != "test error" {
		t.Errorf("Error() without suggestion = %q", got)
	}
}

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantSuggestion string
	}{
		{
			name:           "session ended",
			err:            &api.Error{Kind: api.KindAuthentication, Status: 401},
			wantSuggestion: "vulnark auth login",
		},
		{
			name:           "forbidden",
			err:            &api.Error{Kind: api.KindAuthorization, Status: 403},
			wantSuggestion: "administrator",
		},
		{
			name:           "server unreachable",
			err:            fmt.Errorf("list: %w", &api.Error{Kind: api.KindNetwork}),
			wantSuggestion: "server.origin",
		},
		{
			name:           "server error with request id",
			err:            &api.Error{Kind: api.KindServer, Status: 500, RequestID: "req-1"},
			wantSuggestion: "req-1",
		},
		{
			name:           "missing config file",
			err:            errors.New("open /home/a/.vulnark/config.yaml: no such file or directory"),
			wantSuggestion: "vulnark config init",
		},
		{
			name:           "wrong passphrase",
			err:            errors.New("open sealed value: wrong passphrase"),
			wantSuggestion: "VULNARK_STORAGE_PASSPHRASE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceError(tt.err)
			var ews *ErrorWithSuggestion
			if !errors.As(got, &ews) {
				t.Fatalf("EnhanceError() = %v, want a suggestion", got)
			}
			if !strings.Contains(ews.Suggestion, tt.wantSuggestion) {
				t.Errorf("suggestion %q does not mention %q", ews.Suggestion, tt.wantSuggestion)
			}
			if !errors.Is(got, tt.err) {
				t.Error("enhanced error must wrap the original")
			}
		})
	}
}

func TestEnhanceErrorLeavesOthersAlone(t *testing.T) {
	coded := cerrors.SessionRequired()
	if got := EnhanceError(coded); got != error(coded) {
		t.Errorf("EnhanceError changed an error that has suggestions: %v", got)
	}

	plain := errors.New("something odd")
	if got := EnhanceError(plain); got != plain {
		t.Errorf("EnhanceError(%v) = %v", plain, got)
	}

	rejected := &api.Error{Kind: api.KindRejected, Code: 4001}
	if got := EnhanceError(rejected); got != error(rejected) {
		t.Errorf("EnhanceError(rejected) = %v", got)
	}

	if EnhanceError(nil) != nil {
		t.Error("EnhanceError(nil) should be nil")
	}
}

func TestFormatError(t *testing.T) {
	err := FormatError(&api.Error{Kind: api.KindAuthentication}, "list assets")
	if !strings.HasPrefix(err.Error(), "list assets: ") {
		t.Errorf("FormatError() = %q", err)
	}
	if !api.IsKind(err, api.KindAuthentication) {
		t.Error("FormatError must keep the api error reachable")
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, cerrors.SessionRequired())
	out := buf.String()
	if !strings.HasPrefix(out, "Error: [SESSION-001] not logged in") {
		t.Errorf("PrintError() = %q", out)
	}
	if !strings.Contains(out, "vulnark auth login") {
		t.Errorf("PrintError() lost the suggestion: %q", out)
	}

	buf.Reset()
	PrintError(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("PrintError(nil) wrote %q", buf.String())
	}
}

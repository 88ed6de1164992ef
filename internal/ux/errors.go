package ux

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/vulnark/internal/api"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions. Errors
// that already carry suggestions are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var ce *cerrors.ConsoleError
	if errors.As(err, &ce) && len(ce.Suggestions) > 0 {
		return err
	}
	var ews *ErrorWithSuggestion
	if errors.As(err, &ews) {
		return err
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindAuthentication:
			return NewErrorWithSuggestion(err, "Your session has ended. Run 'vulnark auth login' to sign in again")
		case api.KindAuthorization:
			return NewErrorWithSuggestion(err, "Your role does not allow this. Ask an administrator for access")
		case api.KindNetwork:
			return NewErrorWithSuggestion(err, "Check that the API server is running and that server.origin points at it ('vulnark config view')")
		case api.KindValidation:
			return NewErrorWithSuggestion(err, "Fix the request fields listed above and try again")
		case api.KindServer:
			if apiErr.RequestID != "" {
				return NewErrorWithSuggestion(err, fmt.Sprintf("Report request ID %s to the server administrator", apiErr.RequestID))
			}
		}
		return err
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "no such file or directory") && strings.Contains(errMsg, "config.yaml") {
		return NewErrorWithSuggestion(err, "Create a configuration with 'vulnark config init'")
	}
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err, "Check permissions of ~/.vulnark and the files inside it")
	}
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err, "Check your network connection and the configured server.origin")
	}
	if strings.Contains(errMsg, "passphrase") {
		return NewErrorWithSuggestion(err, "Set VULNARK_STORAGE_PASSPHRASE to the passphrase used when the session was saved, or log in again")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}

// PrintError writes err, with any suggestions it gains, for a human.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %s\n", EnhanceError(err))
}

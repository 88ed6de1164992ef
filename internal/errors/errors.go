package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-002"
	ErrCodeConfigOrigin   ErrorCode = "CONFIG-003"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionRequired  ErrorCode = "SESSION-001"
	ErrCodeSessionExpired   ErrorCode = "SESSION-002"
	ErrCodeSessionStorage   ErrorCode = "SESSION-003"
	ErrCodeSessionLoginFail ErrorCode = "SESSION-004"

	// Route errors (ROUTE-001 to ROUTE-099)
	ErrCodeRouteForbidden  ErrorCode = "ROUTE-001"
	ErrCodeRouteRedirected ErrorCode = "ROUTE-002"
	ErrCodeRouteLoop       ErrorCode = "ROUTE-003"

	// API errors (API-001 to API-099)
	ErrCodeAPIRequest  ErrorCode = "API-001"
	ErrCodeAPIRejected ErrorCode = "API-002"
	ErrCodeAPIContract ErrorCode = "API-003"

	// Input errors (INPUT-001 to INPUT-099)
	ErrCodeInputInvalid  ErrorCode = "INPUT-001"
	ErrCodeInputRequired ErrorCode = "INPUT-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
)

// ConsoleError is an error with a stable code, suggestions for the operator
// and an optional documentation link.
type ConsoleError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *ConsoleError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", suggestion)
		}
	}

	if e.DocsURL != "" {
		fmt.Fprintf(&b, "\n\nDocumentation: %s", e.DocsURL)
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ConsoleError) Unwrap() error {
	return e.Cause
}

// Category returns the prefix of the code, e.g. "SESSION".
func (e *ConsoleError) Category() string {
	category, _, _ := strings.Cut(string(e.Code), "-")
	return category
}

// New creates a new ConsoleError
func New(code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *ConsoleError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new ConsoleError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ConsoleError {
	return &ConsoleError{Code: code, Message: message, Cause: cause}
}

// WithSuggestion adds a suggestion to the error
func (e *ConsoleError) WithSuggestion(suggestion string) *ConsoleError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ConsoleError) WithSuggestions(suggestions ...string) *ConsoleError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *ConsoleError) WithDocs(url string) *ConsoleError {
	e.DocsURL = url
	return e
}

// SessionRequired is returned when a command needs a logged-in session.
func SessionRequired() *ConsoleError {
	return New(ErrCodeSessionRequired, "not logged in").
		WithSuggestion("Run 'vulnark auth login' to start a session")
}

// Redirected reports that a navigation was sent somewhere else by the route guard.
func Redirected(from, to, reason string) *ConsoleError {
	return Newf(ErrCodeRouteRedirected, "%s is not available (%s), redirected to %s", from, reason, to)
}

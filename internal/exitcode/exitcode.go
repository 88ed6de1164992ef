package exitcode

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/vulnark/internal/api"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AccessDenied indicates the route guard or the server refused the
	// requested page or resource
	AccessDenied = 3

	// AuthError indicates a missing, rejected or expired session
	AuthError = 5

	// NetworkError indicates the API could not be reached
	NetworkError = 6

	// Interrupted indicates the command was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Typed errors are
// inspected first; anything else falls back to its message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindAuthentication:
			return AuthError
		case api.KindAuthorization:
			return AccessDenied
		case api.KindNetwork:
			return NetworkError
		case api.KindValidation:
			return UsageError
		}
		return GeneralError
	}

	var ce *cerrors.ConsoleError
	if errors.As(err, &ce) {
		switch ce.Code {
		case cerrors.ErrCodeSessionRequired, cerrors.ErrCodeSessionExpired, cerrors.ErrCodeSessionLoginFail:
			return AuthError
		case cerrors.ErrCodeRouteForbidden, cerrors.ErrCodeRouteRedirected:
			return AccessDenied
		case cerrors.ErrCodeInputInvalid, cerrors.ErrCodeInputRequired:
			return UsageError
		}
		if ce.Category() == "CONFIG" {
			return UsageError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())

	// Usage errors from flag parsing
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") ||
		strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or configuration)"
	case AccessDenied:
		return "Access denied"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}

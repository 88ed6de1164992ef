package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota
	// KindAuthentication is HTTP 401.
	KindAuthentication
	// KindAuthorization is HTTP 403.
	KindAuthorization
	// KindNotFound is HTTP 404.
	KindNotFound
	// KindServer is HTTP 500.
	KindServer
	// KindHTTP is any other non-2xx status.
	KindHTTP
	// KindRejected is a 2xx response whose envelope carries a failure code.
	KindRejected
	// KindValidation is a request refused locally before it was sent.
	KindValidation
	// KindDecode is a response body that could not be decoded.
	KindDecode
)

var kindNames = map[Kind]string{
	KindNetwork:        "network",
	KindAuthentication: "authentication",
	KindAuthorization:  "authorization",
	KindNotFound:       "not_found",
	KindServer:         "server",
	KindHTTP:           "http",
	KindRejected:       "rejected",
	KindValidation:     "validation",
	KindDecode:         "decode",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// kindForStatus maps a non-2xx status to its Kind.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusInternalServerError:
		return KindServer
	}
	return KindHTTP
}

// Error is returned by every failed call of the Client. The same value that
// was reported to the notifier is handed back to the caller.
type Error struct {
	Kind      Kind
	Status    int
	Code      int
	Method    string
	Path      string
	Message   string
	RequestID string
	Err       error

	// token is the bearer token the request was sent with.
	token string
}

func (e *Error) Error() string {
	var detail string
	switch {
	case e.Message != "":
		detail = e.Message
	case e.Err != nil:
		detail = e.Err.Error()
	default:
		detail = http.StatusText(e.Status)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Kind, detail)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, detail)
}

func (e *Error) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.String("method", e.Method),
		slog.String("path", e.Path),
	}
	if e.Status != 0 {
		attrs = append(attrs, slog.Int("status", e.Status))
	}
	if e.Code != 0 {
		attrs = append(attrs, slog.Int("code", e.Code))
	}
	if e.Message != "" {
		attrs = append(attrs, slog.String("message", e.Message))
	}
	if e.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", e.RequestID))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/felixgeelhaar/vulnark/internal/errors"
)

func newBufferLogger(buf *bytes.Buffer, level Level) *Logger {
	return New(Config{Level: level, Format: FormatJSON, Output: NewOutput(buf)})
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log entry %q: %v", buf.String(), err)
	}
	return entry
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelWarn)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("shown", "route", "/users")
	entry := decode(t, &buf)
	if entry["msg"] != "shown" || entry["route"] != "/users" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:          LevelInfo,
		Format:         FormatJSON,
		Output:         NewOutput(&buf),
		ServiceName:    "vulnark",
		ServiceVersion: "1.2.3",
	})

	logger.Info("hello")
	entry := decode(t, &buf)
	if entry["service"] != "vulnark" || entry["version"] != "1.2.3" {
		t.Errorf("expected service attributes, got %v", entry)
	}
}

func TestWithComponentAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelDebug).WithComponent("session").WithGroup("req")

	logger.Debug("sent", "path", "/auth/me")
	entry := decode(t, &buf)
	if entry["component"] != "session" {
		t.Errorf("expected component attribute, got %v", entry)
	}
	group, ok := entry["req"].(map[string]any)
	if !ok || group["path"] != "/auth/me" {
		t.Errorf("expected grouped path attribute, got %v", entry)
	}
}

func TestWithErrorConsoleError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	err := errors.Wrap(errors.ErrCodeConfigInvalid, "bad config", fmt.Errorf("yaml: line 3")).
		WithSuggestion("run vulnark config view")

	logger.WithError(err).Error("startup failed")
	entry := decode(t, &buf)

	if entry["error_code"] != string(errors.ErrCodeConfigInvalid) {
		t.Errorf("expected error_code, got %v", entry)
	}
	if entry["cause"] != "yaml: line 3" {
		t.Errorf("expected cause, got %v", entry["cause"])
	}
	if _, ok := entry["suggestions"]; !ok {
		t.Error("expected suggestions")
	}
}

type valuedError struct{}

func (valuedError) Error() string { return "valued" }

func (valuedError) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("status", 403), slog.String("kind", "authorization"))
}

func TestWithErrorLogValuer(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	logger.WithError(fmt.Errorf("wrapped: %w", valuedError{})).Warn("request failed")
	entry := decode(t, &buf)

	group, ok := entry["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected grouped error, got %v", entry["error"])
	}
	if group["kind"] != "authorization" {
		t.Errorf("unexpected error group: %v", group)
	}
}

func TestWithErrorNil(t *testing.T) {
	logger := Discard()
	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	logger.LogError(nil)
	if buf.Len() != 0 {
		t.Fatal("LogError(nil) should not log")
	}

	logger.LogError(fmt.Errorf("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("expected error text, got %q", buf.String())
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: NewOutput(&buf)})

	logger.Info("navigated", "to", "/dashboard")
	if !strings.Contains(buf.String(), "to=/dashboard") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

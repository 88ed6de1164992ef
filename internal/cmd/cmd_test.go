package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/vulnark/internal/apitest"
	"github.com/felixgeelhaar/vulnark/internal/authz"
	"github.com/felixgeelhaar/vulnark/internal/config"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
)

// harness runs the command tree against a stub server with a private
// config file and session storage.
type harness struct {
	t       *testing.T
	srv     *apitest.Server
	dir     string
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.Origin = srv.URL
	cfg.UI.Locale = "en-US"
	cfg.Session.StoragePath = filepath.Join(dir, config.StorageFileName)
	cfg.Logging.Level = "error"
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, cfg.Save(path))

	return &harness{t: t, srv: srv, dir: dir, cfgPath: path}
}

// run executes one invocation, as a fresh process would.
func (h *harness) run(args ...string) (string, string, error) {
	return h.runWithInput("", args...)
}

func (h *harness) runWithInput(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// login registers username with role and logs in through the CLI.
func (h *harness) login(username string, role authz.Role) {
	h.t.Helper()
	h.srv.AddUser(authz.UserProfile{Username: username, Email: username + "@example.com", Role: role}, "s3cret-pw")
	_, _, err := h.runWithInput("s3cret-pw\n", "auth", "login", "-u", username, "--password-stdin")
	require.NoError(h.t, err)
}

func (h *harness) requested(path string) bool {
	_, ok := h.srv.LastRequest(path)
	return ok
}

func errorCode(err error) cerrors.ErrorCode {
	var ce *cerrors.ConsoleError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	want := []string{
		"auth", "console", "dashboard", "assets", "scans", "logs", "tools", "baseline",
		"vulnerabilities", "discovery", "dependencies", "users", "agents", "open",
		"config", "route", "api", "doctor", "version", "completion",
	}
	for _, name := range want {
		c, _, err := root.Find([]string{name})
		if err != nil || c == root {
			t.Errorf("command %q not registered", name)
			continue
		}
		if c.GroupID == "" {
			t.Errorf("command %q has no help group", name)
		}
	}

	for _, flag := range []string{"config", "format", "no-color", "log-level", "origin", "quiet"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("version", "-o", "xml")
	if err == nil || !strings.Contains(err.Error(), "invalid --format") {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestOriginOverride(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--origin", "ftp://nowhere", "open")
	if got := errorCode(err); got != cerrors.ErrCodeConfigOrigin {
		t.Errorf("code = %q, want %q (err %v)", got, cerrors.ErrCodeConfigOrigin, err)
	}
}

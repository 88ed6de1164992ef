package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
)

func TestConfigInitGetSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	run := func(args ...string) (string, error) {
		root := NewRootCommand()
		var out strings.Builder
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"--config", path}, args...))
		err := root.Execute()
		return out.String(), err
	}

	out, err := run("config", "init", "--server", "https://vulnark.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = run("config", "init")
	assert.Equal(t, cerrors.ErrCodeInputInvalid, errorCode(err), "init does not overwrite without --force")

	out, err = run("config", "get", "server.origin")
	require.NoError(t, err)
	assert.Equal(t, "https://vulnark.example.com\n", out)

	_, err = run("config", "set", "ui.page_size", "50")
	require.NoError(t, err)
	out, err = run("config", "get", "ui.page_size")
	require.NoError(t, err)
	assert.Equal(t, "50\n", out)

	_, err = run("config", "set", "timeouts.api_request", "45s")
	require.NoError(t, err)
	out, err = run("config", "get", "timeouts.api_request")
	require.NoError(t, err)
	assert.Equal(t, "45s\n", out)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "server.nope", "x"},
		{"section", "server", "x"},
		{"wrong type", "ui.page_size", "many"},
		{"invalid origin", "server.origin", "ftp://vulnark.example.com"},
		{"invalid duration", "timeouts.api_request", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run("config", "set", tt.key, tt.value)
			assert.Equal(t, cerrors.ErrCodeConfigInvalid, errorCode(err))
		})
	}

	out, err = run("config", "get", "ui.page_size")
	require.NoError(t, err)
	assert.Equal(t, "50\n", out, "failed sets leave the file alone")
}

func TestConfigViewAndKeys(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("config", "set", "session.passphrase", "hunter2")
	require.NoError(t, err)

	out, _, err := h.run("config", "view")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# "+h.cfgPath))
	assert.Contains(t, out, "origin: "+h.srv.URL)
	assert.NotContains(t, out, "hunter2")

	out, _, err = h.run("config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "server.origin")
	assert.Contains(t, out, "debug.validate_requests")
	assert.NotContains(t, out, "hunter2")

	out, _, err = h.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, h.cfgPath+"\n", out)
}

package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/vulnark/internal/authz"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/exitcode"
	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/tui"
)

func TestPagesRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{{"assets"}, {"dashboard"}, {"open", "/baseline-scans"}, {"users"}} {
		_, _, err := h.run(args...)
		assert.Equal(t, cerrors.ErrCodeSessionRequired, errorCode(err), "%v", args)
		assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err), "%v", args)
	}
	assert.Empty(t, h.srv.Requests(), "the guard stops anonymous navigation before any request")
}

func TestUserCannotOpenAdminPages(t *testing.T) {
	h := newHarness(t)
	h.login("uma", authz.RoleUser)

	for _, page := range []string{"users", "agents"} {
		_, _, err := h.run(page)
		require.Error(t, err, page)
		assert.Equal(t, cerrors.ErrCodeRouteRedirected, errorCode(err), page)
		assert.Equal(t, exitcode.AccessDenied, exitcode.DetermineExitCode(err), page)
	}
	assert.False(t, h.requested("/users"))
	assert.False(t, h.requested("/admin/agents"))

	_, _, err := h.run("tools", "admin")
	assert.Equal(t, cerrors.ErrCodeRouteRedirected, errorCode(err))
}

func TestOpenLandsOnRolePage(t *testing.T) {
	tests := []struct {
		role    authz.Role
		landing string
		request string
	}{
		{authz.RoleUser, "/vulnerabilities", "/dashboard/vulnerability-severity-distribution"},
		{authz.RoleAdmin, "/dashboard", "/dashboard/stats"},
		{authz.RoleAnalyst, "/dashboard", "/dashboard/stats"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			h := newHarness(t)
			h.login("someone", tt.role)

			out, _, err := h.run("open", "-o", "json")
			require.NoError(t, err)
			var p tui.Page
			require.NoError(t, json.Unmarshal([]byte(out), &p))
			assert.True(t, h.requested(tt.request))
		})
	}
}

func TestAdminOpensUsers(t *testing.T) {
	h := newHarness(t)
	h.login("alice", authz.RoleAdmin)

	out, _, err := h.run("users", "-o", "json")
	require.NoError(t, err)

	var p tui.Page
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.NotEmpty(t, p.Data)
	assert.Contains(t, out, "alice")

	rec, ok := h.srv.LastRequest("/users")
	require.True(t, ok)
	assert.NotEmpty(t, rec.Query.Get("_t"), "GET requests carry a cache buster")
	assert.Equal(t, "10", rec.Query.Get("size"))
}

func TestManagerIsAdminTier(t *testing.T) {
	h := newHarness(t)
	h.login("mona", authz.RoleManager)

	_, _, err := h.run("users", "--size", "5")
	require.NoError(t, err)
	rec, ok := h.srv.LastRequest("/users")
	require.True(t, ok)
	assert.Equal(t, "5", rec.Query.Get("size"))
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	h.login("alice", authz.RoleAdmin)

	_, _, err := h.run("dashboard", "--days", "7")
	require.NoError(t, err)
	rec, ok := h.srv.LastRequest("/dashboard/vulnerability-trends")
	require.True(t, ok)
	assert.Equal(t, "7", rec.Query.Get("days"))
	assert.True(t, h.requested("/dashboard/recent-activities"))
}

func TestServerErrorIsReported(t *testing.T) {
	h := newHarness(t)
	h.login("alice", authz.RoleAdmin)
	h.srv.Fail("GET", "/baseline-scans", 500, "boom")

	_, stderr, err := h.run("scans")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, stderr, notify.NewLocalizer("en-US").Text(notify.KeyServerError), "the notice reaches the operator")
}

func TestParseID(t *testing.T) {
	for _, in := range []string{"0", "-3", "abc", ""} {
		if _, err := parseID(in); err == nil {
			t.Errorf("parseID(%q) accepted", in)
		}
	}
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
}

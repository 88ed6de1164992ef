package health

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/felixgeelhaar/vulnark/internal/api"
	"github.com/felixgeelhaar/vulnark/internal/config"
	"github.com/felixgeelhaar/vulnark/internal/session"
)

// ConfigChecker validates the loaded configuration.
type ConfigChecker struct {
	cfg  *config.Config
	path string
}

// NewConfigChecker checks cfg, which was read from path ("" when only
// defaults and environment were used).
func NewConfigChecker(cfg *config.Config, path string) *ConfigChecker {
	return &ConfigChecker{cfg: cfg, path: path}
}

// Name implements Checker.
func (c *ConfigChecker) Name() string { return "config" }

// Check implements Checker.
func (c *ConfigChecker) Check(context.Context) *Result {
	if err := c.cfg.Validate(); err != nil {
		return Unhealthy(err.Error()).WithHint("Fix the setting in config.yaml or the VULNARK_* environment")
	}
	if c.path == "" {
		return Degraded("no config file, using defaults").
			WithDetail("api", c.cfg.APIBaseURL()).
			WithHint("Create one with 'vulnark config init'")
	}
	if _, err := os.Stat(c.path); err != nil {
		return Degraded(fmt.Sprintf("config file %s not found, using defaults", c.path)).
			WithDetail("api", c.cfg.APIBaseURL()).
			WithHint("Create one with 'vulnark config init'")
	}
	return Healthy("configuration is valid").
		WithDetail("file", c.path).
		WithDetail("api", c.cfg.APIBaseURL())
}

// StorageChecker inspects the durable session file.
type StorageChecker struct {
	path string
}

// NewStorageChecker checks the storage file at path.
func NewStorageChecker(path string) *StorageChecker {
	return &StorageChecker{path: path}
}

// Name implements Checker.
func (c *StorageChecker) Name() string { return "storage" }

// Check implements Checker.
func (c *StorageChecker) Check(context.Context) *Result {
	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Healthy("no saved session").WithDetail("path", c.path)
	}
	if err != nil {
		return Unhealthy(fmt.Sprintf("cannot read %s: %v", c.path, err))
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return Degraded(fmt.Sprintf("%s is readable by other users (%04o)", c.path, perm)).
			WithHint(fmt.Sprintf("Run: chmod 600 %s", c.path))
	}
	return Healthy("session storage is private").WithDetail("path", c.path)
}

// SessionSource is the part of the session store the checker reads.
type SessionSource interface {
	Snapshot() session.Snapshot
	TokenInfo() session.TokenInfo
}

// SessionChecker reports the local session state.
type SessionChecker struct {
	session SessionSource
	now     func() time.Time
}

// NewSessionChecker checks s.
func NewSessionChecker(s SessionSource) *SessionChecker {
	return &SessionChecker{session: s, now: time.Now}
}

// Name implements Checker.
func (c *SessionChecker) Name() string { return "session" }

// Check implements Checker.
func (c *SessionChecker) Check(context.Context) *Result {
	snap := c.session.Snapshot()
	if !snap.IsAuthenticated() {
		return Degraded("not logged in").WithHint("Run 'vulnark auth login'")
	}
	info := c.session.TokenInfo()
	if info.Expired(c.now()) {
		return Degraded("token expired at " + info.ExpiresAt.Format(time.RFC3339)).
			WithDetail("token", info.Fingerprint).
			WithHint("Run 'vulnark auth login'")
	}
	r := Healthy("session " + snap.State().String()).WithDetail("token", info.Fingerprint)
	if !info.ExpiresAt.IsZero() {
		r.WithDetail("expires", info.ExpiresAt.Format(time.RFC3339))
	}
	if snap.User != nil {
		r.WithDetail("user", snap.User.Username).WithDetail("role", string(snap.User.Role))
	}
	return r
}

// Doer sends API requests.
type Doer interface {
	Do(ctx context.Context, req api.Request, out any) error
}

// APIChecker probes the REST API with a quiet profile request, so a
// rejected token is reported without ending the session.
type APIChecker struct {
	client Doer
	token  func() string
}

// NewAPIChecker probes through client. token reports whether a session is
// present.
func NewAPIChecker(client Doer, token func() string) *APIChecker {
	return &APIChecker{client: client, token: token}
}

// Name implements Checker.
func (c *APIChecker) Name() string { return "api" }

// Check implements Checker.
func (c *APIChecker) Check(ctx context.Context) *Result {
	err := c.client.Do(ctx, api.Request{Method: http.MethodGet, Path: "/auth/me", Quiet: true}, nil)
	hasToken := c.token != nil && c.token() != ""

	var apiErr *api.Error
	switch {
	case err == nil:
		return Healthy("API reachable, session accepted")
	case !errors.As(err, &apiErr):
		return Unhealthy(err.Error())
	case apiErr.Kind == api.KindAuthentication && !hasToken:
		return Healthy("API reachable")
	case apiErr.Kind == api.KindAuthentication:
		return Degraded("API reachable, but it rejected the session token").
			WithHint("Run 'vulnark auth login'")
	case apiErr.Kind == api.KindNetwork:
		return Unhealthy("API unreachable: " + apiErr.Error()).
			WithHint("Check server.origin or pass --origin")
	default:
		return Degraded("API answered " + apiErr.Error()).
			WithDetail("status", apiErr.Status)
	}
}

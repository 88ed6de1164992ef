package router

import (
	"testing"

	"github.com/felixgeelhaar/vulnark/internal/authz"
)

type principal struct {
	authenticated bool
	role          authz.Role
}

func (p principal) IsAuthenticated() bool { return p.authenticated }
func (p principal) Role() authz.Role { return p.role }

var (
	anonymous = principal{}
	tokenOnly = principal{authenticated: true}
)

func as(role authz.Role) principal { return principal{authenticated: true, role: role} }

func TestGuardDecide(t *testing.T) {
	g := NewGuard(nil, nil)

	tests := []struct {
		name       string
		dest       string
		who        Principal
		wantAction Action
		wantTarget string
		wantReason Reason
	}{
		{"anonymous to protected page", "/assets", anonymous, Redirect, PathLogin, ReasonLoginRequired},
		{"anonymous to admin page", "/users", anonymous, Redirect, PathLogin, ReasonLoginRequired},
		{"anonymous to root", "/", anonymous, Redirect, PathLogin, ReasonLoginRequired},
		{"anonymous to unknown page", "/nope", anonymous, Redirect, PathLogin, ReasonLoginRequired},
		{"nil principal to protected page", "/dashboard", nil, Redirect, PathLogin, ReasonLoginRequired},
		{"anonymous to login", "/login", anonymous, Allow, PathLogin, ReasonNone},
		{"anonymous to register", "/register", anonymous, Allow, PathRegister, ReasonNone},
		{"admin to login", "/login", as(authz.RoleAdmin), Redirect, PathDashboard, ReasonAlreadyLoggedIn},
		{"user to login", "/login", as(authz.RoleUser), Redirect, PathVulnerabilities, ReasonAlreadyLoggedIn},
		{"token only to login", "/login", tokenOnly, Redirect, PathDashboard, ReasonAlreadyLoggedIn},
		{"user to root", "/", as(authz.RoleUser), Redirect, PathVulnerabilities, ReasonLanding},
		{"analyst to root", "/", as(authz.RoleAnalyst), Redirect, PathDashboard, ReasonLanding},
		{"manager to root", "/", as(authz.RoleManager), Redirect, PathDashboard, ReasonLanding},
		{"admin to users", "/users", as(authz.RoleAdmin), Allow, PathUsers, ReasonNone},
		{"manager to users", "/users", as(authz.RoleManager), Allow, PathUsers, ReasonNone},
		{"analyst to users", "/users", as(authz.RoleAnalyst), Redirect, PathVulnerabilities, ReasonAdminRequired},
		{"viewer to agents", "/agents", as(authz.RoleViewer), Redirect, PathVulnerabilities, ReasonAdminRequired},
		{"token only to baseline tasks", "/baseline-tasks", tokenOnly, Redirect, PathVulnerabilities, ReasonAdminRequired},
		{"admin to admin scan tools", "/admin/scan-tools", as(authz.RoleAdmin), Allow, PathAdminScanTools, ReasonNone},
		{"manager to admin scan tools", "/admin/scan-tools", as(authz.RoleManager), Redirect, PathVulnerabilities, ReasonRoleNotPermitted},
		{"user to dashboard", "/dashboard", as(authz.RoleUser), Allow, PathDashboard, ReasonNone},
		{"viewer to scan logs", "/scan-logs?page=2", as(authz.RoleViewer), Allow, PathScanLogs, ReasonNone},
		{"authenticated to unknown page", "/nope", as(authz.RoleUser), Allow, PathNotFound, ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Decide(tt.dest, tt.who)
			if d.Action != tt.wantAction {
				t.Errorf("Decide(%q).Action = %v, want %v", tt.dest, d.Action, tt.wantAction)
			}
			if d.Action == Redirect && d.Target != tt.wantTarget {
				t.Errorf("Decide(%q).Target = %q, want %q", tt.dest, d.Target, tt.wantTarget)
			}
			if d.Action == Allow && d.Route.Path != tt.wantTarget {
				t.Errorf("Decide(%q).Route.Path = %q, want %q", tt.dest, d.Route.Path, tt.wantTarget)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Decide(%q).Reason = %q, want %q", tt.dest, d.Reason, tt.wantReason)
			}
		})
	}
}

// Every route and role combination must be decided, and no redirect may
// point back at its own destination.
func TestGuardNeverRedirectsToSelf(t *testing.T) {
	g := NewGuard(nil, nil)
	principals := []Principal{anonymous, tokenOnly}
	for _, r := range authz.Roles {
		principals = append(principals, as(r))
	}

	for _, route := range g.Table().Routes() {
		for _, p := range principals {
			d := g.Evaluate(route, p)
			if d.Action == Redirect && d.Target == route.Path {
				t.Errorf("%s for %+v redirects to itself", route.Path, p)
			}
			if d.Action == Allow && route.RequiresAuth && !p.IsAuthenticated() {
				t.Errorf("%s allowed without a session", route.Path)
			}
			if d.Action == Allow && route.RequiresAdmin && !g.Policy().IsAdminTier(p.Role()) {
				t.Errorf("%s allowed for non-admin role %q", route.Path, p.Role())
			}
		}
	}
}

func TestGuardCustomPolicy(t *testing.T) {
	policy := authz.NewPolicyBuilder().
		WithLogin(PathLogin).
		WithDefaultLanding(PathAssets).
		Land(authz.RoleViewer, PathScanLogs).
		AdminTier(authz.RoleAdmin).
		WithFallback(PathDashboard).
		Build()
	g := NewGuard(DefaultTable(), policy)

	if d := g.Decide("/", as(authz.RoleViewer)); d.Target != PathScanLogs {
		t.Errorf("viewer landing = %q, want %q", d.Target, PathScanLogs)
	}
	if d := g.Decide("/", as(authz.RoleUser)); d.Target != PathAssets {
		t.Errorf("user landing = %q, want %q", d.Target, PathAssets)
	}
	if d := g.Decide("/users", as(authz.RoleManager)); d.Action != Redirect || d.Target != PathDashboard {
		t.Errorf("manager to /users = %+v, want redirect to %q", d, PathDashboard)
	}
}

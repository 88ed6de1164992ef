// Package router decides, before every navigation, whether the destination
// may be shown to the current session or where to send it instead.
package router

import (
	"fmt"
	"slices"
	"strings"

	"github.com/felixgeelhaar/vulnark/internal/authz"
)

// Route describes one console page. Routes are values; a Table hands out
// copies so descriptors cannot change after the table is built.
type Route struct {
	Path          string
	Name          string
	Title         string
	RequiresAuth  bool
	RequiresAdmin bool
	RequiredRoles []authz.Role
	// Hidden routes are reachable but not listed in menus.
	Hidden bool
}

// AllowsRole reports whether role satisfies RequiredRoles.
func (r Route) AllowsRole(role authz.Role) bool {
	return len(r.RequiredRoles) == 0 || slices.Contains(r.RequiredRoles, role)
}

// Well-known paths.
const (
	PathLogin           = authz.RouteLogin
	PathRegister        = "/register"
	PathRoot            = authz.RouteRoot
	PathDashboard       = authz.RouteDashboard
	PathVulnerabilities = authz.RouteVulnerabilities
	PathAssets          = "/assets"
	PathAssetDiscovery  = "/asset-discovery"
	PathAssetDependency = "/asset-dependency"
	PathBaselineCheck   = "/baseline-check"
	PathBaselineScans   = "/baseline-scans"
	PathScanTools       = "/scan-tools"
	PathScanLogs        = "/scan-logs"
	PathUsers           = "/users"
	PathAgents          = "/agents"
	PathBaselineTasks   = "/baseline-tasks"
	PathBaselineRules   = "/baseline-rules"
	PathAdminScanTools  = "/admin/scan-tools"
	PathNotFound        = "/not-found"
)

// Table is an immutable set of routes.
type Table struct {
	routes   []Route
	byPath   map[string]int
	notFound Route
}

// NewTable builds a table. Paths must be unique and absolute. Unknown paths
// resolve to notFound.
func NewTable(notFound Route, routes ...Route) (*Table, error) {
	t := &Table{byPath: make(map[string]int, len(routes)), notFound: clone(notFound)}
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %q: path must start with '/'", r.Path)
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, fmt.Errorf("route %q: duplicate path", r.Path)
		}
		t.byPath[r.Path] = len(t.routes)
		t.routes = append(t.routes, clone(r))
	}
	return t, nil
}

func clone(r Route) Route {
	r.RequiredRoles = slices.Clone(r.RequiredRoles)
	return r
}

// Normalize strips query, fragment and trailing slashes.
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathRoot
		}
	}
	return path
}

// Lookup returns the route for path, or the not-found route.
func (t *Table) Lookup(path string) (Route, bool) {
	if i, ok := t.byPath[Normalize(path)]; ok {
		return clone(t.routes[i]), true
	}
	return clone(t.notFound), false
}

// Routes returns every route in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, r := range t.routes {
		out[i] = clone(r)
	}
	return out
}

// Visible returns the non-hidden routes p may open without a redirect.
func (t *Table) Visible(g *Guard, p Principal) []Route {
	var out []Route
	for _, r := range t.routes {
		if r.Hidden {
			continue
		}
		if g.Evaluate(r, p).Action == Allow {
			out = append(out, clone(r))
		}
	}
	return out
}

// DefaultTable returns the console's pages.
func DefaultTable() *Table {
	page := func(path, name, title string) Route {
		return Route{Path: path, Name: name, Title: title, RequiresAuth: true}
	}
	admin := func(path, name, title string) Route {
		r := page(path, name, title)
		r.RequiresAdmin = true
		return r
	}

	root := page(PathRoot, "Root", "Home")
	root.Hidden = true
	adminTools := page(PathAdminScanTools, "AdminScanTools", "Scan tool administration")
	adminTools.RequiredRoles = []authz.Role{authz.RoleAdmin}
	notFound := page(PathNotFound, "NotFound", "Page not found")
	notFound.Hidden = true

	t, err := NewTable(notFound,
		Route{Path: PathLogin, Name: "Login", Title: "Login", Hidden: true},
		Route{Path: PathRegister, Name: "Register", Title: "Register", Hidden: true},
		root,
		page(PathDashboard, "Dashboard", "Dashboard"),
		page(PathAssets, "Assets", "Assets"),
		page(PathVulnerabilities, "Vulnerabilities", "Vulnerabilities"),
		page(PathAssetDiscovery, "AssetDiscovery", "Asset discovery"),
		page(PathAssetDependency, "AssetDependency", "Asset dependencies"),
		page(PathBaselineCheck, "BaselineCheck", "Baseline check"),
		page(PathBaselineScans, "BaselineScans", "Baseline scans"),
		page(PathScanTools, "ScanTools", "Scan tools"),
		page(PathScanLogs, "ScanLogs", "Scan logs"),
		admin(PathUsers, "Users", "Users"),
		admin(PathAgents, "Agents", "Agents"),
		admin(PathBaselineTasks, "BaselineTasks", "Baseline tasks"),
		admin(PathBaselineRules, "BaselineRules", "Baseline rules"),
		adminTools,
		notFound,
	)
	if err != nil {
		panic(err)
	}
	return t
}

package router

import (
	"github.com/felixgeelhaar/vulnark/internal/authz"
)

// Principal is the part of a session the guard looks at.
type Principal interface {
	IsAuthenticated() bool
	Role() authz.Role
}

// Action is the outcome of a decision.
type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

// Reason explains a redirect.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonLoginRequired    Reason = "login required"
	ReasonAlreadyLoggedIn  Reason = "already logged in"
	ReasonLanding          Reason = "landing page"
	ReasonAdminRequired    Reason = "administrator role required"
	ReasonRoleNotPermitted Reason = "role not permitted"
)

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Action Action
	Target string
	Reason Reason
	Route  Route
}

// Guard is a pure function of route descriptor and session.
type Guard struct {
	table  *Table
	policy *authz.Policy
}

// NewGuard creates a guard over table using policy.
func NewGuard(table *Table, policy *authz.Policy) *Guard {
	if table == nil {
		table = DefaultTable()
	}
	if policy == nil {
		policy = authz.DefaultPolicy()
	}
	return &Guard{table: table, policy: policy}
}

// Table returns the guard's route table.
func (g *Guard) Table() *Table { return g.table }

// Policy returns the guard's policy.
func (g *Guard) Policy() *authz.Policy { return g.policy }

// Decide resolves dest against the table and evaluates it.
func (g *Guard) Decide(dest string, p Principal) Decision {
	route, _ := g.table.Lookup(dest)
	return g.Evaluate(route, p)
}

// Evaluate applies the navigation rules in order; the first match wins.
func (g *Guard) Evaluate(r Route, p Principal) Decision {
	authenticated := p != nil && p.IsAuthenticated()
	var role authz.Role
	if authenticated {
		role = p.Role()
	}

	redirect := func(target string, reason Reason) Decision {
		return Decision{Action: Redirect, Target: target, Reason: reason, Route: r}
	}

	switch {
	case r.RequiresAuth && !authenticated:
		return redirect(g.policy.LoginRoute, ReasonLoginRequired)
	case r.Path == g.policy.LoginRoute && authenticated:
		return redirect(g.policy.LandingFor(role), ReasonAlreadyLoggedIn)
	case r.Path == PathRoot:
		return redirect(g.policy.LandingFor(role), ReasonLanding)
	case r.RequiresAdmin && !g.policy.IsAdminTier(role):
		return redirect(g.policy.Fallback, ReasonAdminRequired)
	case !r.AllowsRole(role):
		return redirect(g.policy.Fallback, ReasonRoleNotPermitted)
	}
	return Decision{Action: Allow, Target: r.Path, Route: r}
}

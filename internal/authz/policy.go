package authz

// Well-known route paths referenced by the policy.
const (
	RouteLogin           = "/login"
	RouteRoot            = "/"
	RouteDashboard       = "/dashboard"
	RouteVulnerabilities = "/vulnerabilities"
)

// Policy holds every role-dependent navigation rule as data, so adding a
// role or a landing page does not touch guard logic.
type Policy struct {
	// LoginRoute is where unauthenticated navigations are sent.
	LoginRoute string
	// Landing maps a role to its landing route.
	Landing map[Role]string
	// DefaultLanding is used for roles missing from Landing and for
	// sessions without a profile.
	DefaultLanding string
	// AdminTier lists the roles that satisfy requiresAdmin.
	AdminTier map[Role]bool
	// Fallback is where authorization failures are sent.
	Fallback string
}

// DefaultPolicy returns the console's standard policy.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		WithLogin(RouteLogin).
		WithDefaultLanding(RouteDashboard).
		Land(RoleUser, RouteVulnerabilities).
		AdminTier(RoleAdmin, RoleManager).
		WithFallback(RouteVulnerabilities).
		Build()
}

// LandingFor returns the landing route for role.
func (p *Policy) LandingFor(role Role) string {
	if route, ok := p.Landing[role]; ok {
		return route
	}
	return p.DefaultLanding
}

// IsAdminTier reports whether role passes requiresAdmin checks.
func (p *Policy) IsAdminTier(role Role) bool {
	return p.AdminTier[role]
}

// PolicyBuilder provides a fluent API for building policies.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder creates a builder with empty tables.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{policy: &Policy{
		Landing:   map[Role]string{},
		AdminTier: map[Role]bool{},
	}}
}

// WithLogin sets the login route.
func (b *PolicyBuilder) WithLogin(route string) *PolicyBuilder {
	b.policy.LoginRoute = route
	return b
}

// WithDefaultLanding sets the landing route for unlisted roles.
func (b *PolicyBuilder) WithDefaultLanding(route string) *PolicyBuilder {
	b.policy.DefaultLanding = route
	return b
}

// Land maps role to a landing route.
func (b *PolicyBuilder) Land(role Role, route string) *PolicyBuilder {
	b.policy.Landing[role] = route
	return b
}

// AdminTier adds roles to the admin tier.
func (b *PolicyBuilder) AdminTier(roles ...Role) *PolicyBuilder {
	for _, r := range roles {
		b.policy.AdminTier[r] = true
	}
	return b
}

// WithFallback sets the authorization fallback route.
func (b *PolicyBuilder) WithFallback(route string) *PolicyBuilder {
	b.policy.Fallback = route
	return b
}

// Build returns the policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

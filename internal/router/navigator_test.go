package router

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/vulnark/internal/authz"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/log"
)

func newTestNavigator(who *Principal, opts ...NavigatorOption) *Navigator {
	opts = append([]NavigatorOption{WithNavigatorLogger(log.Discard())}, opts...)
	return NewNavigator(NewGuard(nil, nil), func() Principal { return *who }, opts...)
}

func TestNavigatorFollowsRedirects(t *testing.T) {
	var who Principal = as(authz.RoleUser)
	n := newTestNavigator(&who)

	nav, err := n.Navigate("/")
	if err != nil {
		t.Fatalf("Navigate(/) error = %v", err)
	}
	if nav.To != PathVulnerabilities {
		t.Errorf("Navigate(/).To = %q, want %q", nav.To, PathVulnerabilities)
	}
	if !nav.Redirected() || nav.Redirects[0].Reason != ReasonLanding {
		t.Errorf("Navigate(/).Redirects = %+v", nav.Redirects)
	}
	if n.Current() != PathVulnerabilities {
		t.Errorf("Current() = %q", n.Current())
	}
}

func TestNavigatorLoginFlow(t *testing.T) {
	var who Principal = anonymous
	n := newTestNavigator(&who)

	nav, err := n.Navigate("/users")
	if err != nil || nav.To != PathLogin {
		t.Fatalf("anonymous Navigate(/users) = %+v, %v", nav, err)
	}

	who = as(authz.RoleAdmin)
	nav, err = n.Navigate("/users")
	if err != nil || nav.To != PathUsers || nav.Redirected() {
		t.Fatalf("admin Navigate(/users) = %+v, %v", nav, err)
	}
	if nav.From != PathLogin {
		t.Errorf("From = %q, want %q", nav.From, PathLogin)
	}

	who = anonymous
	nav, err = n.Reevaluate()
	if err != nil || nav.To != PathLogin {
		t.Errorf("Reevaluate after logout = %+v, %v", nav, err)
	}

	want := []string{PathLogin, PathUsers, PathLogin}
	got := n.History()
	if len(got) != len(want) {
		t.Fatalf("History() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("History()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNavigatorListeners(t *testing.T) {
	var who Principal = as(authz.RoleAnalyst)
	n := newTestNavigator(&who)

	var seen []Navigation
	n.OnNavigate(func(nav Navigation) { seen = append(seen, nav) })

	n.Redirect("/users")
	if len(seen) != 1 {
		t.Fatalf("listener called %d times, want 1", len(seen))
	}
	if seen[0].Requested != PathUsers || seen[0].To != PathVulnerabilities {
		t.Errorf("navigation = %+v", seen[0])
	}
}

func TestNavigatorDetectsLoops(t *testing.T) {
	// Fallback points at an admin-only page, so non-admins bounce forever.
	policy := authz.NewPolicyBuilder().
		WithLogin(PathLogin).
		WithDefaultLanding(PathDashboard).
		AdminTier(authz.RoleAdmin).
		WithFallback(PathUsers).
		Build()
	var who Principal = as(authz.RoleViewer)
	n := NewNavigator(NewGuard(nil, policy), func() Principal { return who },
		WithNavigatorLogger(log.Discard()), WithMaxHops(3))

	_, err := n.Navigate("/agents")
	var ce *cerrors.ConsoleError
	if !errors.As(err, &ce) || ce.Code != cerrors.ErrCodeRouteLoop {
		t.Fatalf("Navigate error = %v, want %s", err, cerrors.ErrCodeRouteLoop)
	}
	if n.Current() != "" {
		t.Errorf("Current() = %q after aborted navigation", n.Current())
	}
}

func TestResolveDoesNotMove(t *testing.T) {
	var who Principal = as(authz.RoleManager)
	n := newTestNavigator(&who)

	nav, err := n.Resolve("/login")
	if err != nil || nav.To != PathDashboard {
		t.Errorf("Resolve(/login) = %+v, %v", nav, err)
	}
	if n.Current() != "" || len(n.History()) != 0 {
		t.Error("Resolve must not change location")
	}
}

package router

import (
	"sync"

	"github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/log"
)

// DefaultMaxHops bounds the redirects followed for one navigation.
const DefaultMaxHops = 8

// Navigation is a completed navigation.
type Navigation struct {
	From      string
	Requested string
	To        string
	Route     Route
	Redirects []Decision
}

// Redirected reports whether the guard sent the navigation elsewhere.
func (n Navigation) Redirected() bool { return len(n.Redirects) > 0 }

// PrincipalFunc returns the session as it is right now.
type PrincipalFunc func() Principal

// Navigator tracks the current location and runs every navigation through
// the guard, following redirects until a route is allowed.
type Navigator struct {
	mu        sync.Mutex
	guard     *Guard
	principal PrincipalFunc
	logger    *log.Logger
	maxHops   int
	current   string
	history   []string
	listeners []func(Navigation)
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithNavigatorLogger sets the logger.
func WithNavigatorLogger(l *log.Logger) NavigatorOption {
	return func(n *Navigator) { n.logger = l }
}

// WithMaxHops overrides DefaultMaxHops.
func WithMaxHops(hops int) NavigatorOption {
	return func(n *Navigator) {
		if hops > 0 {
			n.maxHops = hops
		}
	}
}

// NewNavigator creates a navigator positioned nowhere.
func NewNavigator(guard *Guard, principal PrincipalFunc, opts ...NavigatorOption) *Navigator {
	n := &Navigator{guard: guard, principal: principal, maxHops: DefaultMaxHops}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = log.OrDefault(n.logger).WithComponent("router")
	return n
}

// Guard returns the navigator's guard.
func (n *Navigator) Guard() *Guard { return n.guard }

// Current returns the current path, or "" before the first navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// History returns the visited paths, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

// OnNavigate registers fn to run after each completed navigation.
func (n *Navigator) OnNavigate(fn func(Navigation)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Resolve runs dest through the guard without moving.
func (n *Navigator) Resolve(dest string) (Navigation, error) {
	var p Principal
	if n.principal != nil {
		p = n.principal()
	}
	nav := Navigation{Requested: Normalize(dest)}
	target := nav.Requested
	for hop := 0; ; hop++ {
		if hop > n.maxHops {
			return nav, errors.Newf(errors.ErrCodeRouteLoop,
				"navigation to %s did not settle after %d redirects", nav.Requested, n.maxHops).
				WithSuggestion("Check the landing and fallback routes of the access policy")
		}
		d := n.guard.Decide(target, p)
		if d.Action == Allow {
			nav.To = target
			nav.Route = d.Route
			return nav, nil
		}
		nav.Redirects = append(nav.Redirects, d)
		target = Normalize(d.Target)
	}
}

// Navigate moves to dest or wherever the guard redirects it.
func (n *Navigator) Navigate(dest string) (Navigation, error) {
	nav, err := n.Resolve(dest)
	if err != nil {
		n.logger.WithError(err).Error("navigation aborted", "requested", nav.Requested)
		return nav, err
	}

	n.mu.Lock()
	nav.From = n.current
	n.current = nav.To
	n.history = append(n.history, nav.To)
	listeners := append([](func(Navigation))(nil), n.listeners...)
	n.mu.Unlock()

	if nav.Redirected() {
		last := nav.Redirects[len(nav.Redirects)-1]
		n.logger.Debug("navigation redirected", "requested", nav.Requested, "to", nav.To, "reason", string(last.Reason))
	}
	for _, fn := range listeners {
		fn(nav)
	}
	return nav, nil
}

// Redirect navigates to dest and only logs failures. It is meant for
// callbacks that have no caller to report to, like the API client's 401
// handler.
func (n *Navigator) Redirect(dest string) {
	_, _ = n.Navigate(dest)
}

// Reevaluate re-runs the current location through the guard, for example
// after the session changed.
func (n *Navigator) Reevaluate() (Navigation, error) {
	cur := n.Current()
	if cur == "" {
		return Navigation{}, nil
	}
	return n.Navigate(cur)
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vulnark/internal/authz"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/router"
	"github.com/felixgeelhaar/vulnark/internal/session"
)

func newRouteCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "route",
		Short:   "Inspect the console routes and the route guard",
		GroupID: groupTools,
		Long: `Show which pages exist and what the route guard does with them, either for
the current session or for a hypothetical one.

Examples:
  vulnark route list
  vulnark route list --role USER
  vulnark route check /users --role ANALYST
  vulnark route check / --anonymous`,
	}
	c.AddCommand(newRouteListCommand(), newRouteCheckCommand())
	return c
}

// whatIf selects the principal the route commands evaluate against.
type whatIf struct {
	role      string
	anonymous bool
	tokenOnly bool
}

func (w *whatIf) bind(c *cobra.Command) {
	c.Flags().StringVar(&w.role, "role", "", "evaluate for a logged-in user with this role")
	c.Flags().BoolVar(&w.anonymous, "anonymous", false, "evaluate for a visitor without a session")
	c.Flags().BoolVar(&w.tokenOnly, "token-only", false, "evaluate for a saved token whose profile is not loaded yet")
	c.MarkFlagsMutuallyExclusive("role", "anonymous", "token-only")
}

func (w *whatIf) set() bool { return w.role != "" || w.anonymous || w.tokenOnly }

func (w *whatIf) principal() (session.Snapshot, error) {
	switch {
	case w.anonymous:
		return session.Snapshot{}, nil
	case w.tokenOnly:
		return session.Snapshot{Token: "what-if"}, nil
	}
	role, err := authz.ParseRole(w.role)
	if err != nil {
		return session.Snapshot{}, cerrors.Wrap(cerrors.ErrCodeInputInvalid, "invalid --role", err)
	}
	return session.Snapshot{Token: "what-if", User: &authz.UserProfile{Username: "what-if", Role: role}}, nil
}

// routeNavigator returns a navigator for the hypothetical principal, or the
// wired one for the current session.
func routeNavigator(cmd *cobra.Command, w *whatIf) (*router.Navigator, session.Snapshot, func(), error) {
	if w.set() {
		p, err := w.principal()
		if err != nil {
			return nil, p, nil, err
		}
		nav := router.NewNavigator(router.NewGuard(nil, nil), func() router.Principal { return p })
		return nav, p, func() {}, nil
	}

	a, err := newApp(cmd)
	if err != nil {
		return nil, session.Snapshot{}, nil, err
	}
	if err := a.verify(cmd.Context()); err != nil {
		a.logger.WithError(err).Debug("evaluating routes without the saved session")
	}
	return a.nav, a.store.Snapshot(), a.close, nil
}

func describe(p session.Snapshot) string {
	switch p.State() {
	case session.StateAnonymous:
		return "anonymous"
	case session.StateTokenOnly:
		return "token only (profile not loaded)"
	}
	return p.User.Username + " (" + p.User.Role.Label() + ")"
}

type routeRow struct {
	Path     string `json:"path" yaml:"path"`
	Title    string `json:"title" yaml:"title"`
	Access   string `json:"access" yaml:"access"`
	Decision string `json:"decision" yaml:"decision"`
	Target   string `json:"target,omitempty" yaml:"target,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func access(r router.Route) string {
	switch {
	case len(r.RequiredRoles) > 0:
		roles := make([]string, len(r.RequiredRoles))
		for i, role := range r.RequiredRoles {
			roles[i] = string(role)
		}
		return strings.Join(roles, ",")
	case r.RequiresAdmin:
		return "admin"
	case r.RequiresAuth:
		return "login"
	}
	return "public"
}

type routeTable []routeRow

func (t routeTable) Header() []string {
	return []string{"Path", "Title", "Access", "Decision"}
}

func (t routeTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		decision := r.Decision
		if r.Target != "" {
			decision += " → " + r.Target + " (" + r.Reason + ")"
		}
		rows[i] = []string{r.Path, r.Title, r.Access, decision}
	}
	return rows
}

func newRouteListCommand() *cobra.Command {
	var (
		w   whatIf
		all bool
	)
	c := &cobra.Command{
		Use:   "list",
		Short: "List the routes and the guard's decision for each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			nav, p, done, err := routeNavigator(cmd, &w)
			if err != nil {
				return err
			}
			defer done()

			guard := nav.Guard()
			routes := guard.Table().Visible(guard, p)
			if all {
				routes = guard.Table().Routes()
			}
			rows := make(routeTable, 0, len(routes))
			for _, r := range routes {
				d := guard.Evaluate(r, p)
				row := routeRow{Path: r.Path, Title: r.Title, Access: access(r), Decision: d.Action.String()}
				if d.Action == router.Redirect {
					row.Target, row.Reason = d.Target, string(d.Reason)
				}
				rows = append(rows, row)
			}

			f, err := cmdCtx.Formatter(cmd)
			if err != nil {
				return err
			}
			if cmdCtx.Structured() {
				return f.Format([]routeRow(rows))
			}
			if !cmdCtx.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\n\n", describe(p))
			}
			return f.Format(rows)
		},
	}
	w.bind(c)
	c.Flags().BoolVar(&all, "all", false, "include routes hidden from the menu or not open to the session")
	return c
}

type checkOutput struct {
	Requested string   `json:"requested" yaml:"requested"`
	To        string   `json:"to" yaml:"to"`
	Title     string   `json:"title" yaml:"title"`
	Hops      []string `json:"hops,omitempty" yaml:"hops,omitempty"`
}

func newRouteCheckCommand() *cobra.Command {
	var w whatIf
	c := &cobra.Command{
		Use:   "check PATH",
		Short: "Show where a navigation to PATH ends up",
		Long: `Run PATH through the route guard the way the console does, following
redirects, and print every hop. Nothing is sent to the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			nav, p, done, err := routeNavigator(cmd, &w)
			if err != nil {
				return err
			}
			defer done()

			res, err := nav.Resolve(args[0])
			if err != nil {
				return err
			}
			out := checkOutput{Requested: res.Requested, To: res.To, Title: res.Route.Title}
			for _, d := range res.Redirects {
				out.Hops = append(out.Hops, d.Target+" ("+string(d.Reason)+")")
			}

			if cmdCtx.Structured() {
				f, err := cmdCtx.Formatter(cmd)
				if err != nil {
					return err
				}
				return f.Format(out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\n", describe(p))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out.Requested)
			for _, hop := range out.Hops {
				fmt.Fprintf(cmd.OutOrStdout(), "  → %s\n", hop)
			}
			if !res.Redirected() {
				fmt.Fprintf(cmd.OutOrStdout(), "  allowed: %s\n", out.Title)
			}
			return nil
		},
	}
	w.bind(c)
	return c
}

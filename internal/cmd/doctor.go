package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/health"
)

func newDoctorCommand() *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{
		Use:     "doctor",
		Short:   "Check configuration, session storage, session and server",
		GroupID: groupTools,
		Long: `Run diagnostics and report what needs attention:

  • config    the configuration loads and names a usable server origin
  • storage   the session file is private to you
  • session   a session exists and its token has not expired
  • api       the server answers and accepts the session token

Checking the server never ends the session, even when the token is rejected.

Examples:
  vulnark doctor
  vulnark doctor -o json`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			mgr := health.NewManager().WithTimeout(timeout)
			mgr.AddChecker(health.NewConfigChecker(a.cfg, a.cfgPath))
			mgr.AddChecker(health.NewStorageChecker(a.storage.Path()))
			mgr.AddChecker(health.NewSessionChecker(a.store))
			mgr.AddChecker(health.NewAPIChecker(a.client, a.store.Token))

			reports := mgr.Check(cmd.Context())
			overall := health.OverallStatus(reports)

			if a.cmdCtx.Structured() {
				f, err := a.cmdCtx.Formatter(cmd)
				if err != nil {
					return err
				}
				if err := f.Format(doctorOutput{Status: overall, Checks: reports}); err != nil {
					return err
				}
			} else {
				printReports(cmd.OutOrStdout(), reports, a.cmdCtx.NoColor)
			}

			if overall == health.StatusUnhealthy {
				return cerrors.New(cerrors.ErrCodeAPIRequest, "the console cannot work until the failed checks are fixed")
			}
			return nil
		}),
	}
	c.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "time limit per check")
	return c
}

type doctorOutput struct {
	Status health.Status   `json:"status" yaml:"status"`
	Checks []health.Report `json:"checks" yaml:"checks"`
}

var statusMarks = map[health.Status]struct {
	mark  string
	color *color.Color
}{
	health.StatusHealthy:   {"✓", color.New(color.FgGreen)},
	health.StatusDegraded:  {"⚠", color.New(color.FgYellow)},
	health.StatusUnhealthy: {"✗", color.New(color.FgRed, color.Bold)},
}

func printReports(w io.Writer, reports []health.Report, noColor bool) {
	for _, r := range reports {
		m := statusMarks[r.Status]
		mark := m.mark
		if !noColor && !color.NoColor && m.color != nil {
			mark = m.color.Sprint(mark)
		}
		fmt.Fprintf(w, "  %s %-8s %s\n", mark, r.Name, r.Message)
		if r.Hint != "" {
			fmt.Fprintf(w, "             → %s\n", r.Hint)
		}
	}

	fmt.Fprintln(w)
	switch health.OverallStatus(reports) {
	case health.StatusHealthy:
		fmt.Fprintln(w, "Everything looks good.")
	case health.StatusDegraded:
		fmt.Fprintln(w, "The console works, with the warnings above.")
	default:
		fmt.Fprintln(w, "The console cannot work until the failed checks are fixed.")
	}
}

package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vulnark/internal/api"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/router"
	"github.com/felixgeelhaar/vulnark/internal/tui"
)

// pageCommand shows one console page. The route guard runs first, so a
// page the session may not open never reaches the server.
func pageCommand(use, short, path string) *cobra.Command {
	var size int
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return showPage(cmd, a, path, size)
		}),
	}
	c.Flags().IntVar(&size, "size", 0, "rows to fetch (default ui.page_size)")
	return c
}

func showPage(cmd *cobra.Command, a *app, path string, size int) error {
	nav, err := a.enter(cmd.Context(), path)
	if err != nil {
		return err
	}
	p, err := a.loader(size).Load(cmd.Context(), nav.To)
	if err != nil {
		return err
	}
	p.Title = nav.Route.Title
	return a.renderPage(cmd, p)
}

// newPageCommands returns the top-level commands that map one to one onto
// console pages.
func newPageCommands() []*cobra.Command {
	cmds := []*cobra.Command{
		pageCommand("vulnerabilities", "Vulnerabilities by severity", router.PathVulnerabilities),
		pageCommand("discovery", "Recently discovered assets", router.PathAssetDiscovery),
		pageCommand("dependencies", "Asset distribution", router.PathAssetDependency),
		pageCommand("users", "User accounts (administrators)", router.PathUsers),
		pageCommand("agents", "Scan agents (administrators)", router.PathAgents),
		newOpenCommand(),
	}
	for _, c := range cmds {
		c.GroupID = groupPages
	}
	return cmds
}

func newOpenCommand() *cobra.Command {
	var size int
	c := &cobra.Command{
		Use:   "open [PATH]",
		Short: "Open a console page by path",
		Long: `Open any console page by its path, the way a browser address bar would.
Without a path the start page of your role is opened.

Examples:
  vulnark open
  vulnark open /baseline-scans
  vulnark open /admin/scan-tools`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			path := router.PathRoot
			if len(args) == 1 {
				path = args[0]
			}
			return showPage(cmd, a, path, size)
		}),
	}
	c.Flags().IntVar(&size, "size", 0, "rows to fetch (default ui.page_size)")
	return c
}

func newDashboardCommand() *cobra.Command {
	var (
		days       int
		activities int
	)
	c := &cobra.Command{
		Use:     "dashboard",
		Short:   "Headline numbers, distributions and recent activity",
		GroupID: groupPages,
		Args:    cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.page(cmd, router.PathDashboard); err != nil {
				return err
			}
			ov, err := a.client.Dashboard().Overview(cmd.Context(), days, activities)
			if err != nil {
				return err
			}
			if a.cmdCtx.Structured() {
				return a.render(cmd, ov, nil)
			}

			f, err := a.cmdCtx.Formatter(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := f.Format(tui.StatsPage(ov.Stats)); err != nil {
				return err
			}
			if err := section(w, f, "Vulnerabilities by severity", tui.SharePage("Severity", ov.Severity)); err != nil {
				return err
			}
			if err := section(w, f, "Assets by status", tui.SharePage("Status", ov.AssetStatus)); err != nil {
				return err
			}
			return section(w, f, "Trend (last "+strconv.Itoa(days)+" days)", tui.TrendPage(ov.Trend))
		}),
	}
	c.Flags().IntVar(&days, "days", 30, "trend window in days")
	c.Flags().IntVar(&activities, "activities", 10, "recent activities to fetch")
	return c
}

func newBaselineCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "baseline",
		Short:   "Baseline compliance checks, tasks and rules",
		GroupID: groupPages,
	}

	results := &cobra.Command{
		Use:   "results TASK_ID",
		Short: "Check results of a baseline task (administrators)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.page(cmd, router.PathBaselineTasks); err != nil {
				return err
			}
			res, err := a.client.Baseline().TaskResults(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(cmd, res, tui.BaselineResultPage(res))
		}),
	}

	c.AddCommand(
		pageCommand("check", "Asset compliance overview", router.PathBaselineCheck),
		pageCommand("tasks", "Baseline tasks (administrators)", router.PathBaselineTasks),
		pageCommand("rules", "Baseline rules (administrators)", router.PathBaselineRules),
		results,
	)
	return c
}

func newScansCommand() *cobra.Command {
	var size int
	c := &cobra.Command{
		Use:     "scans",
		Short:   "Baseline scans",
		GroupID: groupPages,
		Args:    cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return showPage(cmd, a, router.PathBaselineScans, size)
		}),
	}
	c.Flags().IntVar(&size, "size", 0, "rows to fetch (default ui.page_size)")

	get := &cobra.Command{
		Use:   "get SCAN_ID",
		Short: "Show one scan",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.page(cmd, router.PathBaselineScans); err != nil {
				return err
			}
			scan, err := a.client.BaselineScans().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			view, err := fields(scan)
			if err != nil {
				return err
			}
			return a.render(cmd, scan, view)
		}),
	}

	var failed, highRisk bool
	results := &cobra.Command{
		Use:   "results SCAN_ID",
		Short: "Check results of a scan",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.page(cmd, router.PathBaselineScans); err != nil {
				return err
			}
			svc := a.client.BaselineScans()
			fetch := svc.Results
			switch {
			case highRisk:
				fetch = svc.HighRiskFailedChecks
			case failed:
				fetch = svc.FailedChecks
			}
			res, err := fetch(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, res, tui.ScanResultPage(res))
		}),
	}
	results.Flags().BoolVar(&failed, "failed", false, "only failed checks")
	results.Flags().BoolVar(&highRisk, "high-risk", false, "only failed checks of high severity")
	results.MarkFlagsMutuallyExclusive("failed", "high-risk")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Scan statistics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.page(cmd, router.PathBaselineScans); err != nil {
				return err
			}
			st, err := a.client.BaselineScans().Statistics(cmd.Context())
			if err != nil {
				return err
			}
			rows := detail{
				{"Total", strconv.FormatInt(st.TotalScans, 10)},
				{"Completed", strconv.FormatInt(st.CompletedScans, 10)},
				{"Running", strconv.FormatInt(st.RunningScans, 10)},
				{"Failed", strconv.FormatInt(st.FailedScans, 10)},
				{"Average score", strconv.FormatFloat(st.AverageComplianceScore, 'f', 1, 64)},
			}
			return a.render(cmd, st, rows)
		}),
	}

	c.AddCommand(get, results, stats)
	return c
}

func newToolsCommand() *cobra.Command {
	var size int
	c := &cobra.Command{
		Use:     "tools",
		Short:   "Scan tools",
		GroupID: groupPages,
		Args:    cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return showPage(cmd, a, router.PathScanTools, size)
		}),
	}
	c.Flags().IntVar(&size, "size", 0, "rows to fetch (default ui.page_size)")

	status := &cobra.Command{
		Use:   "status NAME",
		Short: "Live status of one tool",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.page(cmd, router.PathScanTools); err != nil {
				return err
			}
			st, err := a.client.ScanTools().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := fields(st)
			if err != nil {
				return err
			}
			return a.render(cmd, st, view)
		}),
	}

	c.AddCommand(
		status,
		pageCommand("admin", "Scan tool administration (ADMIN only)", router.PathAdminScanTools),
	)
	return c
}

func newLogsCommand() *cobra.Command {
	var (
		level   string
		keyword string
		size    int
	)
	c := &cobra.Command{
		Use:     "logs TASK_ID",
		Short:   "Log of a scan task",
		GroupID: groupPages,
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.page(cmd, router.PathScanLogs); err != nil {
				return err
			}
			filter := api.ScanLogFilter{Level: strings.ToUpper(level), Keyword: keyword, Size: size}
			lines, err := a.client.ScanLogs().List(cmd.Context(), taskID, filter)
			if err != nil {
				return err
			}
			if a.cmdCtx.Structured() {
				return a.render(cmd, lines, nil)
			}
			p := tui.LogPage(lines)
			p.Message = "No log lines."
			return a.renderPage(cmd, p)
		}),
	}
	c.Flags().StringVar(&level, "level", "", "only lines of this level (DEBUG, INFO, WARN, ERROR)")
	c.Flags().StringVar(&keyword, "grep", "", "only lines containing this text")
	c.Flags().IntVar(&size, "size", 0, "maximum lines")
	return c
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, cerrors.Newf(cerrors.ErrCodeInputInvalid, "invalid ID %q: must be a positive number", s)
	}
	return id, nil
}

// Package cmd is the vulnark command line. Every console page is a
// subcommand that goes through the route guard before it calls the API, and
// "vulnark console" opens the same pages interactively.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the complete command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "vulnark",
		Short: "Terminal console for the vulnerability management platform",
		Long: `vulnark is a terminal console for the vulnerability management platform.

It keeps one login session on disk, checks every page against your role
before contacting the server, and prints listings as text, tables, JSON or
YAML. Run "vulnark console" for the interactive interface.

Configuration is read from ~/.vulnark/config.yaml (or --config), a .env file
and VULNARK_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ~/.vulnark/config.yaml or .vulnark/config.yaml in the project)")
	flags.StringP("format", "o", "text", "output format: text, table, json, yaml")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "", "log level: debug, info, warn, error (overrides logging.level)")
	flags.String("origin", "", "server origin, e.g. https://vulnark.example.com (overrides server.origin)")
	flags.BoolP("quiet", "q", false, "suppress notices on stderr")

	root.AddGroup(
		&cobra.Group{ID: groupPages, Title: "Console pages:"},
		&cobra.Group{ID: groupSession, Title: "Session:"},
		&cobra.Group{ID: groupTools, Title: "Tools:"},
	)

	root.AddCommand(
		newAuthCommand(),
		newConsoleCommand(),
		newDashboardCommand(),
		newAssetsCommand(),
		newScansCommand(),
		newLogsCommand(),
		newToolsCommand(),
		newBaselineCommand(),
		newConfigCommand(),
		newRouteCommand(),
		newAPICommand(),
		newDoctorCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)
	root.AddCommand(newPageCommands()...)
	return root
}

const (
	groupPages   = "pages"
	groupSession = "session"
	groupTools   = "tools"
)

// Execute runs the command line with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vulnark/internal/ux"
)

// CommandContext holds the persistent flags of one invocation. Commands
// read it instead of package globals so the tree can be built and run
// repeatedly, which the tests rely on.
type CommandContext struct {
	ConfigPath string
	Format     string
	NoColor    bool
	LogLevel   string
	Origin     string
	Quiet      bool
}

// NewCommandContext extracts the persistent flags from cmd:
//
//	func runSomething(cmd *cobra.Command, args []string) error {
//		cmdCtx, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		...
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}
	origin, err := flags.GetString("origin")
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}

	if !slices.Contains(ux.Formats, format) {
		return nil, fmt.Errorf("invalid --format %q (valid: %v)", format, ux.Formats)
	}

	return &CommandContext{
		ConfigPath: configPath,
		Format:     format,
		NoColor:    noColor,
		LogLevel:   logLevel,
		Origin:     origin,
		Quiet:      quiet,
	}, nil
}

// Structured reports whether the output is meant for machines.
func (c *CommandContext) Structured() bool {
	return c.Format == "json" || c.Format == "yaml"
}

// Formatter returns the output formatter writing to cmd's stdout.
func (c *CommandContext) Formatter(cmd *cobra.Command) (ux.Formatter, error) {
	return ux.NewFormatter(c.Format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: c.NoColor,
	})
}

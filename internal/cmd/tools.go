package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vulnark/internal/contract"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/version"
)

func newAPICommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "api",
		Short:   "Inspect the REST API description",
		GroupID: groupTools,
	}

	endpoints := &cobra.Command{
		Use:   "endpoints",
		Short: "List the documented endpoints",
		Long: `List the endpoints of the bundled OpenAPI description. With
debug.validate_requests on, requests are checked against it before they are
sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			v, err := contract.Default()
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeAPIContract, "cannot load the API description", err)
			}
			eps := v.Endpoints()

			f, err := cmdCtx.Formatter(cmd)
			if err != nil {
				return err
			}
			if cmdCtx.Structured() {
				return f.Format(eps)
			}
			rows := make(endpointTable, len(eps))
			for i, ep := range eps {
				rows[i] = []string{ep.Method, ep.Path, ep.OperationID}
			}
			return f.Format(rows)
		},
	}
	c.AddCommand(endpoints)
	return c
}

type endpointTable [][]string

func (t endpointTable) Header() []string { return []string{"Method", "Path", "Operation"} }
func (t endpointTable) Rows() [][]string { return t }

func newVersionCommand() *cobra.Command {
	var verbose bool
	c := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: groupTools,
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			info := version.GetInfo()
			w := cmd.OutOrStdout()

			if cmdCtx.Structured() {
				f, err := cmdCtx.Formatter(cmd)
				if err != nil {
					return err
				}
				return f.Format(info)
			}
			if verbose {
				_, err := fmt.Fprintln(w, info.String())
				return err
			}
			_, err = fmt.Fprintf(w, "vulnark %s (%s)\n", info.Version, info.ShortCommit())
			return err
		},
	}
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	return c
}

func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "completion [bash|zsh|fish|powershell]",
		Short:   "Generate shell completion script",
		GroupID: groupTools,
		Long: `To load completions:

Bash:
  $ source <(vulnark completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ vulnark completion bash > /etc/bash_completion.d/vulnark
  # macOS:
  $ vulnark completion bash > $(brew --prefix)/etc/bash_completion.d/vulnark

Zsh:
  $ vulnark completion zsh > "${fpath[1]}/_vulnark"

Fish:
  $ vulnark completion fish > ~/.config/fish/completions/vulnark.fish

PowerShell:
  PS> vulnark completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}

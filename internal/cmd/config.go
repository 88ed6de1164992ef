package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/vulnark/internal/config"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/ux"
)

func newConfigCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "config",
		Short:   "View or edit the configuration",
		GroupID: groupTools,
		Long: `Manage the configuration file, by default ~/.vulnark/config.yaml. A
.vulnark/config.yaml in the current project takes precedence, and --config
names a file explicitly.

Environment variables (VULNARK_SERVER_ORIGIN, VULNARK_UI_LOCALE, ...) and a
.env file override the file when commands run; "config view" shows the
result, "config get" and "config set" work on the file itself.

Examples:
  vulnark config init
  vulnark config set server.origin https://vulnark.example.com
  vulnark config get ui.page_size
  vulnark config view -o json`,
	}
	c.AddCommand(
		newConfigInitCommand(),
		newConfigViewCommand(),
		newConfigGetCommand(),
		newConfigSetCommand(),
		newConfigKeysCommand(),
		newConfigPathCommand(),
		newConfigEditCommand(),
	)
	return c
}

// configFile is the file the config subcommands read and write.
func configFile(cmd *cobra.Command) (string, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return "", err
	}
	if cmdCtx.ConfigPath != "" {
		return cmdCtx.ConfigPath, nil
	}
	cwd, _ := os.Getwd()
	if path, ok := config.Discover(cwd); ok {
		return path, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeConfigNotFound, "cannot locate the configuration file", err)
	}
	return path, nil
}

func loadConfigFile(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := configFile(cmd)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", cerrors.Wrap(cerrors.ErrCodeConfigInvalid, "cannot read "+path, err)
	}
	return cfg, path, nil
}

func newConfigInitCommand() *cobra.Command {
	var (
		force  bool
		origin string
	)
	c := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configFile(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return cerrors.Newf(cerrors.ErrCodeInputInvalid, "%s already exists", path).
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.Default()
			if origin != "" {
				if err := cfg.Set("server.origin", origin); err != nil {
					return cerrors.Wrap(cerrors.ErrCodeConfigOrigin, "invalid --server", err)
				}
			}
			if err := cfg.Save(path); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeFileWriteFailed, "cannot write the configuration", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", successMark, path)
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	c.Flags().StringVar(&origin, "server", "", "server origin to write into the file")
	return c
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		Long: `Show the configuration commands run with: the file, the .env file and the
environment combined. The storage passphrase is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			path, err := configFile(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(config.LoadOptions{Path: cmdCtx.ConfigPath})
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeConfigInvalid, "cannot load configuration", err)
			}
			cfg = cfg.Redacted()

			if cmdCtx.Structured() {
				f, err := cmdCtx.Formatter(cmd)
				if err != nil {
					return err
				}
				return f.Format(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# %s\n", path)
			_, err = w.Write(data)
			return err
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one value from the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfigFile(cmd)
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeInputInvalid, "cannot get "+args[0], err).
					WithSuggestion("Run 'vulnark config keys' to list the keys")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one value in the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfigFile(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeConfigInvalid, "cannot set "+args[0], err).
					WithSuggestion("Run 'vulnark config keys' to list the keys")
			}
			if err := cfg.Save(path); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeFileWriteFailed, "cannot write the configuration", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s\n", successMark, args[0], args[1])
			return nil
		},
	}
}

func newConfigKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfigFile(cmd)
			if err != nil {
				return err
			}
			rows := detail{}
			for _, k := range cfg.Keys() {
				v, _ := cfg.Get(k)
				if k == "session.passphrase" && v != "" {
					v = "********"
				}
				rows = append(rows, []string{k, v})
			}
			f, err := cmdFormatter(cmd)
			if err != nil {
				return err
			}
			return f.Format(rows)
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configFile(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func newConfigEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the file in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfigFile(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := cfg.Save(path); err != nil {
					return cerrors.Wrap(cerrors.ErrCodeFileWriteFailed, "cannot write the configuration", err)
				}
			}

			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			edit := exec.CommandContext(cmd.Context(), editor, path)
			edit.Stdin = cmd.InOrStdin()
			edit.Stdout = cmd.OutOrStdout()
			edit.Stderr = cmd.ErrOrStderr()
			if err := edit.Run(); err != nil {
				return fmt.Errorf("run editor: %w", err)
			}

			edited, err := config.LoadFile(path)
			if err == nil {
				err = edited.Validate()
			}
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeConfigInvalid, "the edited configuration is invalid", err).
					WithSuggestion("Run 'vulnark config edit' again to fix it")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration updated\n", successMark)
			return nil
		},
	}
}

func cmdFormatter(cmd *cobra.Command) (ux.Formatter, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, err
	}
	return cmdCtx.Formatter(cmd)
}

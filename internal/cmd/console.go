package cmd

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/session"
	"github.com/felixgeelhaar/vulnark/internal/tui"
	"github.com/felixgeelhaar/vulnark/internal/ux"
)

func newConsoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "console",
		Short:   "Open the interactive console",
		GroupID: groupSession,
		Long: `Open the full-screen console. The menu lists the pages your role may open
and the console starts on your start page. Server notices appear as toasts.

The console follows the saved session: logging out in another terminal
closes it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !ux.IsTerminal(cmd.OutOrStdout()) {
				return cerrors.New(cerrors.ErrCodeInputInvalid, "the console needs a terminal").
					WithSuggestion("Use the page commands, e.g. 'vulnark dashboard -o json', in scripts")
			}

			notices := notify.NewChannel(16)
			a, err := newApp(cmd, withNotices(notices))
			if err != nil {
				return err
			}
			defer a.close()
			return runConsole(cmd, a, notices.C)
		},
	}
}

func runConsole(cmd *cobra.Command, a *app, notices <-chan notify.Notice) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := a.verify(ctx); err != nil {
		a.logger.WithError(err).Debug("saved session rejected")
	}
	if a.store.State() == session.StateAnonymous {
		creds, err := tui.PromptLogin("")
		if err != nil {
			return err
		}
		if _, err := a.store.Login(ctx, creds); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeSessionLoginFail, "login failed", err)
		}
	}

	go func() {
		if err := a.store.Watch(ctx); err != nil {
			a.logger.WithError(err).Warn("not following session changes")
		}
	}()

	var token string
	err := tui.Run(ctx, tui.Deps{
		Navigator: a.nav,
		Session:   a.store,
		Loader:    a.loader(0),
		Notices:   notices,
		Logout: func() {
			token = a.store.Token()
			a.store.Logout()
		},
		Verify: a.store.CheckSession,
		Theme:  a.cfg.UI.Theme,
		Locale: a.cfg.UI.Locale,
	}, a.store, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))

	switch {
	case errors.Is(err, tui.ErrLoggedOut):
		if token != "" {
			a.remoteLogout(cmd.Context(), token)
		}
		a.say(cmd, "%s %s", successMark, a.text(notify.KeyLoggedOut))
		return nil
	case errors.Is(err, tui.ErrSessionEnded):
		return cerrors.New(cerrors.ErrCodeSessionExpired, "the session ended").
			WithSuggestion("Run 'vulnark auth login' or 'vulnark console' to sign in again")
	}
	return err
}

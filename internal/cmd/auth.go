package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vulnark/internal/api"
	"github.com/felixgeelhaar/vulnark/internal/authz"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/router"
	"github.com/felixgeelhaar/vulnark/internal/session"
	"github.com/felixgeelhaar/vulnark/internal/tui"
)

func newAuthCommand() *cobra.Command {
	authCmd := &cobra.Command{
		Use:     "auth",
		Short:   "Log in, log out and inspect the session",
		GroupID: groupSession,
		Long: `Manage the login session.

The session token is kept in ~/.vulnark/storage.json (see session.storage_path)
and is shared by every vulnark command and the console. Set
VULNARK_STORAGE_PASSPHRASE to encrypt it at rest.

Examples:
  vulnark auth login -u alice
  echo "$PASSWORD" | vulnark auth login -u alice --password-stdin
  vulnark auth whoami
  vulnark auth logout`,
	}

	authCmd.AddCommand(
		newAuthLoginCommand(),
		newAuthLogoutCommand(),
		newAuthWhoamiCommand(),
		newAuthRegisterCommand(),
		newAuthTokenCommand(),
	)
	return authCmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
		force         bool
	)
	c := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Long: `Log in with a username and password. Without flags on a terminal you are
prompted. The password is never written anywhere; only the returned token is
saved.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			if err := a.verify(ctx); err != nil {
				a.logger.WithError(err).Debug("discarding saved session before login")
			}

			// The login page is not reachable while a session exists.
			if nav, err := a.nav.Resolve(router.PathLogin); err == nil && nav.Redirected() && !force {
				user := a.store.Snapshot().User
				name := "the saved session"
				if user != nil {
					name = user.Username
				}
				a.say(cmd, "Already logged in as %s. Use --force to log in again.", name)
				return nil
			}

			creds := session.Credentials{Username: username, Password: password}
			if passwordStdin {
				pw, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				creds.Password = pw
			}
			if creds.Username == "" || creds.Password == "" {
				if !tui.ShouldPrompt(cmd.OutOrStdout()) {
					return cerrors.New(cerrors.ErrCodeInputRequired, "username and password are required").
						WithSuggestion("Pass --username and --password-stdin when not running on a terminal")
				}
				prompted, err := tui.PromptLogin(creds.Username)
				if err != nil {
					return err
				}
				creds = prompted
			}

			if force && a.store.IsAuthenticated() {
				a.logout(ctx)
			}

			snap, err := a.store.Login(ctx, creds)
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeSessionLoginFail, "login failed", err)
			}

			landing, err := a.nav.Navigate(router.PathRoot)
			if err != nil {
				return err
			}
			if a.cmdCtx.Structured() {
				f, err := a.cmdCtx.Formatter(cmd)
				if err != nil {
					return err
				}
				return f.Format(loginOutput{User: *snap.User, Landing: landing.To})
			}
			a.say(cmd, "%s %s: %s (%s)", successMark, a.text(notify.KeyLoggedIn), snap.User.DisplayName(), snap.User.Role.Label())
			a.say(cmd, "Start page: %s", landing.To)
			return nil
		}),
	}
	c.Flags().StringVarP(&username, "username", "u", "", "username")
	c.Flags().StringVarP(&password, "password", "p", "", "password (prefer --password-stdin)")
	c.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	c.Flags().BoolVar(&force, "force", false, "log in again even if a session exists")
	c.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return c
}

const successMark = "✓"

type loginOutput struct {
	User    authz.UserProfile `json:"user" yaml:"user"`
	Landing string            `json:"landing" yaml:"landing"`
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", cerrors.Wrap(cerrors.ErrCodeInputInvalid, "cannot read password from stdin", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Long: `Remove the saved session and tell the server. Logging out always succeeds
locally, even when the server cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if a.logout(cmd.Context()) {
				a.say(cmd, "%s %s", successMark, a.text(notify.KeyLoggedOut))
				return nil
			}
			a.say(cmd, "Not logged in.")
			return nil
		}),
	}
}

func newAuthWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.verify(cmd.Context()); err != nil {
				return err
			}
			snap := a.store.Snapshot()
			if snap.User == nil {
				return cerrors.SessionRequired()
			}
			u := *snap.User
			policy := a.nav.Guard().Policy()
			rows := [][]string{
				{"Username", u.Username},
				{"Name", u.DisplayName()},
				{"Email", orNone(u.Email)},
				{"Role", u.Role.Label()},
				{"Administrator", yesNo(policy.IsAdminTier(u.Role))},
				{"Start page", policy.LandingFor(u.Role)},
				{"Token", session.Fingerprint(snap.Token)},
			}
			return a.render(cmd, u, detail(rows))
		}),
	}
}

func newAuthRegisterCommand() *cobra.Command {
	var (
		req           api.RegisterRequest
		passwordStdin bool
	)
	c := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Register a new account. New accounts get the USER role; an administrator can
change it later. Registering does not log you in.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if passwordStdin {
				pw, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password, req.ConfirmPassword = pw, pw
			}
			if req.Username == "" || req.Password == "" {
				if !tui.ShouldPrompt(cmd.OutOrStdout()) {
					return cerrors.New(cerrors.ErrCodeInputRequired, "username, email and password are required").
						WithSuggestion("Pass --username, --email and --password-stdin")
				}
				prompted, err := tui.PromptRegistration()
				if err != nil {
					return err
				}
				req = prompted
			}
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			if err := req.Validate(); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeInputInvalid, "invalid registration", err)
			}

			if err := a.client.Auth().Register(cmd.Context(), req); err != nil {
				return err
			}
			a.say(cmd, "%s Account %s created. Log in with: vulnark auth login -u %s", successMark, req.Username, req.Username)
			return nil
		}),
	}
	c.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	c.Flags().StringVar(&req.Email, "email", "", "email address")
	c.Flags().StringVar(&req.FullName, "full-name", "", "full name")
	c.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	c.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return c
}

func newAuthTokenCommand() *cobra.Command {
	var show bool
	c := &cobra.Command{
		Use:   "token",
		Short: "Inspect the saved token",
		Long: `Show what the saved token says about itself: its fingerprint and, for JWTs,
subject and expiry. The claims are decoded without verification and are only
informational. Use --show to print the raw token for scripts.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			token := a.store.Token()
			if token == "" {
				return cerrors.SessionRequired()
			}
			if show {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			}

			info := a.store.TokenInfo()
			rows := [][]string{
				{"Fingerprint", info.Fingerprint},
				{"Format", map[bool]string{true: "JWT", false: "opaque"}[info.JWT]},
			}
			if info.JWT {
				rows = append(rows,
					[]string{"Subject", orNone(info.Subject)},
					[]string{"Issuer", orNone(info.Issuer)},
					[]string{"Issued", formatTime(info.IssuedAt)},
					[]string{"Expires", formatTime(info.ExpiresAt)},
				)
				if info.Expired(time.Now()) {
					rows = append(rows, []string{"Status", "expired"})
				}
			}
			return a.render(cmd, info, detail(rows))
		}),
	}
	c.Flags().BoolVar(&show, "show", false, "print the raw token")
	return c
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

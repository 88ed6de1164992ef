package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vulnark/internal/api"
	"github.com/felixgeelhaar/vulnark/internal/config"
	"github.com/felixgeelhaar/vulnark/internal/contract"
	cerrors "github.com/felixgeelhaar/vulnark/internal/errors"
	"github.com/felixgeelhaar/vulnark/internal/log"
	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/router"
	"github.com/felixgeelhaar/vulnark/internal/session"
	"github.com/felixgeelhaar/vulnark/internal/tui"
	"github.com/felixgeelhaar/vulnark/internal/ux"
	"github.com/felixgeelhaar/vulnark/internal/version"
)

// app is the client wired for one invocation: configuration, logger,
// session store, API client and navigator. The store is the single owner
// of session state; the client reads the token from it and the navigator
// reads the principal from it.
type app struct {
	cmdCtx  *CommandContext
	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
	logFile io.Closer

	storage *session.FileStorage
	store   *session.Store
	client  *api.Client
	nav     *router.Navigator

	// extra receives notices in addition to the printer, e.g. the console.
	extra notify.Notifier
}

type appOption func(*app)

// withNotices forwards every notice to n as well.
func withNotices(n notify.Notifier) appOption {
	return func(a *app) { a.extra = n }
}

// newApp reads the configuration once and wires the client for cmd.
func newApp(cmd *cobra.Command, opts ...appOption) (*app, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{cmdCtx: cmdCtx}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.loadConfig(); err != nil {
		return nil, err
	}
	if err := a.setupLogger(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	if err := a.setupSession(); err != nil {
		a.close()
		return nil, err
	}
	if err := a.setupClient(cmd.ErrOrStderr()); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) loadConfig() error {
	path := a.cmdCtx.ConfigPath
	if path == "" {
		cwd, _ := os.Getwd()
		path, _ = config.Discover(cwd)
	}

	cfg, err := config.Load(config.LoadOptions{Path: a.cmdCtx.ConfigPath})
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeConfigInvalid, "cannot load configuration", err).
			WithSuggestion("Check the file with 'vulnark config view' or recreate it with 'vulnark config init --force'")
	}
	if a.cmdCtx.Origin != "" {
		cfg.Server.Origin = a.cmdCtx.Origin
		if err := cfg.Validate(); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeConfigOrigin, "invalid --origin", err)
		}
	}
	if a.cmdCtx.LogLevel != "" {
		if _, err := log.LookupLevel(a.cmdCtx.LogLevel); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInputInvalid, "invalid --log-level", err)
		}
		cfg.Logging.Level = a.cmdCtx.LogLevel
	}

	a.cfg = cfg
	a.cfgPath = path
	return nil
}

func (a *app) setupLogger(stderr io.Writer) error {
	logCfg := log.Config{
		Level:          log.ParseLevel(a.cfg.Logging.Level),
		Format:         log.ParseFormat(a.cfg.Logging.Format),
		Output:         log.NewOutput(stderr),
		AddSource:      a.cfg.Debug.Enabled,
		ServiceName:    "vulnark",
		ServiceVersion: version.Version,
	}
	if a.cfg.Logging.File != "" {
		out, f, err := log.OutputFile(a.cfg.Logging.File)
		if err != nil {
			return cerrors.Wrap(cerrors.ErrCodeFileWriteFailed, "cannot open log file", err)
		}
		logCfg.Output = out
		a.logFile = f
	}
	if a.cfg.Debug.Enabled {
		logCfg.Level = log.LevelDebug
	}

	a.logger = log.New(logCfg)
	log.SetDefaultLogger(a.logger)
	a.logger.Debug("configuration loaded", "file", a.cfgPath, "api", a.cfg.APIBaseURL())
	return nil
}

func (a *app) setupSession() error {
	path, err := a.cfg.StoragePath()
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeSessionStorage, "cannot locate session storage", err)
	}

	var opts []session.FileOption
	if a.cfg.Session.Passphrase != "" {
		sealer, err := session.NewSealer(a.cfg.Session.Passphrase)
		if err != nil {
			return cerrors.Wrap(cerrors.ErrCodeSessionStorage, "cannot set up storage encryption", err)
		}
		opts = append(opts, session.WithSealer(sealer))
	}
	a.storage = session.NewFileStorage(path, opts...)

	store, err := session.NewStore(nil, a.storage, session.WithLogger(a.logger))
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeSessionStorage, "cannot restore the saved session", err).
			WithSuggestion("Check that " + path + " is readable and valid JSON, or remove it and log in again")
	}
	a.store = store
	return nil
}

func (a *app) setupClient(stderr io.Writer) error {
	notifier := notify.Logged(a.logger)
	if a.cfg.Features.Notifications && !a.cmdCtx.Quiet && !a.cmdCtx.Structured() {
		notifier = notify.Multi(notify.NewPrinter(stderr, a.cmdCtx.NoColor), notifier)
	}
	if a.extra != nil {
		notifier = notify.Multi(notifier, a.extra)
	}

	opts := []api.Option{
		api.WithTokenSource(api.TokenFunc(a.store.Token)),
		api.WithNotifier(notifier, a.cfg.UI.Locale),
		api.WithLogger(a.logger),
		api.WithTimeout(a.cfg.Timeouts.APIRequest.Std()),
		api.WithUploadTimeout(a.cfg.Timeouts.FileUpload.Std()),
		api.WithUnauthorized(func(_ context.Context, token string) {
			if a.store.Expire(token) && a.nav != nil {
				a.nav.Redirect(router.PathLogin)
			}
		}),
	}
	if a.cfg.Debug.ValidateRequests {
		v, err := contract.Default()
		if err != nil {
			return cerrors.Wrap(cerrors.ErrCodeAPIContract, "cannot load the API description", err)
		}
		opts = append(opts, api.WithValidator(v))
	}

	client, err := api.New(a.cfg.APIBaseURL(), opts...)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeConfigOrigin, "invalid API address", err)
	}
	a.client = client
	a.store.SetAuthenticator(client.Auth())

	a.nav = router.NewNavigator(router.NewGuard(nil, nil),
		func() router.Principal { return a.store.Snapshot() },
		router.WithNavigatorLogger(a.logger),
	)
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// enter navigates to path as the console would. A restored token is
// verified first. A redirect away from the requested page is an error, except
// for the root path whose whole purpose is to land somewhere.
func (a *app) enter(ctx context.Context, path string) (router.Navigation, error) {
	if err := a.verify(ctx); err != nil {
		return router.Navigation{}, err
	}

	nav, err := a.nav.Navigate(path)
	if err != nil {
		return nav, err
	}
	if !nav.Redirected() {
		return nav, nil
	}

	first := nav.Redirects[0]
	switch first.Reason {
	case router.ReasonLanding:
		return nav, nil
	case router.ReasonLoginRequired:
		return nav, cerrors.SessionRequired()
	}
	return nav, cerrors.Redirected(nav.Requested, nav.To, string(first.Reason))
}

// verify turns a restored token into an authenticated session. It fails
// closed: when the check fails the session is gone.
func (a *app) verify(ctx context.Context) error {
	if a.store.State() != session.StateTokenOnly {
		return nil
	}
	err := a.store.CheckSession(ctx)
	if err == nil || errors.Is(err, session.ErrStaleResponse) {
		return nil
	}
	if api.IsKind(err, api.KindAuthentication) {
		return cerrors.New(cerrors.ErrCodeSessionExpired, "the saved session is no longer valid").
			WithSuggestion("Run 'vulnark auth login' to sign in again")
	}
	return cerrors.Wrap(cerrors.ErrCodeSessionExpired, "could not verify the saved session", err).
		WithSuggestion("Run 'vulnark auth login' once the server is reachable")
}

// logout ends the session locally, then tells the server. The local part
// always succeeds.
func (a *app) logout(ctx context.Context) bool {
	token := a.store.Token()
	a.store.Logout()
	if token == "" {
		return false
	}
	a.remoteLogout(ctx, token)
	return true
}

func (a *app) remoteLogout(ctx context.Context, token string) {
	if err := a.client.Auth().Logout(ctx, token); err != nil {
		a.logger.WithError(err).Debug("server logout failed")
	}
}

// loader returns the page loader the CLI and the console share.
func (a *app) loader(size int) tui.APILoader {
	if size <= 0 {
		size = a.cfg.UI.PageSize
	}
	return tui.APILoader{Client: a.client, PageSize: size}
}

// render prints data as JSON or YAML, or view for humans.
func (a *app) render(cmd *cobra.Command, data any, view ux.Tabular) error {
	f, err := a.cmdCtx.Formatter(cmd)
	if err != nil {
		return err
	}
	if a.cmdCtx.Structured() {
		return f.Format(data)
	}
	return f.Format(view)
}

// renderPage prints a loaded page; pages without rows print their message.
func (a *app) renderPage(cmd *cobra.Command, p tui.Page) error {
	if !a.cmdCtx.Structured() && p.Empty() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), p.Message)
		return err
	}
	if err := a.render(cmd, p, p); err != nil {
		return err
	}
	if !a.cmdCtx.Structured() && p.Total > int64(len(p.Data)) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d shown\n", len(p.Data), p.Total)
	}
	return nil
}

// say prints a confirmation line unless the output is structured.
func (a *app) say(cmd *cobra.Command, format string, args ...any) {
	if a.cmdCtx.Structured() || a.cmdCtx.Quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

// withApp adapts a handler that needs the wired client to cobra's RunE.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, a, args)
	}
}

// page enters path and returns the app for handlers that then call the API.
func (a *app) page(cmd *cobra.Command, path string) error {
	_, err := a.enter(cmd.Context(), path)
	return err
}

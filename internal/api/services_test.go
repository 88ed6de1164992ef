package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/vulnark/internal/api"
	"github.com/felixgeelhaar/vulnark/internal/apitest"
	"github.com/felixgeelhaar/vulnark/internal/authz"
	"github.com/felixgeelhaar/vulnark/internal/contract"
	"github.com/felixgeelhaar/vulnark/internal/log"
	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/router"
	"github.com/felixgeelhaar/vulnark/internal/session"
)

// console wires the pieces the way the CLI does.
type console struct {
	server  *apitest.Server
	client  *api.Client
	store   *session.Store
	nav     *router.Navigator
	notices *notify.Recorder
}

func newConsole(t *testing.T) *console {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddUser(authz.UserProfile{Username: "alice", Role: authz.RoleAdmin}, "alice-pw")
	srv.AddUser(authz.UserProfile{Username: "bob", Role: authz.RoleUser}, "bob-pw")

	c := &console{server: srv, notices: &notify.Recorder{}}

	store, err := session.NewStore(nil, session.NewMemoryStorage(), session.WithLogger(log.Discard()))
	require.NoError(t, err)
	c.store = store
	c.nav = router.NewNavigator(router.NewGuard(nil, nil),
		func() router.Principal { return store.Snapshot() },
		router.WithNavigatorLogger(log.Discard()))

	validator, err := contract.Default()
	require.NoError(t, err)

	client, err := api.New(srv.BaseURL(),
		api.WithTokenSource(api.TokenFunc(store.Token)),
		api.WithNotifier(c.notices, notify.DefaultLocale),
		api.WithValidator(validator),
		api.WithLogger(log.Discard()),
		api.WithUnauthorized(func(_ context.Context, token string) {
			store.Expire(token)
			c.nav.Redirect(router.PathLogin)
		}),
	)
	require.NoError(t, err)
	c.client = client
	store.SetAuthenticator(client.Auth())
	return c
}

func TestLoginThenAdminPage(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()

	snap, err := c.store.Login(ctx, session.Credentials{Username: "alice", Password: "alice-pw"})
	require.NoError(t, err)
	assert.Equal(t, session.StateAuthenticated, snap.State())
	assert.Equal(t, authz.RoleAdmin, snap.Role())

	nav, err := c.nav.Navigate(router.PathUsers)
	require.NoError(t, err)
	assert.Equal(t, router.PathUsers, nav.To)
	assert.False(t, nav.Redirected())

	page, err := c.client.Users().List(ctx, api.UserFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalElements)

	rec, ok := c.server.LastRequest("/users")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+c.store.Token(), rec.Header.Get("Authorization"))
	assert.NotEmpty(t, rec.Query.Get(api.CacheBustParam))
}

func TestUserLandsOnVulnerabilities(t *testing.T) {
	c := newConsole(t)
	_, err := c.store.Login(context.Background(), session.Credentials{Username: "bob", Password: "bob-pw"})
	require.NoError(t, err)

	nav, err := c.nav.Navigate(router.PathLogin)
	require.NoError(t, err)
	assert.Equal(t, router.PathVulnerabilities, nav.To)

	nav, err = c.nav.Navigate(router.PathUsers)
	require.NoError(t, err)
	assert.Equal(t, router.PathVulnerabilities, nav.To)
}

func TestWrongPasswordLeavesSessionAlone(t *testing.T) {
	c := newConsole(t)
	_, err := c.store.Login(context.Background(), session.Credentials{Username: "alice", Password: "nope"})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindRejected))
	assert.Equal(t, session.StateAnonymous, c.store.State())

	notices := c.notices.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "用户名或密码错误", notices[0].Message)
}

func TestExpiredTokenLogsOutAndRedirects(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()
	_, err := c.store.Login(ctx, session.Credentials{Username: "bob", Password: "bob-pw"})
	require.NoError(t, err)
	_, err = c.nav.Navigate(router.PathAssets)
	require.NoError(t, err)

	c.server.Revoke(c.store.Token())

	_, err = c.client.Assets().List(ctx, api.AssetFilter{})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindAuthentication))
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))

	assert.Equal(t, session.StateAnonymous, c.store.State())
	assert.Equal(t, router.PathLogin, c.nav.Current())
	assert.Equal(t, []notify.Key{notify.KeyUnauthorized}, c.notices.Keys())
}

func TestOldRejectionDoesNotEndNewSession(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()
	_, err := c.store.Login(ctx, session.Credentials{Username: "bob", Password: "bob-pw"})
	require.NoError(t, err)
	old := c.store.Token()
	c.server.Revoke(old)

	_, err = c.store.Login(ctx, session.Credentials{Username: "alice", Password: "alice-pw"})
	require.NoError(t, err)

	err = c.client.Do(ctx, api.Request{Method: http.MethodGet, Path: "/auth/me", Token: old}, nil)
	require.Error(t, err)
	assert.Equal(t, session.StateAuthenticated, c.store.State())
	assert.Equal(t, authz.RoleAdmin, c.store.Snapshot().Role())
}

func TestCheckSessionRestoresProfile(t *testing.T) {
	c := newConsole(t)
	storage := session.NewMemoryStorage()
	require.NoError(t, storage.SetItem(session.TokenKey, c.server.IssueToken("alice")))

	store, err := session.NewStore(c.client.Auth(), storage, session.WithLogger(log.Discard()))
	require.NoError(t, err)
	assert.Equal(t, session.StateTokenOnly, store.State())

	require.NoError(t, store.CheckSession(context.Background()))
	assert.Equal(t, session.StateAuthenticated, store.State())
	assert.Equal(t, "alice", store.Snapshot().User.Username)
}

func TestContractValidationBlocksBadRequests(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()
	_, err := c.store.Login(ctx, session.Credentials{Username: "alice", Password: "alice-pw"})
	require.NoError(t, err)
	before := len(c.server.Requests())

	_, err = c.client.Assets().Create(ctx, api.Asset{Name: "db", Type: "TOASTER"})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
	assert.Len(t, c.server.Requests(), before)
}

func TestAssetLifecycle(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()
	_, err := c.store.Login(ctx, session.Credentials{Username: "alice", Password: "alice-pw"})
	require.NoError(t, err)

	created, err := c.client.Assets().Create(ctx, api.Asset{Name: "db-1", Type: "DATABASE", Status: "ACTIVE", Importance: "HIGH"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := c.client.Assets().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "db-1", got.Name)

	page, err := c.client.Assets().List(ctx, api.AssetFilter{PageParams: api.PageParams{Size: 5}})
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)

	require.NoError(t, c.client.Assets().Delete(ctx, created.ID))
	_, err = c.client.Assets().Get(ctx, created.ID)
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestDashboardOverview(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()
	_, err := c.store.Login(ctx, session.Credentials{Username: "bob", Password: "bob-pw"})
	require.NoError(t, err)

	ov, err := c.client.Dashboard().Overview(ctx, 7, 5)
	require.NoError(t, err)
	assert.Empty(t, ov.Trend)
	assert.Empty(t, c.notices.Notices())
}

func TestForbiddenListForUser(t *testing.T) {
	c := newConsole(t)
	ctx := context.Background()
	_, err := c.store.Login(ctx, session.Credentials{Username: "bob", Password: "bob-pw"})
	require.NoError(t, err)

	_, err = c.client.Users().List(ctx, api.UserFilter{})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindAuthorization))
	assert.Equal(t, session.StateAuthenticated, c.store.State(), "403 keeps the session")
	assert.Equal(t, []notify.Key{notify.KeyForbidden}, c.notices.Keys())
}

func TestRegisterValidatesLocally(t *testing.T) {
	c := newConsole(t)
	err := c.client.Auth().Register(context.Background(), api.RegisterRequest{
		Username: "carol", Email: "c@x.io", Password: "secret", ConfirmPassword: "other",
	})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
	assert.Empty(t, c.server.Requests())

	err = c.client.Auth().Register(context.Background(), api.RegisterRequest{
		Username: "carol", Email: "c@x.io", Password: "secret", ConfirmPassword: "secret",
	})
	require.NoError(t, err)
	_, err = c.store.Login(context.Background(), session.Credentials{Username: "carol", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleUser, c.store.Snapshot().Role())
}

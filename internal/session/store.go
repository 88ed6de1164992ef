// Package session owns the console's authentication state: the bearer
// token, the authenticated user's profile and their durable copy.
//
// A Store is created once and passed explicitly to whatever needs it (the
// route guard reads snapshots, the API client reads the token). Results of
// asynchronous calls are applied only while the token they started with is
// still current; anything else is discarded as stale.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/vulnark/internal/authz"
	"github.com/felixgeelhaar/vulnark/internal/log"
)

// ErrStaleResponse is returned when a response arrives after the session it
// belonged to has been replaced or cleared.
var ErrStaleResponse = errors.New("session changed while the request was in flight")

// State is the coarse session state.
type State int

const (
	// StateAnonymous has no token.
	StateAnonymous State = iota
	// StateTokenOnly has a token but no profile yet.
	StateTokenOnly
	// StateAuthenticated has a token and a profile.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateTokenOnly:
		return "token_only"
	case StateAuthenticated:
		return "authenticated"
	}
	return "anonymous"
}

// Credentials are a username and password.
type Credentials struct {
	Username string
	Password string
}

// LoginResult is what the server returns for a successful login.
type LoginResult struct {
	Token string            `json:"token"`
	User  authz.UserProfile `json:"user"`
}

// Authenticator performs the remote half of login and session checks.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	CurrentUser(ctx context.Context, token string) (authz.UserProfile, error)
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	Token string
	User  *authz.UserProfile
}

// State derives the state from the snapshot contents.
func (s Snapshot) State() State {
	switch {
	case s.Token == "":
		return StateAnonymous
	case s.User == nil:
		return StateTokenOnly
	}
	return StateAuthenticated
}

// IsAuthenticated reports whether a token is present.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != ""
}

// Role returns the profile role, or "" without a profile.
func (s Snapshot) Role() authz.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Store is the session state machine.
type Store struct {
	mu          sync.RWMutex
	token       string
	user        *authz.UserProfile
	auth        Authenticator
	storage     Storage
	logger      *log.Logger
	remote      func(ctx context.Context, token string) error
	subscribers []func(Snapshot)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRemoteLogout registers a best-effort server notification sent after a
// local logout. Its outcome never affects local state.
func WithRemoteLogout(fn func(ctx context.Context, token string) error) Option {
	return func(s *Store) { s.remote = fn }
}

// NewStore creates a Store and restores a persisted token, if any. A
// restored token yields StateTokenOnly until CheckSession succeeds.
func NewStore(auth Authenticator, storage Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{auth: auth, storage: storage}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDefault(s.logger).WithComponent("session")

	token, err := s.readToken()
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	s.token = token
	return s, nil
}

// readToken returns the persisted token. A token that cannot be opened,
// because the passphrase changed or the value was written unencrypted, is
// treated as invalid: it is removed and the session starts anonymous.
func (s *Store) readToken() (string, error) {
	token, ok, err := s.storage.GetItem(TokenKey)
	if errors.Is(err, ErrWrongPassphrase) {
		s.logger.WithError(err).Warn("discarding saved token that cannot be decrypted")
		if err := s.storage.RemoveItem(TokenKey); err != nil {
			return "", err
		}
		return "", nil
	}
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

// SetAuthenticator replaces the authenticator. The API client and the store
// depend on each other, so wiring sets it after both exist.
func (s *Store) SetAuthenticator(auth Authenticator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// Token returns the current bearer token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// State returns the current state.
func (s *Store) State() State {
	return s.Snapshot().State()
}

// Subscribe registers fn to be called with the new snapshot after every
// change. Callbacks run synchronously on the goroutine that made the change.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) authenticator() (Authenticator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth == nil {
		return nil, errors.New("session has no authenticator")
	}
	return s.auth, nil
}

// Login authenticates with creds, persists the token and stores the
// profile. On failure the session is left unchanged and the error is
// returned as is.
func (s *Store) Login(ctx context.Context, creds Credentials) (Snapshot, error) {
	auth, err := s.authenticator()
	if err != nil {
		return Snapshot{}, err
	}

	origin := s.Token()
	res, err := auth.Login(ctx, creds)
	if err != nil {
		s.logger.WithError(err).Debug("login failed", "username", creds.Username)
		return Snapshot{}, err
	}

	user := res.User
	snap, err := s.apply(origin, func() error {
		if err := s.storage.SetItem(TokenKey, res.Token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
		s.token = res.Token
		s.user = &user
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.logger.Info("logged in", "username", user.Username, "role", string(user.Role), "token", Fingerprint(res.Token))
	return snap, nil
}

// Logout clears the session and its durable copy. It always succeeds and
// calling it repeatedly is harmless.
func (s *Store) Logout() {
	s.mu.Lock()
	token := s.token
	s.clearLocked()
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)

	if token != "" {
		s.logger.Info("logged out", "token", Fingerprint(token))
		s.notifyRemote(token)
	}
}

// Expire logs out only if token is still the current one. It is used when
// the server rejects a token, so a rejection of an older session cannot end
// a newer one.
func (s *Store) Expire(token string) bool {
	s.mu.Lock()
	if token == "" || token != s.token {
		s.mu.Unlock()
		return false
	}
	s.clearLocked()
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
	s.logger.Info("session expired", "token", Fingerprint(token))
	return true
}

// CheckSession revalidates a present token by fetching the profile. Without
// a token it does nothing. Any failure logs the session out.
func (s *Store) CheckSession(ctx context.Context) error {
	origin := s.Token()
	if origin == "" {
		return nil
	}
	auth, err := s.authenticator()
	if err != nil {
		return err
	}

	user, err := auth.CurrentUser(ctx, origin)
	if err != nil {
		// Expire is a no-op if a newer session replaced origin meanwhile.
		// The server already refused the token, so no remote logout is sent.
		s.Expire(origin)
		s.logger.WithError(err).Warn("session check failed")
		return err
	}

	_, err = s.apply(origin, func() error {
		s.user = &user
		return nil
	})
	return err
}

// Reload re-reads the persisted token, picking up a login or logout made
// by another process.
func (s *Store) Reload() error {
	token, err := s.readToken()
	if err != nil {
		return fmt.Errorf("reload session: %w", err)
	}

	s.mu.Lock()
	if token == s.token {
		s.mu.Unlock()
		return nil
	}
	s.token = token
	s.user = nil
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	s.logger.Debug("session reloaded from storage", "state", snap.State().String())
	publish(subs, snap)
	return nil
}

// apply runs mutate under the lock if origin is still the current token.
func (s *Store) apply(origin string, mutate func() error) (Snapshot, error) {
	s.mu.Lock()
	if s.token != origin {
		s.mu.Unlock()
		s.logger.Debug("discarding stale response", "origin", Fingerprint(origin))
		return Snapshot{}, ErrStaleResponse
	}
	if err := mutate(); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, snap)
	return snap, nil
}

func (s *Store) clearLocked() {
	s.token = ""
	s.user = nil
	if err := s.storage.RemoveItem(TokenKey); err != nil {
		s.logger.WithError(err).Warn("could not remove persisted token")
	}
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	return append([](func(Snapshot))(nil), s.subscribers...)
}

func publish(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) notifyRemote(token string) {
	if s.remote == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.remote(ctx, token); err != nil {
			s.logger.WithError(err).Debug("remote logout failed")
		}
	}()
}

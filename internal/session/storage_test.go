package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	fs := NewFileStorage(path)

	_, ok, err := fs.GetItem(TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.SetItem(TokenKey, "t1"))
	require.NoError(t, fs.SetItem("locale", "en-US"))

	other := NewFileStorage(path)
	v, ok, err := other.GetItem(TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, fs.RemoveItem(TokenKey))
	require.NoError(t, fs.RemoveItem(TokenKey))
	_, ok, err = other.GetItem(TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = other.GetItem("locale")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "en-US", v)
}

func TestFileStorageCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := NewFileStorage(path).GetItem(TokenKey)
	assert.Error(t, err)

	_, err = NewStore(nil, NewFileStorage(path))
	assert.Error(t, err, "a corrupt store must not silently authenticate")
}

func TestSealer(t *testing.T) {
	s, err := NewSealer("correct horse")
	require.NoError(t, err)

	sealed, err := s.Seal("secret-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "secret-token")

	again, err := s.Seal("secret-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "salt and nonce are random")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", plain)

	wrong, err := NewSealer("battery staple")
	require.NoError(t, err)
	_, err = wrong.Open(sealed)
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	_, err = s.Open("AAAA")
	assert.Error(t, err)

	_, err = s.Open("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhbGljZSJ9.sig")
	assert.ErrorIs(t, err, ErrWrongPassphrase, "a plaintext token is not a sealed value")

	_, err = NewSealer("")
	assert.Error(t, err)
}

func TestEncryptedFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	sealer, err := NewSealer("pass")
	require.NoError(t, err)

	fs := NewFileStorage(path, WithSealer(sealer))
	require.NoError(t, fs.SetItem(TokenKey, "t-plain"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "t-plain"))

	v, ok, err := fs.GetItem(TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t-plain", v)

	wrong, err := NewSealer("other")
	require.NoError(t, err)
	_, _, err = NewFileStorage(path, WithSealer(wrong)).GetItem(TokenKey)
	assert.Error(t, err)
}

func TestWatchPicksUpExternalLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	s := newTestStore(t, newFakeAuth(), NewFileStorage(path))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// Another process writes the same file.
	external := NewFileStorage(path)
	assert.Eventually(t, func() bool {
		_ = external.SetItem(TokenKey, "from-other-terminal")
		return s.Token() == "from-other-terminal"
	}, 5*time.Second, 50*time.Millisecond)

	assert.Eventually(t, func() bool {
		_ = external.RemoveItem(TokenKey)
		return !s.IsAuthenticated()
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchRequiresFileStorage(t *testing.T) {
	s := newTestStore(t, newFakeAuth(), NewMemoryStorage())
	assert.Error(t, s.Watch(context.Background()))
}

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// pathStorage is implemented by storages backed by a file.
type pathStorage interface {
	Path() string
}

// Watch reloads the session whenever the storage file changes on disk, so
// a login or logout in another terminal is picked up. It blocks until ctx is
// done. The parent directory is watched because writes replace the file.
func (s *Store) Watch(ctx context.Context) error {
	ps, ok := s.storage.(pathStorage)
	if !ok {
		return errors.New("session storage is not file backed")
	}
	path := ps.Path()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.WithError(err).Warn("reload after storage change failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("storage watcher error")
		}
	}
}

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/abyssdigger/logstream"
)

// Watch reloads the file at path whenever it changes and re-applies levels
// and flags to s (callbacks from the files section are not re-created). It
// blocks until ctx is done. Reload problems go to onErr, which may be nil;
// the previous settings stay in force when a reload fails.
//
// The directory is watched rather than the file so that editors replacing
// the file on save are followed.
func Watch(ctx context.Context, path string, s *logstream.Stream, onErr func(error)) error {
	if onErr == nil {
		onErr = func(error) {}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := reload(path, s); err != nil {
				onErr(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onErr(fmt.Errorf("watching %s: %w", path, err))
		}
	}
}

func reload(path string, s *logstream.Stream) error {
	cfg, err := Load(path)
	if err != nil {
		return fmt.Errorf("reloading %s: %w", path, err)
	}
	return cfg.Apply(s)
}

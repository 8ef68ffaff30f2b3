package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"tempo-go/internal/tempo"
)

// Watch calls onChange with the day of every day file that is created,
// written, renamed or removed in dir, until ctx is done. Temporary files
// from in-progress writes are ignored.
func Watch(ctx context.Context, dir string, onChange func(tempo.Day)) error {
	if dir == "" {
		return fmt.Errorf("watch requires a filesystem store")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if day, ok := dayOfFile(event.Name); ok {
				onChange(day)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
}

// dayOfFile extracts the day from a day file name.
func dayOfFile(path string) (tempo.Day, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return tempo.Day{}, false
	}
	for _, ext := range []string{sealedExt, plainExt} {
		if strings.HasSuffix(name, ext) {
			day, err := tempo.ParseDay(strings.TrimSuffix(name, ext))
			return day, err == nil
		}
	}
	return tempo.Day{}, false
}

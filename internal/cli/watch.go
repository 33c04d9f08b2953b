package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch validates path, then validates again after every change to it,
// until ctx is done. The parent directory is watched because editors
// often save by renaming a temporary file over the original.
func Watch(ctx context.Context, path string, w io.Writer, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	validate := func() {
		if err := Validate(path, w); err != nil {
			logger.Warn("Procedure invalid", "path", path, "error", err)
		}
	}

	validate()
	printSystemMessage(w, "Watching '%s' for changes...", path)

	// A save usually produces several events; validate once they settle.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Change detected", "event", event.String())
			pending = time.After(watchDebounce)
		case <-pending:
			pending = nil
			printSystemMessage(w, "Change detected in '%s'.", path)
			validate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}

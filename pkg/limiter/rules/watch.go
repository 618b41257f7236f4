package rules

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the Ruleset whenever its file changes, until ctx ends.
//
// The watch is on the file's directory rather than the file itself: editors
// and config-management tools typically replace the file (write to a temp
// name, then rename over it), which would silently detach a direct watch.
// A change that fails to load is logged and ignored, leaving the previous
// rules in force.
func (rs *Ruleset) Watch(ctx context.Context, logger *slog.Logger) error {
	if rs.path == "" {
		return errors.New("rules: ruleset was not loaded from a file")
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(rs.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(rs.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if err := rs.Reload(); err != nil {
					logger.Warn("rules reload failed, keeping previous rules",
						"path", rs.path, "error", err)
					continue
				}
				logger.Info("rules reloaded", "path", rs.path, "classes", len(rs.Classes()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("rules watcher error", "path", rs.path, "error", err)
			}
		}
	}()
	return nil
}

package cache

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watcher-driven cache change.
// kind is one of "updated" or "removed".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the search root and invalidates cache
// entries for part files as they change, until ctx is cancelled. Entries are
// only invalidated here; the cache is repopulated lazily by the next direct
// read. New directories created at runtime are added to the watch list, and
// rename events schedule a reconciliation pass that drops entries whose files
// no longer exist on disk.
func Watch(ctx context.Context, c *Cache, root string, exts []string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	matches := func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcileStale(c, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !matches(absPath) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if invErr := c.Invalidate(absPath); invErr != nil {
					logger.Warn("watcher: invalidate failed", slog.String("path", absPath), slog.String("error", invErr.Error()))
					continue
				}
				logger.Debug("watcher: invalidated", slog.String("path", absPath))
				if cb != nil {
					cb("updated", absPath)
				}

			case ev.Op&fsnotify.Remove != 0:
				if invErr := c.Invalidate(absPath); invErr != nil {
					logger.Warn("watcher: invalidate failed", slog.String("path", absPath), slog.String("error", invErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", absPath))
				if cb != nil {
					cb("removed", absPath)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new
				// path arrives as a separate Create event. Drop the old
				// entry now and reconcile shortly for stragglers.
				_ = c.Invalidate(absPath)
				if cb != nil {
					cb("removed", absPath)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileStale drops cache entries whose files are gone from disk.
func reconcileStale(c *Cache, logger *slog.Logger, cb EventCallback) {
	paths, err := c.Paths()
	if err != nil {
		logger.Warn("reconcile: list cached paths failed", slog.String("error", err.Error()))
		return
	}
	for p := range paths {
		if _, statErr := os.Stat(p); statErr == nil {
			continue
		}
		if invErr := c.Invalidate(p); invErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("path", p))
			if cb != nil {
				cb("removed", p)
			}
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

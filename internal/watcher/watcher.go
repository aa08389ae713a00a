// Package watcher re-plans redirects when Markdown files in a repository
// change.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/docsauthor/internal/redirect"
	"github.com/starford/docsauthor/internal/storage"
)

// DefaultDebounce is used when Watch is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// Planner runs a reconciliation. *redirect.Generator implements it.
type Planner interface {
	Run(ctx context.Context, root string, dryRun bool, progress redirect.Progress) (*redirect.Report, error)
}

// PlanCallback receives every dry-run plan computed after a change.
type PlanCallback func(report *redirect.Report, err error)

// Watch starts an fsnotify watcher on root and computes a dry-run redirect
// plan once changes to Markdown files settle for debounce. It blocks until
// ctx is cancelled.
//
// New directories created at runtime are added to the watch list. The
// version-control directory is never watched.
func Watch(ctx context.Context, planner Planner, root string, debounce time.Duration, logger *slog.Logger, cb PlanCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", debounce))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			report, runErr := planner.Run(ctx, root, true, nil)
			if runErr != nil {
				logger.Warn("watcher: plan failed", slog.String("error", runErr.Error()))
			} else {
				logger.Debug("watcher: plan ready",
					slog.Int("added", len(report.Added)),
					slog.Int("existing", len(report.Existing)))
			}
			if cb != nil {
				cb(report, runErr)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ignored(root, ev.Name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					// The directory may already hold documents.
					schedule()
					continue
				}
			}

			if !redirect.IsMarkdown(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// ignored reports whether path lies inside the version-control directory.
func ignored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first == storage.VCSMarker
}

// addDirsRecursive adds root and all its subdirectories except the
// version-control directory to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == storage.VCSMarker && path != root {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

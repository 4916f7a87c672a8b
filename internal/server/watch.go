package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces bursts of events from a single save.
const debounceDelay = 100 * time.Millisecond

// Watcher reports template identifiers whose files change under Dir.
type Watcher struct {
	Dir    string
	Ext    string
	Logger *slog.Logger

	ready func() // called once the initial watches are in place
}

// Name maps a file path under w.Dir to its template identifier.
// ok is false for files that are not templates.
func (w *Watcher) Name(path string) (name string, ok bool) {
	rel, err := filepath.Rel(w.Dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.Ext != "" {
		if filepath.Ext(rel) != w.Ext {
			return "", false
		}
		rel = strings.TrimSuffix(rel, w.Ext)
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	return rel, true
}

// Run watches until ctx is done, calling onChange with the identifier of
// each changed template once its burst of events settles.
func (w *Watcher) Run(ctx context.Context, onChange func(name string)) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	logger.Debug("watching templates", "dir", w.Dir)
	if w.ready != nil {
		w.ready()
	}

	pending := map[string]struct{}{}
	timer := time.NewTimer(debounceDelay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				// New directories need their own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, ok := w.Name(event.Name)
			if !ok {
				continue
			}
			logger.Debug("template file changed", "file", event.Name, "op", event.Op.String())
			pending[name] = struct{}{}
			timer.Reset(debounceDelay)

		case <-timer.C:
			for name := range pending {
				onChange(name)
			}
			clear(pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

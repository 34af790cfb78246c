// Package watcher watches backup sources for changes and reports them in
// debounced batches, so a burst of writes from the sim ends in a single
// callback.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("watcher")

// DefaultDebounce is the quiet period used when New is given zero.
const DefaultDebounce = 2 * time.Second

// SettleFunc receives the sorted set of paths that changed during one burst.
type SettleFunc func(ctx context.Context, changed []string) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithIgnore installs a predicate for paths whose events are dropped.
// Ignored directories are not watched either.
func WithIgnore(fn func(path string) bool) Option {
	return func(w *Watcher) { w.ignore = fn }
}

// Watcher watches directory trees and single files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   func(path string) bool

	mu sync.RWMutex
	// dirs are watched recursively; every event inside them counts.
	dirs map[string]bool
	// files are single-file sources; their parent is watched and
	// sibling events are dropped.
	files   map[string]bool
	parents map[string]int
	closed  bool
}

// New creates a Watcher with the given quiet period.
func New(debounce time.Duration, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		watcher:  fsw,
		debounce: debounce,
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
		parents:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts watching a source. Directories are watched with all their
// subdirectories; symlinks are not followed. A regular file is watched
// through its parent directory.
func (w *Watcher) Watch(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return fmt.Errorf("watching %s: %w", abs, types.Classify(err))
	}

	if info.Mode().IsRegular() {
		return w.watchFile(abs)
	}
	if !info.IsDir() {
		return fmt.Errorf("watching %s: not a directory or regular file", abs)
	}
	return w.watchTree(abs)
}

func (w *Watcher) watchFile(abs string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.files[abs] {
		return nil
	}

	parent := filepath.Dir(abs)
	if w.parents[parent] == 0 && !w.dirs[parent] {
		if err := w.watcher.Add(parent); err != nil {
			return fmt.Errorf("watching %s: %w", parent, types.Classify(err))
		}
	}
	w.parents[parent]++
	w.files[abs] = true
	return nil
}

func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Debug("skipping unreadable directory", "path", p, "error", walkErr)
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		if p != root && w.ignored(p) {
			return filepath.SkipDir
		}
		return w.addDir(p)
	})
}

// addDir adds a single directory to the watch list.
func (w *Watcher) addDir(p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.dirs[p] {
		return nil
	}
	if w.parents[p] == 0 {
		if err := w.watcher.Add(p); err != nil {
			logger.Warn("failed to add watch", "path", p, "error", err)
			return fmt.Errorf("watching %s: %w", p, types.Classify(err))
		}
	}
	w.dirs[p] = true
	return nil
}

// dropDir stops watching a directory and everything below it.
func (w *Watcher) dropDir(p string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range w.dirs {
		if dir == p || isSubPath(dir, p) {
			if w.parents[dir] == 0 {
				_ = w.watcher.Remove(dir)
			}
			delete(w.dirs, dir)
		}
	}
}

// Paths returns the watched directories and files, sorted.
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, 0, len(w.dirs)+len(w.files))
	for p := range w.dirs {
		out = append(out, p)
	}
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) ignored(p string) bool {
	return w.ignore != nil && w.ignore(p)
}

// relevant reports whether an event on p belongs to a watched source.
func (w *Watcher) relevant(p string) bool {
	if w.ignored(p) {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[p] || w.dirs[p] || w.dirs[filepath.Dir(p)]
}

// Run processes events until ctx is cancelled or the watcher is closed.
// onSettle is called once the debounce period passes without a new
// relevant event. Its errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onSettle SettleFunc) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("event queue overflowed, changes may be batched late")
				timer.Reset(w.debounce)
				continue
			}
			logger.Error("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			logger.Info("changes settled", "paths", len(changed))
			if onSettle == nil {
				continue
			}
			if err := onSettle(ctx, changed); err != nil {
				logger.Error("change handler failed", "error", err)
			}
		}
	}
}

// handleEvent keeps the watch list in step with the tree and reports
// whether the event should count toward the next batch.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || !w.relevant(event.Name) {
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err == nil && info.IsDir() && info.Mode()&fs.ModeSymlink == 0 {
			if err := w.watchTree(event.Name); err != nil {
				logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.dropDir(event.Name)
	}
	logger.Debug("change", "path", event.Name, "op", event.Op.String())
	return true
}

// Close stops the watcher and releases resources. It is safe to call twice.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	clear(w.dirs)
	clear(w.files)
	clear(w.parents)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}

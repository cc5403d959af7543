// Package watcher observes the content directory and triggers a cache
// rebuild when documents change. Events are debounced so a burst of
// writes (editor save, git checkout) causes one rebuild, not one per
// file.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet window after the last relevant event
// before the trigger fires.
const DefaultDebounce = 500 * time.Millisecond

// Trigger is invoked once per debounced batch of changes.
type Trigger func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Debounce is the coalescing window. Zero means DefaultDebounce.
	Debounce time.Duration

	// Extensions are the document suffixes that count as relevant
	// changes. Empty means every file counts.
	Extensions []string
}

// Watcher watches a directory tree recursively and calls a trigger
// after changes settle.
type Watcher struct {
	fsw     *fsnotify.Watcher
	trigger Trigger
	opts    Options
	log     *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// New creates a watcher that calls trigger after content changes.
func New(trigger Trigger, opts Options, log *slog.Logger) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	return &Watcher{
		fsw:     fsw,
		trigger: trigger,
		opts:    opts,
		log:     log,
	}, nil
}

// Start watches root recursively until the context is cancelled or Stop
// is called. It blocks; run it in its own goroutine.
func (w *Watcher) Start(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	if err := w.addRecursive(absRoot); err != nil {
		return fmt.Errorf("watch %s: %w", absRoot, err)
	}

	w.log.Info("watching content directory", slog.String("root", absRoot))

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// Stop stops watching. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// New subdirectories must be added to the watch set; fsnotify is
	// not recursive on its own.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.log.Warn("cannot watch new directory",
					slog.String("path", event.Name),
					slog.String("error", err.Error()))
			}
			w.schedule(ctx)
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}
	if event.Op.Has(fsnotify.Chmod) && event.Op&^fsnotify.Chmod == 0 {
		return
	}

	w.log.Debug("content changed",
		slog.String("path", event.Name),
		slog.String("op", event.Op.String()))
	w.schedule(ctx)
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.trigger(ctx); err != nil {
			w.log.Error("rebuild after content change failed",
				slog.String("error", err.Error()))
		}
	})
}

// relevant reports whether a path is a document worth rebuilding for.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range w.opts.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// addRecursive registers root and every subdirectory with fsnotify,
// skipping hidden directories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

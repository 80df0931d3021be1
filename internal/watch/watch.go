// Package watch reports changes to a set of shader source files.
//
// Editors often replace a file instead of writing it in place, so the
// watcher observes the parent directories and filters events by name.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 150 * time.Millisecond

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("watch: watcher closed")

// Watcher waits for changes to a set of files.
// It is not safe for concurrent use.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger

	files map[string]bool
	dirs  map[string]bool
}

// New returns a watcher with the given debounce interval. A nil logger
// discards watcher errors.
func New(debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		fs:       fw,
		debounce: debounce,
		log:      log,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}, nil
}

// Set replaces the watched files. Directories no longer needed are
// dropped from the underlying watcher.
func (w *Watcher) Set(files ...string) error {
	nextFiles := make(map[string]bool, len(files))
	nextDirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		nextFiles[abs] = true
		nextDirs[filepath.Dir(abs)] = true
	}
	for dir := range nextDirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch: %s: %w", dir, err)
		}
	}
	for dir := range w.dirs {
		if !nextDirs[dir] {
			_ = w.fs.Remove(dir)
		}
	}
	w.files, w.dirs = nextFiles, nextDirs
	return nil
}

// Files returns the number of watched files.
func (w *Watcher) Files() int { return len(w.files) }

// Wait blocks until a watched file is written, created, renamed or
// removed, then keeps absorbing events until the debounce interval passes
// without one. It returns the first changed path.
func (w *Watcher) Wait(ctx context.Context) (string, error) {
	changed, err := w.next(ctx)
	if err != nil {
		return "", err
	}
	timer := time.NewTimer(w.debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return changed, nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return "", ErrClosed
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return "", ErrClosed
			}
			w.log.Warn("watch: error", "err", err)
		}
	}
}

func (w *Watcher) next(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return "", ErrClosed
			}
			if w.relevant(ev) {
				w.log.Debug("watch: changed", "path", ev.Name, "op", ev.Op)
				return ev.Name, nil
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return "", ErrClosed
			}
			w.log.Warn("watch: error", "err", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Loop calls run once, then again after every change to the files
// returned by files, until ctx is done. files is re-evaluated after each
// run so that newly included files are picked up.
func Loop(ctx context.Context, w *Watcher, files func() []string, run func(context.Context)) error {
	for {
		run(ctx)
		if err := w.Set(files()...); err != nil {
			return err
		}
		if _, err := w.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

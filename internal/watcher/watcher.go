// Package watcher turns filesystem events in the drop directory into pipeline
// tasks. Events are debounced per path, filtered against ignore rules and the
// media extension allow-list, and new subdirectories are watched as they
// appear.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"dropsort/internal/logging"
)

// Sink receives a settled, eligible path. It reports whether the path was
// admitted downstream.
type Sink func(path string) bool

// Options configures the watcher.
type Options struct {
	// Root is the drop directory to watch recursively.
	Root string
	// Debounce is how long a path must stay quiet before it is handed to
	// the sink.
	Debounce time.Duration
	// InitialScan enqueues files already present under Root at startup.
	InitialScan bool
}

// Watcher monitors the drop directory tree.
type Watcher struct {
	opts   Options
	sink   Sink
	logger *slog.Logger

	fs       *fsnotify.Watcher
	debounce *debouncer
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher delivering settled paths to sink.
func New(opts Options, sink Sink, logger *slog.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	w := &Watcher{
		opts:   opts,
		sink:   sink,
		logger: logging.NewComponentLogger(logger, "watcher"),
		done:   make(chan struct{}),
	}
	w.debounce = newDebouncer(opts.Debounce, w.deliver)
	return w
}

// Start attaches filesystem watches and begins dispatching events. When
// configured, files already present under the root are enqueued first.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fs, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}

	if err := w.watchTree(w.opts.Root); err != nil {
		_ = w.fs.Close()
		return err
	}

	if w.opts.InitialScan {
		w.scanTree(w.opts.Root)
	}

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("watching drop directory",
		logging.String("root", w.opts.Root),
		logging.Duration("debounce", w.opts.Debounce),
		logging.Bool("initial_scan", w.opts.InitialScan))
	return nil
}

// Stop halts event dispatch and discards pending debounced paths.
func (w *Watcher) Stop() {
	close(w.done)
	w.wg.Wait()
	w.debounce.cancelAll()
	if w.fs != nil {
		_ = w.fs.Close()
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal; the daemon keeps running on
			// whatever watches remain.
			w.logger.Warn("filesystem watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			// Created and removed before we could look; a Remove event
			// (or nothing) follows.
			return
		}
		if info.IsDir() {
			// A directory moved into the tree arrives as one Create;
			// watch it and sweep for files that came along.
			if ignoreDir(filepath.Base(event.Name)) {
				return
			}
			if err := w.watchTree(event.Name); err != nil {
				w.logger.Warn("could not watch new directory",
					logging.String("path", event.Name), logging.Error(err))
			}
			w.scanTree(event.Name)
			return
		}
		w.observe(event.Name)
	case event.Has(fsnotify.Write):
		w.observe(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// The path no longer exists under this name; drop any pending
		// delivery. A rename target shows up as its own Create.
		w.debounce.cancel(event.Name)
	}
}

// observe resets the debounce timer for an eligible path.
func (w *Watcher) observe(path string) {
	if !eligible(w.opts.Root, path) {
		return
	}
	w.debounce.add(path)
}

// deliver hands a settled path to the sink.
func (w *Watcher) deliver(path string) {
	if !w.sink(path) {
		w.logger.Debug("sink rejected path", logging.String("path", path))
	}
}

// watchTree adds watches for dir and every non-ignored subdirectory.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && ignoreDir(entry.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// scanTree enqueues eligible files already present under dir. Entries go
// through the debouncer so a file still being written gets its settle window.
func (w *Watcher) scanTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if path != dir && ignoreDir(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		w.observe(path)
		return nil
	})
	if err != nil {
		w.logger.Warn("scan failed", logging.String("dir", dir), logging.Error(err))
	}
}

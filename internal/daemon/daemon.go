// Package daemon assembles the watcher, pipeline, and ledger into a
// single-instance background service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"dropsort/internal/config"
	"dropsort/internal/ledger"
	"dropsort/internal/logging"
	"dropsort/internal/media"
	"dropsort/internal/organizer"
	"dropsort/internal/pipeline"
	"dropsort/internal/stability"
	"dropsort/internal/transfer"
	"dropsort/internal/watcher"
)

// Daemon coordinates the background services and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	history  *ledger.Ledger
	pipeline *pipeline.Pipeline
	watcher  *watcher.Watcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	WatchDir     string
	PhotosRoot   string
	InFlight     int
	Outcomes     pipeline.Snapshot
	LedgerDBPath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, history *ledger.Ledger, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || history == nil || logger == nil {
		return nil, errors.New("daemon requires config, ledger, and logger")
	}

	p := pipeline.New(
		pipeline.Options{
			WatchRoot:      cfg.Paths.WatchDir,
			Workers:        cfg.Pipeline.MaxWorkers,
			QueueCapacity:  cfg.Pipeline.QueueCapacity,
			RetryAttempts:  cfg.Pipeline.RetryAttempts,
			RetryDelay:     time.Duration(cfg.Pipeline.WaitSec) * time.Second,
			CleanEmptyDirs: cfg.Watcher.CleanEmptyDirs,
		},
		stability.New(cfg.Pipeline.WaitSec, cfg.Pipeline.MaxTries),
		media.NewResolver(),
		organizer.NewResolver(cfg.Paths.PhotosRoot),
		transfer.NewEngine(cfg.Pipeline.CopyBufferSize),
		history,
		logger,
	)

	w := watcher.New(
		watcher.Options{
			Root:        cfg.Paths.WatchDir,
			Debounce:    time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond,
			InitialScan: cfg.Watcher.InitialScan,
		},
		p.Enqueue,
		logger,
	)

	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		history:  history,
		pipeline: p,
		watcher:  w,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the pipeline and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dropsort instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.pipeline.Start(runCtx)
	if err := d.watcher.Start(runCtx); err != nil {
		d.pipeline.Stop()
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start watcher: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("watch_dir", d.cfg.Paths.WatchDir),
		logging.String("photos_root", d.cfg.Paths.PhotosRoot),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop drains in-flight work and releases the instance lock. New events stop
// being accepted first; queued tasks finish before workers exit.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.watcher.Stop()
	d.pipeline.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	d.running.Store(false)

	snapshot := d.pipeline.Stats()
	d.logger.Info("daemon stopped",
		logging.Int64("organized", snapshot.Committed),
		logging.Int64("duplicates", snapshot.Duplicates),
		logging.Int64("dropped", snapshot.Dropped),
		logging.Int64("failed", snapshot.Failed))
}

// Close stops the daemon and releases the ledger.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Enqueue admits a path directly, bypassing the filesystem watcher. Used by
// the one-shot scan command.
func (d *Daemon) Enqueue(path string) bool {
	return d.pipeline.Enqueue(path)
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		WatchDir:     d.cfg.Paths.WatchDir,
		PhotosRoot:   d.cfg.Paths.PhotosRoot,
		InFlight:     d.pipeline.InFlight(),
		Outcomes:     d.pipeline.Stats(),
		LedgerDBPath: d.history.Path(),
		LockFilePath: d.lockPath,
	}
}

// Package pipeline runs dropped files through stability probing, metadata
// extraction, destination resolution, and verified transfer.
//
// A fixed worker pool consumes a bounded FIFO queue. Paths are deduplicated
// while in flight, so redundant filesystem events for the same file collapse
// into one task.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"dropsort/internal/identity"
	"dropsort/internal/ledger"
	"dropsort/internal/logging"
	"dropsort/internal/media"
	"dropsort/internal/organizer"
	"dropsort/internal/stability"
)

// Prober decides when a file has finished being written.
type Prober interface {
	Probe(ctx context.Context, path string) (stability.Verdict, error)
}

// MetadataResolver classifies a file and extracts its capture time.
type MetadataResolver interface {
	Resolve(path string) (media.Record, error)
}

// DestinationResolver maps a record onto a library path, handling collisions.
type DestinationResolver interface {
	Resolve(record media.Record, incoming identity.Identity) (organizer.Destination, error)
}

// Mover performs the verified move of a file into the library.
type Mover interface {
	Transfer(src, dst string) error
}

// History is the persisted ledger of already-processed files.
type History interface {
	Lookup(ctx context.Context, id identity.Identity) (*ledger.Entry, error)
	Record(ctx context.Context, entry ledger.Entry) error
}

// Options sizes the pool and sets the transfer retry budget.
type Options struct {
	// WatchRoot is the drop directory; empty-dir cleanup never crosses it.
	WatchRoot string
	// Workers is the fixed worker pool size.
	Workers int
	// QueueCapacity bounds the task queue shared by dispatcher and workers.
	QueueCapacity int
	// RetryAttempts is how many additional transfer attempts a task gets
	// after its first failure. Stability probing has its own budget.
	RetryAttempts int
	// RetryDelay is the pause between transfer attempts.
	RetryDelay time.Duration
	// CleanEmptyDirs removes directories left empty after a move.
	CleanEmptyDirs bool
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = 256
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
}

// Task is one queued file awaiting processing.
type Task struct {
	Path       string
	EnqueuedAt time.Time
}

// Pipeline owns the task queue and worker pool.
type Pipeline struct {
	opts         Options
	prober       Prober
	metadata     MetadataResolver
	destinations DestinationResolver
	mover        Mover
	history      History
	logger       *slog.Logger

	queue chan Task
	wg    sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	inflight map[string]struct{}

	stats Stats
}

// New assembles a pipeline from its stages. Any nil logger is replaced with a
// no-op logger.
func New(opts Options, prober Prober, metadata MetadataResolver, destinations DestinationResolver, mover Mover, history History, logger *slog.Logger) *Pipeline {
	opts.normalize()
	return &Pipeline{
		opts:         opts,
		prober:       prober,
		metadata:     metadata,
		destinations: destinations,
		mover:        mover,
		history:      history,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		queue:        make(chan Task, opts.QueueCapacity),
		inflight:     make(map[string]struct{}),
	}
}

// Start launches the worker pool. Workers exit when ctx is canceled or the
// queue is closed by Stop.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.logger.Info("worker pool started",
		logging.Int("workers", p.opts.Workers),
		logging.Int("queue_capacity", p.opts.QueueCapacity))
}

// Stop closes the queue and waits for workers to drain the remaining tasks.
// Call before canceling the context passed to Start for a graceful drain.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Enqueue admits path into the queue. It reports false when the pipeline is
// stopped, the path is already in flight, or the queue is full.
func (p *Pipeline) Enqueue(path string) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	if _, busy := p.inflight[path]; busy {
		p.mu.Unlock()
		return false
	}
	select {
	case p.queue <- Task{Path: path, EnqueuedAt: time.Now()}:
		p.inflight[path] = struct{}{}
		p.mu.Unlock()
		return true
	default:
		p.mu.Unlock()
		p.logger.Warn("task queue full, dropping event", logging.String("path", path))
		return false
	}
}

// InFlight reports how many paths are queued or being processed.
func (p *Pipeline) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, task)
			p.release(task.Path)
		}
	}
}

func (p *Pipeline) release(path string) {
	p.mu.Lock()
	delete(p.inflight, path)
	p.mu.Unlock()
}

func (p *Pipeline) process(ctx context.Context, task Task) {
	log := p.logger.With(logging.String("path", task.Path))

	verdict, err := p.prober.Probe(ctx, task.Path)
	if err != nil {
		// Only cancellation reaches here; leave the file for a later run.
		return
	}
	switch verdict {
	case stability.Gone:
		log.Debug("file disappeared before processing")
		p.stats.dropped.Add(1)
		return
	case stability.Transient:
		log.Warn("file never stabilized, giving up")
		p.stats.dropped.Add(1)
		return
	}

	id, err := identity.FromFile(task.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("file disappeared before fingerprinting")
			p.stats.dropped.Add(1)
			return
		}
		log.Error("fingerprint failed", logging.Error(err))
		p.stats.failed.Add(1)
		return
	}

	if prior, err := p.history.Lookup(ctx, id); err != nil {
		log.Warn("history lookup failed, continuing without dedup", logging.Error(err))
	} else if prior != nil {
		log.Info("already processed, removing duplicate",
			logging.String("destination", prior.DestinationPath))
		p.discardSource(task.Path, log)
		p.stats.duplicates.Add(1)
		return
	}

	record, err := p.metadata.Resolve(task.Path)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			log.Warn("unsupported format, leaving file in place", logging.Error(err))
		} else {
			log.Error("metadata resolution failed", logging.Error(err))
		}
		p.stats.dropped.Add(1)
		return
	}

	dest, err := p.destinations.Resolve(record, id)
	if err != nil {
		log.Error("destination resolution failed", logging.Error(err))
		p.stats.failed.Add(1)
		return
	}

	if dest.AlreadyPresent {
		log.Info("identical file already in library, removing duplicate",
			logging.String("destination", dest.Path()))
		if err := p.history.Record(ctx, ledger.Entry{
			FileIdentity:    id.String(),
			SourcePath:      task.Path,
			DestinationPath: dest.Path(),
		}); err != nil {
			log.Warn("history record failed", logging.Error(err))
		}
		p.discardSource(task.Path, log)
		p.stats.duplicates.Add(1)
		return
	}

	if err := p.transferWithRetry(ctx, task.Path, dest.Path(), log); err != nil {
		log.Error("transfer failed, source left in place", logging.Error(err))
		p.stats.failed.Add(1)
		return
	}

	if err := p.history.Record(ctx, ledger.Entry{
		FileIdentity:    id.String(),
		SourcePath:      task.Path,
		DestinationPath: dest.Path(),
	}); err != nil {
		// The move already happened; a ledger failure only weakens dedup.
		log.Warn("history record failed", logging.Error(err))
	}

	p.cleanupAfterMove(task.Path)
	p.stats.committed.Add(1)
	log.Info("file organized",
		logging.String("destination", dest.Path()),
		logging.String("kind", string(record.Kind)),
		logging.Bool("from_metadata", record.FromMetadata))
}

func (p *Pipeline) transferWithRetry(ctx context.Context, src, dst string, log *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt <= p.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			log.Warn("retrying transfer",
				logging.Int("attempt", attempt+1),
				logging.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.opts.RetryDelay):
			}
		}
		lastErr = p.mover.Transfer(src, dst)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

package pipeline

import "sync/atomic"

// Stats counts task outcomes since startup.
type Stats struct {
	committed  atomic.Int64
	duplicates atomic.Int64
	dropped    atomic.Int64
	failed     atomic.Int64
}

// Snapshot is a point-in-time copy of the outcome counters.
type Snapshot struct {
	Committed  int64
	Duplicates int64
	Dropped    int64
	Failed     int64
}

// Stats returns the current outcome counters.
func (p *Pipeline) Stats() Snapshot {
	return Snapshot{
		Committed:  p.stats.committed.Load(),
		Duplicates: p.stats.duplicates.Load(),
		Dropped:    p.stats.dropped.Load(),
		Failed:     p.stats.failed.Load(),
	}
}

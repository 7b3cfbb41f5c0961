// Package stability decides whether a dropped file has finished being written.
//
// A file is considered stable when its size and modification time hold still
// across a polling window. The heuristic accepts the bounded risk of a slow
// writer pausing for a full window; the transfer engine's hash verification
// catches the remaining cases.
package stability

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Verdict is the outcome of a stability probe.
type Verdict int

const (
	// Stable means writing has finished and the file may be processed.
	Stable Verdict = iota
	// Transient means the file was still changing after every round; the
	// caller should requeue the task against its attempt budget.
	Transient
	// Gone means the file disappeared mid-probe; the task is discarded
	// without error escalation.
	Gone
)

func (v Verdict) String() string {
	switch v {
	case Stable:
		return "stable"
	case Transient:
		return "transient"
	case Gone:
		return "gone"
	default:
		return "unknown"
	}
}

// Prober polls size and mtime until a file settles.
type Prober struct {
	// Wait is the polling window between samples.
	Wait time.Duration
	// MaxRounds bounds how many windows a changing file is given.
	MaxRounds int
}

// New returns a Prober with the given window (in seconds) and round budget.
func New(waitSec, maxRounds int) *Prober {
	if waitSec <= 0 {
		waitSec = 1
	}
	if maxRounds <= 0 {
		maxRounds = 1
	}
	return &Prober{Wait: time.Duration(waitSec) * time.Second, MaxRounds: maxRounds}
}

type sample struct {
	size    int64
	modTime time.Time
}

// Probe reports whether the file at path has stopped changing. Only context
// cancellation produces an error; filesystem races map onto the verdict.
func (p *Prober) Probe(ctx context.Context, path string) (Verdict, error) {
	prev, verdict, ok := p.sample(path)
	if !ok {
		return verdict, nil
	}

	for round := 0; round < p.MaxRounds; round++ {
		select {
		case <-ctx.Done():
			return Transient, ctx.Err()
		case <-time.After(p.Wait):
		}

		cur, verdict, ok := p.sample(path)
		if !ok {
			return verdict, nil
		}

		if cur.size == prev.size && cur.modTime.Equal(prev.modTime) && cur.size > 0 {
			if !readable(path) {
				return Transient, nil
			}
			return Stable, nil
		}
		prev = cur
	}

	return Transient, nil
}

// sample stats the path. ok=false means the verdict is already decided.
func (p *Prober) sample(path string) (sample, Verdict, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sample{}, Gone, false
		}
		// Transient stat failures (permission churn, NFS hiccups) are
		// retried like a still-changing file.
		return sample{}, Transient, false
	}
	if info.IsDir() {
		return sample{}, Gone, false
	}
	return sample{size: info.Size(), modTime: info.ModTime()}, Stable, true
}

// readable verifies the writer has released the file enough for us to read it.
func readable(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()
	buf := make([]byte, 1)
	_, err = file.Read(buf)
	return err == nil
}

package stability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropsort/internal/stability"
)

func newFastProber(rounds int) *stability.Prober {
	return &stability.Prober{Wait: 10 * time.Millisecond, MaxRounds: rounds}
}

func TestProbeStableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_0001.jpg")
	if err := os.WriteFile(path, []byte("settled content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	verdict, err := newFastProber(3).Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if verdict != stability.Stable {
		t.Fatalf("expected Stable, got %s", verdict)
	}
}

func TestProbeGrowingFileIsTransient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer file.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-time.After(2 * time.Millisecond):
				_, _ = file.WriteString("more frames")
				_ = file.Sync()
				// Bump mtime explicitly so coarse timestamp resolution
				// cannot mask the ongoing write.
				now := time.Now()
				_ = os.Chtimes(path, now, now)
			}
		}
	}()

	verdict, err := newFastProber(3).Probe(context.Background(), path)
	close(stop)
	<-done
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if verdict != stability.Transient {
		t.Fatalf("expected Transient while file grows, got %s", verdict)
	}
}

func TestProbeMissingFileIsGone(t *testing.T) {
	verdict, err := newFastProber(2).Probe(context.Background(), filepath.Join(t.TempDir(), "vanished.jpg"))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if verdict != stability.Gone {
		t.Fatalf("expected Gone, got %s", verdict)
	}
}

func TestProbeRemovedMidProbeIsGone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = os.Remove(path)
	}()

	verdict, err := (&stability.Prober{Wait: 20 * time.Millisecond, MaxRounds: 3}).Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if verdict != stability.Gone {
		t.Fatalf("expected Gone after removal, got %s", verdict)
	}
}

func TestProbeEmptyFileNeverStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	verdict, err := newFastProber(2).Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if verdict != stability.Transient {
		t.Fatalf("zero-byte file must not be Stable, got %s", verdict)
	}
}

func TestProbeHonorsContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_0002.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&stability.Prober{Wait: time.Hour, MaxRounds: 1}).Probe(ctx, path)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestNewClampsInvalidValues(t *testing.T) {
	p := stability.New(0, 0)
	if p.Wait <= 0 || p.MaxRounds <= 0 {
		t.Fatalf("New did not clamp values: %+v", p)
	}
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dropsort/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
// The watch directory exists; the photos root is created lazily by the code
// under test. Timing knobs are shrunk so probing tests stay fast.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "uploads")
	cfg.Paths.PhotosRoot = filepath.Join(base, "photos")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "state")
	cfg.Pipeline.WaitSec = 1
	cfg.Pipeline.MaxTries = 2
	cfg.Watcher.DebounceMs = 20

	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		t.Fatalf("create watch dir: %v", err)
	}

	return &cfg
}

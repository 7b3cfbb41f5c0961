package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dropsort/internal/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "dropsort.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	base := t.TempDir()
	watch := filepath.Join(base, "uploads")
	photos := filepath.Join(base, "photos")
	if err := os.MkdirAll(watch, 0o755); err != nil {
		t.Fatalf("mkdir watch: %v", err)
	}

	path := writeConfig(t, base, `
[paths]
watch_dir = "`+watch+`"
photos_root = "`+photos+`"
log_dir = "`+filepath.Join(base, "logs")+`"
data_dir = "`+filepath.Join(base, "state")+`"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Pipeline.MaxWorkers != 4 {
		t.Fatalf("expected default max_workers 4, got %d", cfg.Pipeline.MaxWorkers)
	}
	if cfg.Pipeline.WaitSec != 5 || cfg.Pipeline.MaxTries != 10 {
		t.Fatalf("unexpected stability defaults: wait=%d tries=%d", cfg.Pipeline.WaitSec, cfg.Pipeline.MaxTries)
	}
	if cfg.Pipeline.MaxProcessingHistory != 1000 {
		t.Fatalf("expected history cap 1000, got %d", cfg.Pipeline.MaxProcessingHistory)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsMissingWatchDir(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, base, `
[paths]
watch_dir = "`+filepath.Join(base, "nope")+`"
photos_root = "`+filepath.Join(base, "photos")+`"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing watch directory")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsPhotosRootInsideWatchDir(t *testing.T) {
	base := t.TempDir()
	watch := filepath.Join(base, "uploads")
	if err := os.MkdirAll(watch, 0o755); err != nil {
		t.Fatalf("mkdir watch: %v", err)
	}
	path := writeConfig(t, base, `
[paths]
watch_dir = "`+watch+`"
photos_root = "`+filepath.Join(watch, "sorted")+`"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error when photos_root nests inside watch_dir")
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	base := t.TempDir()
	watch := filepath.Join(base, "uploads")
	if err := os.MkdirAll(watch, 0o755); err != nil {
		t.Fatalf("mkdir watch: %v", err)
	}
	path := writeConfig(t, base, `
[paths]
watch_dir = "`+watch+`"
photos_root = "`+filepath.Join(base, "photos")+`"

[logging]
format = "xml"
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := config.ExpandPath("~/uploads")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "uploads") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(body), "[pipeline]") {
		t.Fatal("sample config missing pipeline section")
	}
}

package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeWatcher()
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"watch_dir", &c.Paths.WatchDir},
		{"photos_root", &c.Paths.PhotosRoot},
		{"log_dir", &c.Paths.LogDir},
		{"data_dir", &c.Paths.DataDir},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("expand %s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.WaitSec <= 0 {
		c.Pipeline.WaitSec = defaultWaitSec
	}
	if c.Pipeline.MaxTries <= 0 {
		c.Pipeline.MaxTries = defaultMaxTries
	}
	if c.Pipeline.MaxWorkers <= 0 {
		c.Pipeline.MaxWorkers = defaultMaxWorkers
	}
	if c.Pipeline.RetryAttempts <= 0 {
		c.Pipeline.RetryAttempts = defaultRetryAttempts
	}
	if c.Pipeline.CopyBufferSize <= 0 {
		c.Pipeline.CopyBufferSize = defaultCopyBufferSize
	}
	if c.Pipeline.MaxProcessingHistory <= 0 {
		c.Pipeline.MaxProcessingHistory = defaultMaxProcessingHistory
	}
	if c.Pipeline.QueueCapacity <= 0 {
		c.Pipeline.QueueCapacity = defaultQueueCapacity
	}
}

func (c *Config) normalizeWatcher() {
	if c.Watcher.DebounceMs <= 0 {
		c.Watcher.DebounceMs = defaultDebounceMs
	}
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	switch format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
	return nil
}

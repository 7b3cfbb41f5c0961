package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"dropsort/internal/ledger"
	"dropsort/internal/logging"
	"dropsort/internal/media"
	"dropsort/internal/organizer"
	"dropsort/internal/pipeline"
	"dropsort/internal/stability"
	"dropsort/internal/transfer"
	"dropsort/internal/watcher"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Organize files already in the drop directory, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			logger, err := logging.New(logging.Options{
				Level:       level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", cfg.LogFilePath()},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			history, err := ledger.Open(cfg.LedgerPath(), cfg.Pipeline.MaxProcessingHistory)
			if err != nil {
				return fmt.Errorf("open history ledger: %w", err)
			}
			defer history.Close()

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
			p.Start(cmd.Context())

			var queued, skipped int
			walkErr := filepath.WalkDir(cfg.Paths.WatchDir, func(path string, entry fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if entry.IsDir() {
					return nil
				}
				if !watcher.Eligible(cfg.Paths.WatchDir, path) {
					skipped++
					return nil
				}
				for !p.Enqueue(path) {
					// Queue full; give the workers room.
					select {
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					case <-time.After(100 * time.Millisecond):
					}
				}
				queued++
				return nil
			})

			p.Stop()
			if walkErr != nil {
				return fmt.Errorf("scan drop directory: %w", walkErr)
			}

			snapshot := p.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d files (%d skipped by filters)\n", queued, skipped)
			fmt.Fprintf(out, "Organized: %d  Duplicates: %d  Dropped: %d  Failed: %d\n",
				snapshot.Committed, snapshot.Duplicates, snapshot.Dropped, snapshot.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override configured log level (debug, info, warn, error)")
	return cmd
}

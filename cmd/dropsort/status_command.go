package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"dropsort/internal/config"
	"dropsort/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and ledger summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			running, pid := daemonState(cfg)
			daemonLabel := "stopped"
			if running {
				daemonLabel = "running"
				if pid > 0 {
					daemonLabel = fmt.Sprintf("running (pid %d)", pid)
				}
			}

			rows := [][]string{
				{"Daemon", daemonLabel},
				{"Watch dir", cfg.Paths.WatchDir},
				{"Photos root", cfg.Paths.PhotosRoot},
				{"Ledger", cfg.LedgerPath()},
				{"Lock file", cfg.LockFilePath()},
			}

			history, err := ledger.Open(cfg.LedgerPath(), cfg.Pipeline.MaxProcessingHistory)
			if err == nil {
				defer history.Close()
				if count, lenErr := history.Len(cmd.Context()); lenErr == nil {
					rows = append(rows, []string{"History entries",
						fmt.Sprintf("%d / %d", count, cfg.Pipeline.MaxProcessingHistory)})
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Item", "Value"}, rows))
			return nil
		},
	}
}

// daemonState probes the instance lock. A held lock means a daemon is
// running; the pid comes from the pid file when readable.
func daemonState(cfg *config.Config) (bool, int) {
	lock := flock.New(cfg.LockFilePath())
	ok, err := lock.TryLock()
	if err != nil {
		return false, 0
	}
	if ok {
		_ = lock.Unlock()
		return false, 0
	}

	data, err := os.ReadFile(cfg.PIDFilePath())
	if err != nil {
		return true, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return true, 0
	}
	return true, pid
}

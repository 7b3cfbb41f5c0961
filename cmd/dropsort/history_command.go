package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dropsort/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently organized files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			history, err := ledger.Open(cfg.LedgerPath(), cfg.Pipeline.MaxProcessingHistory)
			if err != nil {
				return fmt.Errorf("open history ledger: %w", err)
			}
			defer history.Close()

			entries, err := history.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No files organized yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.ProcessedAt.Local().Format(time.DateTime),
					entry.SourcePath,
					entry.DestinationPath,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Processed", "Source", "Destination"}, rows))
			fmt.Fprintf(out, "%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

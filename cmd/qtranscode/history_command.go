package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"qtranscode/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled in the configuration")
			}

			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				elapsed := ""
				if !rec.FinishedAt.IsZero() {
					elapsed = rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second).String()
				}
				status := rec.Status
				if rec.Error != "" {
					status = fmt.Sprintf("%s: %s", rec.Status, rec.Error)
				}
				rows = append(rows, []string{
					rec.StartedAt.Local().Format("2006-01-02 15:04"),
					rec.Source,
					rec.Output,
					rec.VideoCodec + "+" + rec.AudioCodec,
					elapsed,
					status,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Source", "Output", "Codecs", "Elapsed", "Status"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to list")
	return cmd
}

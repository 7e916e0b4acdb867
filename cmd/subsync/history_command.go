package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"subsync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			hist, err := ctx.openHistory()
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer hist.Close()

			runs, err := hist.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if jsonOutput {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.FinishedAt.Local().Format("2006-01-02 15:04:05"),
					run.Mode,
					filepath.Base(run.VideoPath),
					run.ContentType,
					signedSeconds(run.RawOffset),
					signedSeconds(run.AppliedOffset),
					yesNo(run.InSync),
					fmt.Sprintf("%.2f", run.Confidence),
					shortRunID(run.ID),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "Mode", "Video", "Type", "Raw", "Applied", "In sync", "Confidence", "Run"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"subsync/internal/calibration"
)

func newCalibrationCommand(ctx *commandContext) *cobra.Command {
	calCmd := &cobra.Command{
		Use:   "calibration",
		Short: "Inspect and manage Smart Sync calibration history",
	}
	calCmd.AddCommand(newCalibrationStatsCommand(ctx))
	calCmd.AddCommand(newCalibrationListCommand(ctx))
	calCmd.AddCommand(newCalibrationResetCommand(ctx))
	return calCmd
}

func newCalibrationStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored corrections",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCalibration()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, newStatsView(store))
			}
			out := cmd.OutOrStdout()
			stats := store.Stats()
			if stats.Count == 0 {
				fmt.Fprintln(out, "No calibration history yet. Record corrections with `subsync learn`.")
				return nil
			}
			rows := [][]string{
				{"Corrections", fmt.Sprintf("%d / %d", stats.Count, calibration.MaxEntries)},
				{"Average", signedSeconds(store.AverageCorrection())},
				{"Std dev", fmt.Sprintf("%.2fs", stats.StdDev)},
				{"Min", signedSeconds(stats.Min)},
				{"Max", signedSeconds(stats.Max)},
			}
			kinds := make([]string, 0, len(stats.ByType))
			for kind := range stats.ByType {
				kinds = append(kinds, kind.String())
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				rows = append(rows, []string{"Type " + kind, fmt.Sprintf("%d", stats.ByType[calibration.ContentType(kind)])})
			}
			fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCalibrationListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored corrections, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCalibration()
			if err != nil {
				return err
			}
			entries := store.Entries()
			if jsonOutput {
				views := make([]entryView, 0, len(entries))
				for _, e := range entries {
					views = append(views, entryView{Auto: e.Auto, User: e.User, Correction: e.Correction, Type: e.Type.String(), RecordedAt: e.RecordedAt})
				}
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No calibration history yet.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				recorded := ""
				if !e.RecordedAt.IsZero() {
					recorded = e.RecordedAt.Local().Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					e.Type.String(),
					signedSeconds(e.Auto),
					signedSeconds(e.User),
					signedSeconds(e.Correction),
					recorded,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Type", "Auto", "User", "Correction", "Recorded"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCalibrationResetCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored corrections",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("reset discards all calibration history; rerun with --yes to confirm")
			}
			store, err := ctx.openCalibration()
			if err != nil {
				return err
			}
			removed := store.Len()
			if err := store.Reset(); err != nil {
				return fmt.Errorf("reset calibration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d corrections\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm the reset")
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subsync/internal/calibration"
)

func newLearnCommand(ctx *commandContext) *cobra.Command {
	var userOffset float64
	var autoOffset float64
	var contentType string

	cmd := &cobra.Command{
		Use:   "learn <video>",
		Short: "Record the offset that actually fixed a subtitle",
		Long: "Record a user correction for Smart Sync calibration.\n\n" +
			"--offset is the offset that produced correct playback. Without --auto the\n" +
			"automatic offset of the most recent run for <video> is used.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video := strings.TrimSpace(args[0])
			kind := calibration.ContentType("")
			if strings.TrimSpace(contentType) != "" {
				kind = calibration.ParseContentType(contentType)
			}

			if !cmd.Flags().Changed("auto") {
				hist, err := ctx.openHistory()
				if err != nil {
					return fmt.Errorf("open run history: %w", err)
				}
				defer hist.Close()
				run, err := hist.Latest(cmd.Context(), video)
				if err != nil {
					return fmt.Errorf("look up last run: %w", err)
				}
				if run == nil {
					return fmt.Errorf("no recorded run for %s; pass --auto with the detected offset", video)
				}
				autoOffset = run.RawOffset
				if kind == "" {
					kind = calibration.ParseContentType(run.ContentType)
				}
			}
			if kind == "" {
				kind = calibration.Classify(video)
			}

			store, err := ctx.openCalibration()
			if err != nil {
				return err
			}
			entry, err := store.Learn(autoOffset, userOffset, kind)
			if err != nil {
				return fmt.Errorf("save calibration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded correction %s (%s): auto %s, user %s\n",
				signedSeconds(entry.Correction), entry.Type, signedSeconds(entry.Auto), signedSeconds(entry.User))
			fmt.Fprintf(out, "Calibration history: %d corrections, average %s\n", store.Len(), signedSeconds(store.AverageCorrection()))
			return nil
		},
	}
	cmd.Flags().Float64Var(&userOffset, "offset", 0, "Offset in seconds that synced correctly")
	cmd.Flags().Float64Var(&autoOffset, "auto", 0, "Automatically detected offset (default: last recorded run)")
	cmd.Flags().StringVar(&contentType, "type", "", "Content type (movie, tv, documentary)")
	_ = cmd.MarkFlagRequired("offset")
	return cmd
}

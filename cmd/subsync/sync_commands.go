package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"subsync/internal/audioprep"
	"subsync/internal/calibration"
	"subsync/internal/offset"
	"subsync/internal/syncer"
)

type runFlags struct {
	noCalibration bool
	noPreprocess  bool
	contentType   string
	jsonOutput    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCalibration, "no-calibration", false, "Skip Smart Sync calibration")
	cmd.Flags().BoolVar(&f.noPreprocess, "no-preprocess", false, "Skip the audio cleanup pass")
	cmd.Flags().StringVar(&f.contentType, "type", "", "Content type for calibration (movie, tv, documentary)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output as JSON")
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var outputPath string

	cmd := &cobra.Command{
		Use:   "sync <video> <subtitle>",
		Short: "Synchronize a subtitle file to a video's audio",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cleanup, err := ctx.engine()
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signalContext(cmd)
			defer stop()

			req := ctx.baseRequest(args[0], args[1], flags.noCalibration, flags.noPreprocess, flags.contentType)
			req.OutputPath = strings.TrimSpace(outputPath)
			res, err := engine.Sync(runCtx, req)
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return writeJSON(cmd, newSyncView(req, res))
			}
			printSyncResult(cmd.OutOrStdout(), res, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (default <subtitle>_synced.srt)")
	return cmd
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var verbose bool

	cmd := &cobra.Command{
		Use:   "check <video> <subtitle>",
		Short: "Check whether a subtitle file is in sync without writing anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cleanup, err := ctx.engine()
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signalContext(cmd)
			defer stop()

			req := ctx.baseRequest(args[0], args[1], flags.noCalibration, flags.noPreprocess, flags.contentType)
			req.DetectSilence = verbose
			res, err := engine.QuickCheck(runCtx, req)
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return writeJSON(cmd, newCheckView(req, res))
			}
			printCheckResult(cmd.OutOrStdout(), res, verbose, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show per-method estimates and a silence report")
	return cmd
}

func printSyncResult(out io.Writer, res syncer.Result, colorize bool) {
	fmt.Fprintln(out, renderField("Action", res.Action()))
	fmt.Fprintln(out, renderField("Raw offset", signedSeconds(res.RawOffset)))
	if res.Calibrated {
		fmt.Fprintln(out, renderField("Calibrated", fmt.Sprintf("%s (%s)", signedSeconds(res.CalibratedOffset), res.ContentType)))
	}
	fmt.Fprintln(out, renderField("Confidence", fmt.Sprintf("%.2f", res.Estimate.Confidence)))
	fmt.Fprintln(out, renderField("Preprocessed", yesNo(res.Preprocessed)))
	output := res.OutputPath
	if res.Copied {
		output += " (copied unchanged)"
	}
	fmt.Fprintln(out, renderField("Output", output))
	printAdvisories(out, res.Estimate, res.Suggestion, colorize)
}

func printCheckResult(out io.Writer, res syncer.CheckResult, verbose, colorize bool) {
	if res.InSync {
		fmt.Fprintln(out, renderStatusLine("Sync", statusOK, fmt.Sprintf("in sync (%s)", signedSeconds(res.Offset)), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Sync", statusWarn, "out of sync: "+res.Action(), colorize))
	}
	fmt.Fprintln(out, renderField("Raw offset", signedSeconds(res.RawOffset)))
	if res.Calibrated {
		fmt.Fprintln(out, renderField("Calibrated", fmt.Sprintf("%s (%s)", signedSeconds(res.Offset), res.ContentType)))
	}
	fmt.Fprintln(out, renderField("Confidence", fmt.Sprintf("%.2f", res.Estimate.Confidence)))
	printAdvisories(out, res.Estimate, res.Suggestion, colorize)

	if !verbose {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderMethods(res.Estimate))
	if res.Estimate.Text.Pairs > 0 {
		fmt.Fprintln(out, renderField("Text matches", fmt.Sprintf("%d/%d", res.Estimate.Text.Matches, res.Estimate.Text.Pairs)))
	}
	if res.AudioDuration > 0 {
		fmt.Fprintln(out, renderField("Audio", fmt.Sprintf("%.1fs", res.AudioDuration.Seconds())))
	}
	fmt.Fprintln(out, renderField("Silence", fmt.Sprintf("%d periods, %.1fs total", len(res.Silence), audioprep.TotalSilence(res.Silence))))
}

func printAdvisories(out io.Writer, est offset.Estimate, suggestion calibration.Suggestion, colorize bool) {
	if est.Empty {
		fmt.Fprintln(out, renderStatusLine("Estimate", statusWarn, "no speech or no subtitle cues; offset defaulted to zero", colorize))
	}
	if est.DirectionMismatch {
		fmt.Fprintln(out, renderStatusLine("Direction", statusWarn, "early speech does not line up with the shifted cues; verify playback", colorize))
	}
	if suggestion.ShouldAdjust {
		msg := fmt.Sprintf("history suggests %s more (confidence %.2f, %d corrections)", signedSeconds(suggestion.Delta), suggestion.Confidence, suggestion.Basis)
		fmt.Fprintln(out, renderStatusLine("Calibration", statusInfo, msg, colorize))
	}
}

func renderMethods(est offset.Estimate) string {
	rows := make([][]string, 0, len(est.Methods))
	for _, m := range est.Methods {
		status := "ok"
		if !m.OK {
			status = "skipped"
			if m.Reason != "" {
				status += ": " + m.Reason
			}
		}
		rows = append(rows, []string{
			m.Name,
			signedSeconds(m.Offset),
			fmt.Sprintf("%.2f", m.Confidence),
			status,
		})
	}
	return renderTable(
		[]string{"Method", "Offset", "Confidence", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	)
}

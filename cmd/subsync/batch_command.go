package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subsync/internal/services"
	"subsync/internal/syncer"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <video>=<subtitle>...",
		Short: "Synchronize several subtitle files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parsePairs(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Sync.Workers
			}
			if workers <= 0 {
				return fmt.Errorf("--workers must be positive")
			}

			engine, cleanup, err := ctx.engine()
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signalContext(cmd)
			defer stop()

			reqs := make([]syncer.Request, 0, len(pairs))
			for _, p := range pairs {
				reqs = append(reqs, ctx.baseRequest(p[0], p[1], flags.noCalibration, flags.noPreprocess, flags.contentType))
			}
			results := engine.RunBatch(runCtx, reqs, workers)

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}

			if flags.jsonOutput {
				views := make([]syncView, 0, len(results))
				for _, r := range results {
					view := newSyncView(r.Request, r.Result)
					if r.Err != nil {
						view.Error = r.Err.Error()
						view.Outcome = string(services.Classify(r.Err))
					}
					views = append(views, view)
				}
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderBatchTable(results))
				fmt.Fprintf(out, "%d synced, %d failed\n", len(results)-failed, failed)
			}

			if err := runCtx.Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("batch: %d of %d runs failed", failed, len(results))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", syncer.DefaultWorkers, "Maximum concurrent runs")
	return cmd
}

// parsePairs splits video=subtitle arguments. The last '=' separates the two
// paths so video names may contain one.
func parsePairs(args []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(args))
	for _, arg := range args {
		idx := strings.LastIndex(arg, "=")
		if idx <= 0 || idx == len(arg)-1 {
			return nil, fmt.Errorf("invalid pair %q: expected <video>=<subtitle>", arg)
		}
		pairs = append(pairs, [2]string{arg[:idx], arg[idx+1:]})
	}
	return pairs, nil
}

func renderBatchTable(results []syncer.BatchResult) string {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		row := []string{
			fmt.Sprintf("%d", i+1),
			filepath.Base(r.Request.SubtitlePath),
		}
		switch {
		case errors.Is(r.Err, syncer.ErrNoSubtitle):
			row = append(row, "-", "subtitle not found", "")
		case r.Err != nil:
			row = append(row, "-", string(services.Classify(r.Err)), r.Err.Error())
		default:
			output := r.Result.OutputPath
			if r.Result.Copied {
				output += " (copied)"
			}
			row = append(row, signedSeconds(r.Result.AppliedOffset), r.Result.Action(), output)
		}
		rows = append(rows, row)
	}
	return renderTable(
		[]string{"#", "Subtitle", "Offset", "Action", "Output / Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

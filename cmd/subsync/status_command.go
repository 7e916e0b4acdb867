package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subsync/internal/deps"
	"subsync/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report external tools, storage locations, and calibration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			statuses := preflight.CheckSystemDeps(cfg)
			for _, status := range statuses {
				lines = append(lines, renderStatusLine(status.Name, dependencyKind(status), dependencyMessage(status), colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Storage", colorize)...)
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Calibration", colorize)...)
			if cfg.Sync.UseCalibration {
				store, err := ctx.openCalibration()
				if err != nil {
					return err
				}
				lines = append(lines, renderStatusLine("Smart Sync", statusOK,
					fmt.Sprintf("%d corrections, average %s", store.Len(), signedSeconds(store.AverageCorrection())), colorize))
			} else {
				lines = append(lines, renderStatusLine("Smart Sync", statusInfo, "disabled in configuration", colorize))
			}
			if hist, err := ctx.openHistory(); err != nil {
				lines = append(lines, renderStatusLine("Run history", statusWarn, err.Error(), colorize))
			} else {
				count, countErr := hist.Count(cmd.Context())
				_ = hist.Close()
				if countErr != nil {
					lines = append(lines, renderStatusLine("Run history", statusWarn, countErr.Error(), colorize))
				} else {
					lines = append(lines, renderStatusLine("Run history", statusOK, fmt.Sprintf("%d runs recorded", count), colorize))
				}
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if err := deps.MissingError(statuses); err != nil {
				return err
			}
			return preflight.FailedError(results)
		},
	}
}

func dependencyKind(status deps.Status) statusKind {
	switch {
	case status.Available:
		return statusOK
	case status.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyMessage(status deps.Status) string {
	if status.Available {
		return status.Command
	}
	if status.Detail != "" {
		return status.Detail
	}
	return status.Description
}

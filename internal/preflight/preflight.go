package preflight

import (
	"context"
	"fmt"
	"strings"

	"subsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Work directory (always checked)
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Sync.UseCalibration && cfg.Paths.CalibrationFile != "" {
		results = append(results, CheckFileLocation("Calibration file", cfg.Paths.CalibrationFile))
	}
	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckFileLocation("History database", cfg.Paths.HistoryDB))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// FailedError summarizes failed checks, or returns nil when all passed.
func FailedError(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, len(failed))
	for i, r := range failed {
		parts[i] = r.Name + ": " + r.Detail
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

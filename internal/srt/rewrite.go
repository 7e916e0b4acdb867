package srt

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"subsync/internal/fileutil"
)

var timestampRe = regexp.MustCompile(`\d{2,}:\d{2}:\d{2}[,.]\d{3}`)

// ShiftContent moves every cue timing in content by offsetSeconds. Offsets are
// applied in whole milliseconds; results before zero clamp to zero. Bytes
// outside the timing pairs are preserved, including the millisecond separator
// each timestamp was written with.
func ShiftContent(content []byte, offsetSeconds float64) []byte {
	delta := int64(math.Round(offsetSeconds * 1000))
	return timingLineRe.ReplaceAllFunc(content, func(match []byte) []byte {
		return timestampRe.ReplaceAllFunc(match, func(ts []byte) []byte {
			ms, err := parseMillis(string(ts))
			if err != nil {
				return ts
			}
			sep := byte(',')
			if strings.Contains(string(ts), ".") {
				sep = '.'
			}
			return []byte(formatMillis(ms+delta, sep))
		})
	})
}

// DefaultOutputPath returns "<dir>/<stem>_synced<ext>" for path.
func DefaultOutputPath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), stem+"_synced"+ext)
}

// Rewrite shifts the timings of the subtitle at path by offsetSeconds and
// writes the result to outputPath (DefaultOutputPath when empty). The source
// file is never modified.
func Rewrite(path string, offsetSeconds float64, outputPath string) (string, error) {
	if strings.TrimSpace(outputPath) == "" {
		outputPath = DefaultOutputPath(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read srt: %w", err)
	}
	shifted := ShiftContent(data, offsetSeconds)
	if err := fileutil.WriteFileAtomic(outputPath, shifted, 0o644); err != nil {
		return "", fmt.Errorf("write synced srt: %w", err)
	}
	return outputPath, nil
}

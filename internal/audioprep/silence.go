package audioprep

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// MinSilenceDuration is the shortest gap silencedetect reports, in seconds.
const MinSilenceDuration = 0.5

// Period is a silent interval in seconds.
type Period struct {
	Start float64
	End   float64
}

// Duration returns the period length in seconds.
func (p Period) Duration() float64 {
	return p.End - p.Start
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[0-9.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[0-9.]+)`)
)

// DetectSilence lists silent periods at or below thresholdDB.
func (p *Preprocessor) DetectSilence(ctx context.Context, audioPath string, thresholdDB float64) ([]Period, error) {
	args := []string{
		"-hide_banner",
		"-nostats",
		"-i", audioPath,
		"-af", fmt.Sprintf("silencedetect=n=%sdB:d=%s", num(thresholdDB), num(MinSilenceDuration)),
		"-f", "null",
		"-",
	}
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := p.run(runCtx, p.ffmpegBinary, args...)
	if err != nil {
		return nil, fmt.Errorf("detect silence: %w", err)
	}
	return ParseSilence(output), nil
}

// ParseSilence extracts start/end pairs from silencedetect output. An end
// without a preceding start is ignored, as is a trailing unterminated start.
func ParseSilence(output []byte) []Period {
	var periods []Period
	var start float64
	open := false

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				start = v
				open = true
			}
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && open {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				periods = append(periods, Period{Start: start, End: v})
				open = false
			}
		}
	}
	return periods
}

// TotalSilence sums the duration of periods.
func TotalSilence(periods []Period) float64 {
	var total float64
	for _, p := range periods {
		total += p.Duration()
	}
	return total
}

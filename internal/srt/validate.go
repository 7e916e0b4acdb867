package srt

import (
	"fmt"
	"os"
)

// Validate checks an SRT file for issues that would make timing analysis
// unreliable. An empty slice means the file passed.
func Validate(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	cues := parseCues(string(data))
	if len(cues) == 0 {
		return []string{"no_valid_timestamps"}
	}

	var issues []string
	inverted := 0
	unordered := 0
	for i, c := range cues {
		if c.end <= c.start {
			inverted++
		}
		if i > 0 && c.start < cues[i-1].start {
			unordered++
		}
	}
	if inverted > 0 {
		issues = append(issues, fmt.Sprintf("cue_end_before_start: count=%d", inverted))
	}
	if unordered > 0 {
		issues = append(issues, fmt.Sprintf("cues_out_of_order: count=%d", unordered))
	}
	return issues
}

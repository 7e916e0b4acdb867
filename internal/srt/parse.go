package srt

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"subsync/internal/segment"
)

// cue is one parsed subtitle block. Cues that fail the segment invariant are
// kept here so Validate can report them.
type cue struct {
	index int
	start float64
	end   float64
	text  string
}

var timingLineRe = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2}[,.]\d{3})`)

func normalizeNewlines(content string) string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

var indexLineRe = regexp.MustCompile(`^\d+$`)

// parseCues walks content line by line. Every timing line opens a cue; the
// lines after it, up to the next timing line, are its text. A bare number
// right before a timing line is that cue's index, so cues still split when
// separators are missing or hold only whitespace.
func parseCues(content string) []cue {
	content = strings.TrimSpace(normalizeNewlines(content))
	if content == "" {
		return nil
	}
	var (
		cues []cue
		text []string
		open bool
	)
	flush := func() {
		if open {
			cues[len(cues)-1].text = strings.TrimSpace(strings.Join(text, "\n"))
		}
		text = text[:0]
	}
	for _, line := range strings.Split(content, "\n") {
		m := timingLineRe.FindStringSubmatch(line)
		if m == nil {
			if open || strings.TrimSpace(line) != "" {
				text = append(text, line)
			}
			continue
		}
		start, errStart := ParseTimestamp(m[1])
		end, errEnd := ParseTimestamp(m[2])
		if errStart != nil || errEnd != nil {
			text = append(text, line)
			continue
		}
		var index int
		if n := len(text); n > 0 {
			if last := strings.TrimSpace(text[n-1]); indexLineRe.MatchString(last) {
				_, _ = fmt.Sscanf(last, "%d", &index)
				text = text[:n-1]
			}
		}
		flush()
		cues = append(cues, cue{index: index, start: start, end: end})
		open = true
	}
	flush()
	return cues
}

// Parse extracts ordered timings and raw cue text from SRT content. Cues whose
// end does not follow their start are dropped.
func Parse(content []byte) []segment.Segment {
	cues := parseCues(string(content))
	segs := make([]segment.Segment, 0, len(cues))
	for _, c := range cues {
		seg, err := segment.New(c.start, c.end, c.text)
		if err != nil {
			continue
		}
		segs = append(segs, seg)
	}
	segment.SortByStart(segs)
	return segs
}

// ParseTimings reads an SRT file and returns its cues ordered by start time.
func ParseTimings(path string) ([]segment.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return Parse(data), nil
}

// ParseTexts reads an SRT file and returns the cleaned text of every cue in
// timing order.
func ParseTexts(path string) ([]string, error) {
	segs, err := ParseTimings(path)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = CleanText(s.Text)
	}
	return texts, nil
}

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	styleRe      = regexp.MustCompile(`\{[^}]+\}`)
	soundCueRe   = regexp.MustCompile(`[\[(].*?[\])]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanText lowercases cue text and strips markup tags, style overrides, and
// bracketed sound descriptions.
func CleanText(text string) string {
	text = strings.ToLower(strings.ReplaceAll(text, "\n", " "))
	text = tagRe.ReplaceAllString(text, "")
	text = styleRe.ReplaceAllString(text, "")
	text = soundCueRe.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

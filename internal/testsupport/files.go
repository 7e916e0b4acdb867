package testsupport

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subsync/internal/segment"
	"subsync/internal/srt"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("B", int(size))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSRT renders cues as a numbered SRT file.
func WriteSRT(t testing.TB, path string, cues []segment.Segment) {
	t.Helper()

	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srt.FormatTimestamp(c.Start), srt.FormatTimestamp(c.End), c.Text)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write srt %s: %v", path, err)
	}
}

// SpeechTrack returns n irregularly spaced speech segments at millisecond
// precision, starting near 40s.
func SpeechTrack(n int) []segment.Segment {
	out := make([]segment.Segment, n)
	for i := range out {
		start := 40 + float64(i)*2.7 + math.Mod(float64(i*i)*0.37, 1.3)
		start = math.Round(start*1000) / 1000
		out[i] = segment.Segment{Start: start, End: start + 1.2, Text: fmt.Sprintf("spoken line number %d", i)}
	}
	return out
}

// Shift moves every segment earlier by k seconds, producing cues that need a
// delay of k to line up with the source.
func Shift(segs []segment.Segment, k float64) []segment.Segment {
	out := make([]segment.Segment, len(segs))
	for i, s := range segs {
		out[i] = segment.Segment{Start: s.Start - k, End: s.End - k, Text: s.Text}
	}
	return out
}

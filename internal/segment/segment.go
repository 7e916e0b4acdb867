package segment

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidBounds is returned when a segment does not satisfy 0 <= start < end.
var ErrInvalidBounds = errors.New("segment: invalid bounds")

// Segment is a contiguous time interval with associated text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// New constructs a segment and enforces end > start >= 0.
func New(start, end float64, text string) (Segment, error) {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return Segment{}, fmt.Errorf("%w: non-finite bounds %v..%v", ErrInvalidBounds, start, end)
	}
	if start < 0 {
		return Segment{}, fmt.Errorf("%w: negative start %.3f", ErrInvalidBounds, start)
	}
	if end <= start {
		return Segment{}, fmt.Errorf("%w: end %.3f not after start %.3f", ErrInvalidBounds, end, start)
	}
	return Segment{Start: start, End: end, Text: text}, nil
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Starts returns the start times of segs in order.
func Starts(segs []Segment) []float64 {
	out := make([]float64, len(segs))
	for i, s := range segs {
		out[i] = s.Start
	}
	return out
}

// SortByStart orders segs by start time in place. Equal starts keep their
// relative order.
func SortByStart(segs []Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Start < segs[j].Start
	})
}

// FilterShort returns the segments longer than minDuration, ordered by start.
// The input slice is not modified.
func FilterShort(segs []Segment, minDuration float64) []Segment {
	kept := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.Duration() > minDuration {
			kept = append(kept, s)
		}
	}
	SortByStart(kept)
	return kept
}

// Head returns at most n leading segments.
func Head(segs []Segment, n int) []Segment {
	if n < 0 || n >= len(segs) {
		return segs
	}
	return segs[:n]
}

// Midpoint returns the segment at index len(segs)/2.
func Midpoint(segs []Segment) (Segment, bool) {
	if len(segs) == 0 {
		return Segment{}, false
	}
	return segs[len(segs)/2], true
}

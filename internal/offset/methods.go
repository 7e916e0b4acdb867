package offset

import (
	"math"

	"subsync/internal/segment"
)

// Method names as they appear in logs and results.
const (
	MethodFirstSegment   = "first_segment"
	MethodCrossCorrelate = "cross_correlation"
	MethodGapCorrelation = "gap_correlation"
	MethodMidpoint       = "midpoint"
)

// MethodResult is the contribution of one estimation method. Score is
// method-specific: mean match distance for cross-correlation, Pearson r for
// gap correlation. OK is false when the method was skipped or failed.
type MethodResult struct {
	Name       string  `json:"name"`
	Offset     float64 `json:"offset"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Matched    int     `json:"matched,omitempty"`
	OK         bool    `json:"ok"`
	Reason     string  `json:"reason,omitempty"`
}

func skipped(name, reason string) MethodResult {
	return MethodResult{Name: name, Reason: reason}
}

// FirstSegment aligns the first cue with the first speech segment.
func FirstSegment(subs, speech []segment.Segment) MethodResult {
	if len(subs) == 0 || len(speech) == 0 {
		return skipped(MethodFirstSegment, "empty input")
	}
	return MethodResult{
		Name:       MethodFirstSegment,
		Offset:     speech[0].Start - subs[0].Start,
		Confidence: 0.3,
		OK:         true,
	}
}

// SearchRadius returns the candidate grid half-width for a first-segment hint.
func SearchRadius(hint float64, p Params) float64 {
	p = p.withDefaults()
	return math.Max(p.BaseSearchRadius, math.Abs(hint)+p.SearchMargin)
}

// Candidates returns the shift grid from -radius (inclusive) to +radius
// (exclusive). Values are derived from an integer index so the grid contains
// exact multiples of the resolution, zero included.
func Candidates(radius, resolution float64) []float64 {
	if radius <= 0 || resolution <= 0 {
		return nil
	}
	steps := int(math.Ceil(radius/resolution - 1e-9))
	out := make([]float64, 0, 2*steps)
	for i := -steps; i < steps; i++ {
		out = append(out, float64(i)*resolution)
	}
	return out
}

// scoreCandidate shifts every sampled cue start by shift and measures the
// distance to the nearest speech start. Under-matched candidates carry the
// penalty; unmatched cues count as MaxSegmentDistance inside it so that a
// partial match still ranks above no match at all.
func scoreCandidate(subStarts, speechStarts []float64, shift float64, p Params) (float64, int) {
	var sum float64
	matched := 0
	for _, start := range subStarts {
		adjusted := start + shift
		nearest := math.Inf(1)
		for _, s := range speechStarts {
			if d := math.Abs(s - adjusted); d < nearest {
				nearest = d
			}
		}
		if nearest < p.MaxSegmentDistance {
			sum += nearest
			matched++
		}
	}
	if float64(matched) < float64(len(subStarts))*p.MinMatchRatio {
		unmatched := len(subStarts) - matched
		return p.UnmatchedPenalty + (sum+float64(unmatched)*p.MaxSegmentDistance)/float64(len(subStarts)), matched
	}
	return sum / float64(matched), matched
}

// CrossCorrelate searches the candidate grid for the shift with the lowest
// mean nearest-neighbour distance between the first SampleSize starts of each
// list. Scores within one resolution step count as a tie, and a tie goes to the
// candidate matching more segments, then to the earliest one. When every
// candidate is penalized the result is not OK and carries the hint as its
// offset.
func CrossCorrelate(subs, speech []segment.Segment, hint float64, p Params) MethodResult {
	p = p.withDefaults()
	if len(subs) == 0 || len(speech) == 0 {
		return skipped(MethodCrossCorrelate, "empty input")
	}

	n := min(p.SampleSize, len(subs), len(speech))
	subStarts := segment.Starts(subs[:n])
	speechStarts := segment.Starts(speech[:n])

	best := MethodResult{Name: MethodCrossCorrelate, Offset: hint, Score: math.Inf(1)}
	for _, shift := range Candidates(SearchRadius(hint, p), p.Resolution) {
		score, matched := scoreCandidate(subStarts, speechStarts, shift, p)
		if betterCandidate(score, matched, best, p.Resolution) {
			best.Score = score
			best.Offset = shift
			best.Matched = matched
		}
	}

	if best.Score >= p.UnmatchedPenalty {
		return MethodResult{
			Name:    MethodCrossCorrelate,
			Offset:  hint,
			Score:   best.Score,
			Matched: best.Matched,
			Reason:  "no candidate matched enough segments",
		}
	}
	best.OK = true
	best.Confidence = clamp01(1 - best.Score/p.MaxSegmentDistance)
	return best
}

func betterCandidate(score float64, matched int, best MethodResult, tolerance float64) bool {
	switch {
	case math.IsInf(best.Score, 1):
		return true
	case matched > best.Matched:
		return score <= best.Score+tolerance
	case matched < best.Matched:
		return score < best.Score-tolerance
	}
	return score < best.Score
}

// GapCorrelation computes the Pearson correlation of z-scored inter-start gaps
// over the sampled segments. It needs more than GapMinStarts starts in each
// sample and more than two overlapping gaps.
func GapCorrelation(subs, speech []segment.Segment, p Params) MethodResult {
	p = p.withDefaults()
	n := min(p.SampleSize, len(subs), len(speech))
	if n <= p.GapMinStarts {
		return skipped(MethodGapCorrelation, "too few segments")
	}

	subGaps := gaps(segment.Starts(subs[:n]))
	speechGaps := gaps(segment.Starts(speech[:n]))
	overlap := min(len(subGaps), len(speechGaps))
	if overlap <= 2 {
		return skipped(MethodGapCorrelation, "too few gaps")
	}

	r := pearson(zscore(subGaps[:overlap]), zscore(speechGaps[:overlap]))
	if math.IsNaN(r) {
		return skipped(MethodGapCorrelation, "constant gap pattern")
	}
	return MethodResult{
		Name:       MethodGapCorrelation,
		Score:      r,
		Confidence: clamp01(r),
		OK:         true,
	}
}

// Midpoint aligns the middle segment of each list. Both lists need more than
// MidpointMinSegments entries.
func Midpoint(subs, speech []segment.Segment, p Params) MethodResult {
	p = p.withDefaults()
	if len(subs) <= p.MidpointMinSegments || len(speech) <= p.MidpointMinSegments {
		return skipped(MethodMidpoint, "too few segments")
	}
	midSub, _ := segment.Midpoint(subs)
	midSpeech, _ := segment.Midpoint(speech)
	return MethodResult{
		Name:       MethodMidpoint,
		Offset:     midSpeech.Start - midSub.Start,
		Confidence: 0.3,
		OK:         true,
	}
}

// Reconcile picks the raw offset from the cross-correlation and midpoint
// results. A midpoint that disagrees by more than MidpointDisagreement pulls
// the result toward itself with weight 1-BlendWeight.
func Reconcile(cross, mid MethodResult, p Params) (float64, bool) {
	p = p.withDefaults()
	base := cross.Offset
	if !mid.OK {
		return base, false
	}
	if math.Abs(mid.Offset-base) > p.MidpointDisagreement {
		return base*p.BlendWeight + mid.Offset*(1-p.BlendWeight), true
	}
	return base, false
}

func gaps(starts []float64) []float64 {
	if len(starts) < 2 {
		return nil
	}
	out := make([]float64, len(starts)-1)
	for i := 1; i < len(starts); i++ {
		out[i-1] = starts[i] - starts[i-1]
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var acc float64
	for _, v := range values {
		acc += (v - m) * (v - m)
	}
	return math.Sqrt(acc / float64(len(values)))
}

func zscore(values []float64) []float64 {
	m := mean(values)
	sd := stddev(values) + 1e-6
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - m) / sd
	}
	return out
}

func pearson(a, b []float64) float64 {
	ma, mb := mean(a), mean(b)
	var cov, va, vb float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(va*vb)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

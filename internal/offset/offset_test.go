package offset

import (
	"context"
	"math"
	"strings"
	"testing"

	"subsync/internal/logging"
	"subsync/internal/segment"
)

func seg(start, end float64, text string) segment.Segment {
	return segment.Segment{Start: start, End: end, Text: text}
}

// speechTrack returns n segments with irregular spacing so no shift other
// than the true one lines the lists up.
func speechTrack(n int) []segment.Segment {
	out := make([]segment.Segment, n)
	for i := range out {
		start := 40 + float64(i)*2.7 + math.Mod(float64(i*i)*0.37, 1.3)
		out[i] = seg(start, start+1.2, "")
	}
	return out
}

// shifted returns segs moved by -k, i.e. subtitles that need +k to align.
func shifted(segs []segment.Segment, k float64) []segment.Segment {
	out := make([]segment.Segment, len(segs))
	for i, s := range segs {
		out[i] = seg(s.Start-k, s.End-k, s.Text)
	}
	return out
}

func newTestEstimator() *Estimator {
	return NewEstimator(DefaultParams(), logging.NewNop())
}

func TestEstimateRecoversSyntheticOffset(t *testing.T) {
	speech := speechTrack(40)
	for _, k := range []float64{0, 3, -7.25, 12.4, 0.35, -25.5} {
		est := newTestEstimator().Estimate(context.Background(), Input{Subtitles: shifted(speech, k), Speech: speech})
		if math.Abs(est.Offset-k) > DefaultParams().Resolution+1e-9 {
			t.Errorf("k=%v: estimated %v", k, est.Offset)
		}
		if est.Blended {
			t.Errorf("k=%v: unexpected blend", k)
		}
		cross, _ := est.Method(MethodCrossCorrelate)
		if !cross.OK {
			t.Errorf("k=%v: cross-correlation not OK: %+v", k, cross)
		}
	}
}

func TestEstimateWidensSearchBeyondBaseRadius(t *testing.T) {
	speech := shifted(speechTrack(30), -40)
	subs := shifted(speech, 38)

	est := newTestEstimator().Estimate(context.Background(), Input{Subtitles: subs, Speech: speech})
	if math.Abs(est.Offset-38) > 0.05+1e-9 {
		t.Fatalf("expected ~38s offset, got %v", est.Offset)
	}
}

func TestEstimateScenarios(t *testing.T) {
	tests := []struct {
		name   string
		subs   []segment.Segment
		speech []segment.Segment
		want   float64
		action string
	}{
		{"delay", []segment.Segment{seg(0, 2, "a")}, []segment.Segment{seg(3, 5, "")}, 3, "delay subtitles by 3.00s"},
		{"advance", []segment.Segment{seg(5, 7, "")}, []segment.Segment{seg(2, 4, "")}, -3, "advance subtitles by 3.00s"},
		{"in sync", speechTrack(12), speechTrack(12), 0, "subtitles already in sync"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := newTestEstimator().Estimate(context.Background(), Input{Subtitles: tt.subs, Speech: tt.speech})
			if math.Abs(est.Offset-tt.want) > 0.05 {
				t.Fatalf("offset = %v, want %v", est.Offset, tt.want)
			}
			if got := Describe(est.Offset); got != tt.action {
				t.Fatalf("Describe = %q, want %q", got, tt.action)
			}
			if tt.want == 0 && !InSync(est.Offset, DefaultParams().SyncThreshold) {
				t.Fatal("expected in-sync classification")
			}
		})
	}
}

func TestEstimateEmptyInputs(t *testing.T) {
	speech := speechTrack(5)
	for _, in := range []Input{{Speech: speech}, {Subtitles: speech}, {}} {
		est := newTestEstimator().Estimate(context.Background(), in)
		if est.Offset != 0 || !est.Empty {
			t.Fatalf("expected empty zero estimate, got %+v", est)
		}
	}
}

func TestFewSegmentsSkipGapAndMidpoint(t *testing.T) {
	speech := speechTrack(2)
	est := newTestEstimator().Estimate(context.Background(), Input{Subtitles: shifted(speech, 1), Speech: speech})
	for _, name := range []string{MethodGapCorrelation, MethodMidpoint} {
		m, ok := est.Method(name)
		if !ok || m.OK {
			t.Fatalf("%s should be skipped, got %+v", name, m)
		}
	}
	if math.Abs(est.Offset-1) > 0.05 {
		t.Fatalf("offset = %v, want 1", est.Offset)
	}
}

func TestCrossCorrelateAllPenalizedFallsBackToHint(t *testing.T) {
	subs := []segment.Segment{seg(0, 1, ""), seg(10, 11, ""), seg(20, 21, ""), seg(30, 31, "")}
	speech := []segment.Segment{seg(1, 2, ""), seg(6, 7, ""), seg(52, 53, ""), seg(98, 99, "")}

	res := CrossCorrelate(subs, speech, 1, DefaultParams())
	if res.OK {
		t.Fatalf("expected penalized result, got %+v", res)
	}
	if res.Offset != 1 {
		t.Fatalf("expected hint offset 1, got %v", res.Offset)
	}
	if res.Score < DefaultParams().UnmatchedPenalty {
		t.Fatalf("expected penalized score, got %v", res.Score)
	}
}

func TestCrossCorrelatePrefersMoreMatchesOnNearTies(t *testing.T) {
	// Shifting by -4.15 lines up one pair exactly; -1.65 lines up both within 10ms.
	subs := []segment.Segment{seg(10, 11, ""), seg(12.5, 13.5, "")}
	speech := []segment.Segment{seg(8.35, 9.35, ""), seg(10.84, 11.84, "")}

	res := CrossCorrelate(subs, speech, 0, DefaultParams())
	if !res.OK {
		t.Fatalf("expected a match, got %+v", res)
	}
	if math.Abs(res.Offset+1.65) > 1e-9 {
		t.Fatalf("expected offset -1.65, got %v", res.Offset)
	}
	if res.Matched != 2 {
		t.Fatalf("expected both segments matched, got %d", res.Matched)
	}
}

func TestCandidatesGrid(t *testing.T) {
	c := Candidates(30, 0.05)
	if len(c) != 1200 {
		t.Fatalf("expected 1200 candidates, got %d", len(c))
	}
	if c[0] != -30 || c[600] != 0 {
		t.Fatalf("unexpected grid anchors: first=%v mid=%v", c[0], c[600])
	}
	if last := c[len(c)-1]; last >= 30 || math.Abs(last-29.95) > 1e-9 {
		t.Fatalf("last candidate should be just below radius, got %v", last)
	}
	if got := SearchRadius(-25, DefaultParams()); got != 35 {
		t.Fatalf("SearchRadius(-25) = %v, want 35", got)
	}
	if got := SearchRadius(4, DefaultParams()); got != 30 {
		t.Fatalf("SearchRadius(4) = %v, want 30", got)
	}
}

func TestGapCorrelationMatchingRhythm(t *testing.T) {
	speech := speechTrack(20)
	res := GapCorrelation(shifted(speech, 4), speech, DefaultParams())
	if !res.OK || res.Score < 0.99 {
		t.Fatalf("expected near-perfect correlation, got %+v", res)
	}
	if res.Offset != 0 {
		t.Fatalf("gap correlation must not produce an offset, got %v", res.Offset)
	}

	short := GapCorrelation(speech[:3], speech[:3], DefaultParams())
	if short.OK {
		t.Fatalf("three starts should be skipped, got %+v", short)
	}
}

func TestMidpoint(t *testing.T) {
	speech := speechTrack(11)
	res := Midpoint(shifted(speech, 2), speech, DefaultParams())
	if !res.OK || math.Abs(res.Offset-2) > 1e-9 {
		t.Fatalf("unexpected midpoint result %+v", res)
	}
	if Midpoint(speech[:10], speech[:10], DefaultParams()).OK {
		t.Fatal("ten segments should not satisfy the strict minimum")
	}
}

func TestReconcile(t *testing.T) {
	p := DefaultParams()
	cross := MethodResult{Name: MethodCrossCorrelate, Offset: 2, OK: true}

	got, blended := Reconcile(cross, MethodResult{Offset: 10, OK: true}, p)
	if !blended || math.Abs(got-4.4) > 1e-9 {
		t.Fatalf("expected blend to 4.4, got %v blended=%v", got, blended)
	}

	got, blended = Reconcile(cross, MethodResult{Offset: 7, OK: true}, p)
	if blended || got != 2 {
		t.Fatalf("a 5s difference should not blend: %v %v", got, blended)
	}

	got, blended = Reconcile(cross, MethodResult{Offset: 50}, p)
	if blended || got != 2 {
		t.Fatalf("skipped midpoint should be ignored: %v %v", got, blended)
	}
}

func TestDirectionMismatch(t *testing.T) {
	subs := []segment.Segment{seg(0, 1, "")}
	speech := []segment.Segment{seg(3, 4, "")}
	p := DefaultParams()

	tests := []struct {
		offset float64
		want   bool
	}{
		{-2, true},
		{-0.3, false},
		{2, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := DirectionMismatch(tt.offset, subs, speech, p); got != tt.want {
			t.Errorf("DirectionMismatch(%v) = %v, want %v", tt.offset, got, tt.want)
		}
	}

	est := newTestEstimator()
	if got, mismatch := est.CheckDirection(context.Background(), -2, subs, speech); got != -2 || !mismatch {
		t.Fatalf("CheckDirection must keep the offset and flag it, got %v %v", got, mismatch)
	}
}

func TestTextCorroboration(t *testing.T) {
	subTexts := []string{
		"hello there my old friend",
		"hi",
		"completely different words here",
		"we should leave before the storm",
	}
	speech := []segment.Segment{
		seg(1, 2, " Hello there, my friend! "),
		seg(3, 4, "Hi."),
		seg(5, 6, "nothing in common at all"),
		seg(7, 8, "We should leave now, the storm is coming"),
	}
	check := TextCorroboration(subTexts, speech, DefaultParams())
	if check.Pairs != 4 || check.Matches != 2 {
		t.Fatalf("unexpected check %+v", check)
	}
	if check.Ratio != 0.5 {
		t.Fatalf("ratio = %v, want 0.5", check.Ratio)
	}
	if empty := TextCorroboration(nil, speech, DefaultParams()); empty.Pairs != 0 || empty.Ratio != 0 {
		t.Fatalf("expected empty check, got %+v", empty)
	}
}

func TestRoundAndDescribe(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.97, 2.95},
		{-3.024, -3.0},
		{0.01, 0},
		{-0.02, 0},
		{12.376, 12.4},
	}
	for _, tt := range tests {
		if got := Round(tt.in, 0.05); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := Describe(-1.5); got != "advance subtitles by 1.50s" {
		t.Fatalf("Describe(-1.5) = %q", got)
	}
	if Direction(0.05) != DirectionDelay || Direction(-0.05) != DirectionAdvance || Direction(0) != DirectionInSync {
		t.Fatal("unexpected direction labels")
	}
}

func TestRunRecoversFromPanic(t *testing.T) {
	est := newTestEstimator()
	res := est.run(est.logger, "exploding", func() MethodResult {
		var segs []segment.Segment
		_ = segs[3]
		return MethodResult{OK: true}
	})
	if res.OK || res.Name != "exploding" || !strings.Contains(res.Reason, "method failed") {
		t.Fatalf("expected skipped result after panic, got %+v", res)
	}
}

func TestParamsDefaultsFillZeroFields(t *testing.T) {
	p := Params{SampleSize: 5}.withDefaults()
	if p.SampleSize != 5 || p.Resolution != 0.05 || p.BlendWeight != 0.7 {
		t.Fatalf("unexpected params %+v", p)
	}
}

package offset

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"subsync/internal/logging"
	"subsync/internal/segment"
)

// Input is what one estimate needs. SubtitleTexts, when set, holds cleaned
// cue text aligned with Subtitles and is used for text corroboration in place
// of the raw segment text.
type Input struct {
	Subtitles     []segment.Segment
	Speech        []segment.Segment
	SubtitleTexts []string
}

// Estimate is the estimator output. Offset is Raw rounded to the configured
// precision.
type Estimate struct {
	Offset            float64        `json:"offset"`
	Raw               float64        `json:"raw"`
	Methods           []MethodResult `json:"methods"`
	Confidence        float64        `json:"confidence"`
	Blended           bool           `json:"blended"`
	DirectionMismatch bool           `json:"direction_mismatch"`
	Text              TextCheck      `json:"text"`
	Empty             bool           `json:"empty,omitempty"`
}

// Method returns the named method result.
func (e Estimate) Method(name string) (MethodResult, bool) {
	for _, m := range e.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodResult{}, false
}

// Estimator runs the methods and logs each decision.
type Estimator struct {
	params Params
	logger *slog.Logger
}

// NewEstimator builds an estimator. A nil logger discards output.
func NewEstimator(p Params, logger *slog.Logger) *Estimator {
	return &Estimator{
		params: p.withDefaults(),
		logger: logging.NewComponentLogger(logger, "offset"),
	}
}

// Params returns the effective tunables.
func (e *Estimator) Params() Params {
	return e.params
}

// Estimate computes the offset that aligns in.Subtitles with in.Speech. Empty
// input yields a zero estimate.
func (e *Estimator) Estimate(ctx context.Context, in Input) Estimate {
	logger := logging.WithContext(ctx, e.logger)
	p := e.params

	if len(in.Subtitles) == 0 || len(in.Speech) == 0 {
		logging.WarnWithContext(logger, "offset estimation skipped", "offset_empty_input",
			logging.Int("subtitle_segments", len(in.Subtitles)),
			logging.Int("speech_segments", len(in.Speech)),
			logging.String(logging.FieldErrorHint, "check the subtitle file and the audio track"),
			logging.String(logging.FieldImpact, "offset reported as zero"),
		)
		return Estimate{Empty: true}
	}

	logger.Info("analyzing segments",
		logging.Int("subtitle_segments", len(in.Subtitles)),
		logging.Int("speech_segments", len(in.Speech)),
	)

	first := e.run(logger, MethodFirstSegment, func() MethodResult { return FirstSegment(in.Subtitles, in.Speech) })
	cross := e.run(logger, MethodCrossCorrelate, func() MethodResult {
		return CrossCorrelate(in.Subtitles, in.Speech, first.Offset, p)
	})
	if !cross.OK {
		cross.Offset = first.Offset
	}
	gap := e.run(logger, MethodGapCorrelation, func() MethodResult { return GapCorrelation(in.Subtitles, in.Speech, p) })
	mid := e.run(logger, MethodMidpoint, func() MethodResult { return Midpoint(in.Subtitles, in.Speech, p) })

	e.logGap(logger, gap, cross)

	raw, blended := Reconcile(cross, mid, p)
	if blended {
		logging.WarnWithContext(logger, "midpoint disagrees with cross-correlation", "offset_blended",
			logging.Seconds("cross_offset", cross.Offset),
			logging.Seconds("midpoint_offset", mid.Offset),
			logging.Seconds("blended_offset", raw),
			logging.String(logging.FieldErrorHint, "the offset may drift within the file"),
			logging.String(logging.FieldImpact, fmt.Sprintf("offset weighted %.0f%% toward cross-correlation", p.BlendWeight*100)),
		)
	}

	est := Estimate{
		Raw:     raw,
		Offset:  Round(raw, p.Precision),
		Methods: []MethodResult{first, cross, gap, mid},
		Blended: blended,
	}
	est.Confidence = confidence(cross, gap, blended)

	_, est.DirectionMismatch = e.CheckDirection(ctx, est.Offset, in.Subtitles, in.Speech)

	texts := in.SubtitleTexts
	if texts == nil {
		texts = make([]string, len(in.Subtitles))
		for i, s := range in.Subtitles {
			texts[i] = s.Text
		}
	}
	est.Text = TextCorroboration(texts, in.Speech, p)
	if est.Text.Pairs > 0 {
		logger.Info("text validation", logging.Int("pairs", est.Text.Pairs), logging.Float64("ratio", est.Text.Ratio))
	}

	logger.Info("final offset",
		append([]any{
			logging.Seconds("offset", est.Offset),
			logging.String("action", Describe(est.Offset)),
			logging.Float64("confidence", math.Round(est.Confidence*100)/100),
		}, logging.Args(logging.DecisionAttrs("offset", Direction(est.Offset), decisionReason(blended, cross))...)...)...,
	)
	return est
}

// run evaluates one method behind a recover boundary.
func (e *Estimator) run(logger *slog.Logger, name string, fn func() MethodResult) (result MethodResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "estimation method failed", "offset_method_panic",
				logging.String("method", name),
				logging.Any("panic", r),
			)
			result = skipped(name, fmt.Sprintf("method failed: %v", r))
		}
	}()
	result = fn()
	if result.OK {
		logger.Debug("method result",
			logging.String("method", name),
			logging.Seconds("offset", result.Offset),
			logging.Float64("score", result.Score),
		)
	} else {
		logger.Debug("method skipped", logging.String("method", name), logging.String("reason", result.Reason))
	}
	return result
}

func (e *Estimator) logGap(logger *slog.Logger, gap, cross MethodResult) {
	if !gap.OK {
		return
	}
	switch {
	case gap.Score > e.params.GapHighCorrelation && cross.OK && cross.Score < e.params.HighConfidenceScore:
		logger.Info("high confidence in offset",
			logging.Float64("gap_correlation", gap.Score),
			logging.Seconds("offset", cross.Offset),
		)
	case gap.Score < e.params.GapLowCorrelation:
		logging.WarnWithContext(logger, "low gap correlation", "gap_correlation_low",
			logging.Float64("gap_correlation", gap.Score),
			logging.String(logging.FieldErrorHint, "subtitles might not match this audio track or edit"),
			logging.String(logging.FieldImpact, "reported confidence lowered"),
		)
	}
}

// CheckDirection compares the sign of offset with the first-segment
// estimate. A disagreement above SyncThreshold is logged and reported; the
// offset is always returned unchanged.
func (e *Estimator) CheckDirection(ctx context.Context, offset float64, subs, speech []segment.Segment) (float64, bool) {
	if len(subs) == 0 || len(speech) == 0 {
		return offset, false
	}
	mismatch := DirectionMismatch(offset, subs, speech, e.params)
	if mismatch {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "offset direction differs from first segment", "offset_direction_mismatch",
			logging.Seconds("first_segment_offset", speech[0].Start-subs[0].Start),
			logging.Seconds("offset", offset),
			logging.String(logging.FieldErrorHint, "if subtitles are still out of sync, adjust manually"),
			logging.String(logging.FieldImpact, "cross-correlation result kept"),
		)
	}
	return offset, mismatch
}

// DirectionMismatch reports whether offset points the other way from the
// first-segment estimate while exceeding the sync threshold.
func DirectionMismatch(offset float64, subs, speech []segment.Segment, p Params) bool {
	if len(subs) == 0 || len(speech) == 0 {
		return false
	}
	p = p.withDefaults()
	expected := -1
	if speech[0].Start > subs[0].Start {
		expected = 1
	}
	actual := -1
	if offset > 0 {
		actual = 1
	}
	return expected != actual && math.Abs(offset) > p.SyncThreshold
}

func confidence(cross, gap MethodResult, blended bool) float64 {
	c := cross.Confidence
	if gap.OK {
		c = 0.8*c + 0.2*clamp01(gap.Score)
	}
	if blended {
		c *= 0.8
	}
	return clamp01(c)
}

func decisionReason(blended bool, cross MethodResult) string {
	switch {
	case blended:
		return "midpoint blend"
	case cross.OK:
		return "cross-correlation"
	default:
		return "first segment fallback"
	}
}

package offset

// Params holds estimator tunables. Zero fields take their DefaultParams value.
type Params struct {
	// SampleSize caps how many leading segments of each list are compared.
	SampleSize int
	// BaseSearchRadius is the minimum half-width of the candidate grid, seconds.
	BaseSearchRadius float64
	// SearchMargin widens the grid beyond the first-segment guess, seconds.
	SearchMargin float64
	// Resolution is the candidate grid step, seconds.
	Resolution float64
	// MaxSegmentDistance is the farthest a shifted cue may sit from speech and still match.
	MaxSegmentDistance float64
	// MinMatchRatio is the share of sampled cues that must match to avoid the penalty.
	MinMatchRatio float64
	// UnmatchedPenalty is added to the score of under-matched candidates.
	UnmatchedPenalty float64
	// MidpointMinSegments: both lists need strictly more segments for the midpoint method.
	MidpointMinSegments int
	// MidpointDisagreement triggers blending when exceeded, seconds.
	MidpointDisagreement float64
	// BlendWeight is the cross-correlation share of a blended offset.
	BlendWeight float64
	// Precision is the rounding granularity of the final offset, seconds.
	Precision float64
	// SyncThreshold is the magnitude below which subtitles count as in sync.
	SyncThreshold float64

	GapMinStarts        int
	GapHighCorrelation  float64
	GapLowCorrelation   float64
	HighConfidenceScore float64

	TextPairs        int
	TextMinLength    int
	TextLeadingWords int
	TextMinOverlap   int
}

// DefaultParams returns the standard tunables.
func DefaultParams() Params {
	return Params{
		SampleSize:           20,
		BaseSearchRadius:     30,
		SearchMargin:         10,
		Resolution:           0.05,
		MaxSegmentDistance:   2.0,
		MinMatchRatio:        0.5,
		UnmatchedPenalty:     1000,
		MidpointMinSegments:  10,
		MidpointDisagreement: 5,
		BlendWeight:          0.7,
		Precision:            0.05,
		SyncThreshold:        0.5,

		GapMinStarts:        3,
		GapHighCorrelation:  0.5,
		GapLowCorrelation:   0.3,
		HighConfidenceScore: 0.5,

		TextPairs:        5,
		TextMinLength:    10,
		TextLeadingWords: 5,
		TextMinOverlap:   2,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.SampleSize <= 0 {
		p.SampleSize = d.SampleSize
	}
	if p.BaseSearchRadius <= 0 {
		p.BaseSearchRadius = d.BaseSearchRadius
	}
	if p.SearchMargin <= 0 {
		p.SearchMargin = d.SearchMargin
	}
	if p.Resolution <= 0 {
		p.Resolution = d.Resolution
	}
	if p.MaxSegmentDistance <= 0 {
		p.MaxSegmentDistance = d.MaxSegmentDistance
	}
	if p.MinMatchRatio <= 0 {
		p.MinMatchRatio = d.MinMatchRatio
	}
	if p.UnmatchedPenalty <= 0 {
		p.UnmatchedPenalty = d.UnmatchedPenalty
	}
	if p.MidpointMinSegments <= 0 {
		p.MidpointMinSegments = d.MidpointMinSegments
	}
	if p.MidpointDisagreement <= 0 {
		p.MidpointDisagreement = d.MidpointDisagreement
	}
	if p.BlendWeight <= 0 || p.BlendWeight > 1 {
		p.BlendWeight = d.BlendWeight
	}
	if p.Precision <= 0 {
		p.Precision = d.Precision
	}
	if p.SyncThreshold <= 0 {
		p.SyncThreshold = d.SyncThreshold
	}
	if p.GapMinStarts <= 0 {
		p.GapMinStarts = d.GapMinStarts
	}
	if p.GapHighCorrelation == 0 {
		p.GapHighCorrelation = d.GapHighCorrelation
	}
	if p.GapLowCorrelation == 0 {
		p.GapLowCorrelation = d.GapLowCorrelation
	}
	if p.HighConfidenceScore <= 0 {
		p.HighConfidenceScore = d.HighConfidenceScore
	}
	if p.TextPairs <= 0 {
		p.TextPairs = d.TextPairs
	}
	if p.TextMinLength <= 0 {
		p.TextMinLength = d.TextMinLength
	}
	if p.TextLeadingWords <= 0 {
		p.TextLeadingWords = d.TextLeadingWords
	}
	if p.TextMinOverlap <= 0 {
		p.TextMinOverlap = d.TextMinOverlap
	}
	return p
}

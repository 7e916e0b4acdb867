package audioprep

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterChain configures the speech-clarity filter pass. Stages render in a
// fixed order and disabled stages are omitted.
type FilterChain struct {
	// Leading silence removal
	SilenceRemoveEnabled bool
	SilenceStartDuration float64 // seconds of silence required before trimming
	SilenceThresholdDB   float64

	// EBU R128 loudness normalization
	LoudnormEnabled bool
	LoudnessTarget  float64 // integrated loudness, LUFS
	LoudnessRange   float64 // LU
	TruePeak        float64 // dBTP

	// Rumble removal
	HighpassEnabled bool
	HighpassFreq    float64 // Hz

	// Speech-band presence boost
	EqualizerEnabled bool
	EQFrequency      float64 // Hz
	EQWidth          float64 // Hz
	EQGain           float64 // dB

	// Dynamic range compression
	CompressorEnabled bool
	CompThresholdDB   float64
	CompRatio         float64
	CompAttack        float64 // ms
	CompRelease       float64 // ms
}

// DefaultFilterChain returns the standard speech-clarity chain.
func DefaultFilterChain() FilterChain {
	return FilterChain{
		SilenceRemoveEnabled: true,
		SilenceStartDuration: 0.1,
		SilenceThresholdDB:   -50,

		LoudnormEnabled: true,
		LoudnessTarget:  -16,
		LoudnessRange:   11,
		TruePeak:        -1.5,

		HighpassEnabled: true,
		HighpassFreq:    80,

		EqualizerEnabled: true,
		EQFrequency:      1000,
		EQWidth:          2000,
		EQGain:           3,

		CompressorEnabled: true,
		CompThresholdDB:   -20,
		CompRatio:         4,
		CompAttack:        5,
		CompRelease:       50,
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c FilterChain) buildSilenceRemoveFilter() string {
	if !c.SilenceRemoveEnabled {
		return ""
	}
	return fmt.Sprintf("silenceremove=start_periods=1:start_duration=%s:start_threshold=%sdB",
		num(c.SilenceStartDuration), num(c.SilenceThresholdDB))
}

func (c FilterChain) buildLoudnormFilter() string {
	if !c.LoudnormEnabled {
		return ""
	}
	return fmt.Sprintf("loudnorm=I=%s:LRA=%s:TP=%s", num(c.LoudnessTarget), num(c.LoudnessRange), num(c.TruePeak))
}

func (c FilterChain) buildHighpassFilter() string {
	if !c.HighpassEnabled {
		return ""
	}
	return fmt.Sprintf("highpass=f=%s", num(c.HighpassFreq))
}

func (c FilterChain) buildEqualizerFilter() string {
	if !c.EqualizerEnabled {
		return ""
	}
	return fmt.Sprintf("equalizer=f=%s:width_type=h:width=%s:g=%s", num(c.EQFrequency), num(c.EQWidth), num(c.EQGain))
}

func (c FilterChain) buildCompressorFilter() string {
	if !c.CompressorEnabled {
		return ""
	}
	return fmt.Sprintf("acompressor=threshold=%sdB:ratio=%s:attack=%s:release=%s",
		num(c.CompThresholdDB), num(c.CompRatio), num(c.CompAttack), num(c.CompRelease))
}

// String renders the ffmpeg -af argument.
func (c FilterChain) String() string {
	stages := []string{
		c.buildSilenceRemoveFilter(),
		c.buildLoudnormFilter(),
		c.buildHighpassFilter(),
		c.buildEqualizerFilter(),
		c.buildCompressorFilter(),
	}
	parts := stages[:0]
	for _, stage := range stages {
		if stage != "" {
			parts = append(parts, stage)
		}
	}
	return strings.Join(parts, ",")
}

// Empty reports whether every stage is disabled.
func (c FilterChain) Empty() bool {
	return c.String() == ""
}

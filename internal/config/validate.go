package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validatePreprocess(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSync() error {
	s := c.Sync
	if s.SampleSize <= 0 {
		return errors.New("sync.sample_size must be positive")
	}
	if s.BaseSearchRadius <= 0 {
		return errors.New("sync.base_search_radius must be positive")
	}
	if s.SearchMargin < 0 {
		return errors.New("sync.search_margin must be non-negative")
	}
	if s.Resolution <= 0 || s.Resolution > s.BaseSearchRadius {
		return errors.New("sync.resolution must be positive and no larger than sync.base_search_radius")
	}
	if s.MaxSegmentDistance <= 0 {
		return errors.New("sync.max_segment_distance must be positive")
	}
	if s.MinMatchRatio < 0 || s.MinMatchRatio > 1 {
		return errors.New("sync.min_match_ratio must be between 0 and 1")
	}
	if s.UnmatchedPenalty < 0 {
		return errors.New("sync.unmatched_penalty must be non-negative")
	}
	if s.MidpointMinSegments < 0 {
		return errors.New("sync.midpoint_min_segments must be non-negative")
	}
	if s.MidpointDisagreement <= 0 {
		return errors.New("sync.midpoint_disagreement must be positive")
	}
	if s.BlendWeight < 0 || s.BlendWeight > 1 {
		return errors.New("sync.blend_weight must be between 0 and 1")
	}
	if s.Precision <= 0 {
		return errors.New("sync.precision must be positive")
	}
	if s.SyncThreshold <= 0 {
		return errors.New("sync.sync_threshold must be positive")
	}
	if s.MinSegmentDuration < 0 {
		return errors.New("sync.min_segment_duration must be non-negative")
	}
	if s.Workers < 1 || s.Workers > maxWorkers {
		return fmt.Errorf("sync.workers must be between 1 and %d", maxWorkers)
	}
	return nil
}

func (c *Config) validatePreprocess() error {
	if c.Preprocess.TimeoutSeconds <= 0 {
		return errors.New("preprocess.timeout_seconds must be positive")
	}
	if c.Preprocess.SampleRate < 8000 {
		return errors.New("preprocess.sample_rate must be at least 8000")
	}
	if c.Preprocess.SilenceThresholdDB >= 0 {
		return errors.New("preprocess.silence_threshold_db must be negative")
	}
	return nil
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("whisperx.vad_method: unsupported value %q (use silero or pyannote)", c.WhisperX.VADMethod)
	}
	if c.WhisperX.VADMethod == "pyannote" && c.WhisperX.HFToken == "" {
		return errors.New("whisperx.hf_token is required for the pyannote VAD (set HF_TOKEN or whisperx.hf_token)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.color: unsupported value %q", c.Logging.Color)
	}
	return nil
}

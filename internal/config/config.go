package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains on-disk locations used by the sync engine.
type Paths struct {
	WorkDir         string `toml:"work_dir"`
	LogDir          string `toml:"log_dir"`
	CalibrationFile string `toml:"calibration_file"`
	HistoryDB       string `toml:"history_db"`
}

// WhisperX contains speech segmentation settings.
type WhisperX struct {
	Model          string `toml:"model"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	VADMethod      string `toml:"vad_method"`
	HFToken        string `toml:"hf_token"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Sync contains offset estimation tunables and run behaviour.
type Sync struct {
	SampleSize           int     `toml:"sample_size"`
	BaseSearchRadius     float64 `toml:"base_search_radius"`
	SearchMargin         float64 `toml:"search_margin"`
	Resolution           float64 `toml:"resolution"`
	MaxSegmentDistance   float64 `toml:"max_segment_distance"`
	MinMatchRatio        float64 `toml:"min_match_ratio"`
	UnmatchedPenalty     float64 `toml:"unmatched_penalty"`
	MidpointMinSegments  int     `toml:"midpoint_min_segments"`
	MidpointDisagreement float64 `toml:"midpoint_disagreement"`
	BlendWeight          float64 `toml:"blend_weight"`
	Precision            float64 `toml:"precision"`
	SyncThreshold        float64 `toml:"sync_threshold"`
	MinSegmentDuration   float64 `toml:"min_segment_duration"`
	UseCalibration       bool    `toml:"use_calibration"`
	UsePreprocessing     bool    `toml:"use_preprocessing"`
	Workers              int     `toml:"workers"`
}

// Preprocess contains audio preprocessing settings.
type Preprocess struct {
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	SampleRate         int     `toml:"sample_rate"`
	SilenceThresholdDB float64 `toml:"silence_threshold_db"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Color  string `toml:"color"`
}

// Config encapsulates all configuration values for subsync.
//
// Configuration sections:
//   - Paths: work directory, logs, calibration history, run ledger
//   - WhisperX: speech segmentation model and runtime
//   - Sync: estimator tunables, calibration and preprocessing toggles, batch workers
//   - Preprocess: ffmpeg filter pass timeout and output format
//   - Logging: log format, level, and colour
type Config struct {
	Paths      Paths      `toml:"paths"`
	WhisperX   WhisperX   `toml:"whisperx"`
	Sync       Sync       `toml:"sync"`
	Preprocess Preprocess `toml:"preprocess"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and log directories plus the parents of
// the calibration file and history database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir}
	for _, file := range []string{c.Paths.CalibrationFile, c.Paths.HistoryDB} {
		if strings.TrimSpace(file) != "" {
			dirs = append(dirs, filepath.Dir(file))
		}
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for extraction and preprocessing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

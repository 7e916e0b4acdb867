package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subsync/internal/audioprep"
	"subsync/internal/calibration"
	"subsync/internal/history"
	"subsync/internal/offset"
	"subsync/internal/segment"
	"subsync/internal/services/whisperx"
)

// ErrNoSubtitle reports a subtitle path that does not point at a readable file.
var ErrNoSubtitle = errors.New("subtitle file not found")

// AudioExtractor pulls a mono PCM track out of a video.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, source, dest string) (whisperx.Audio, error)
}

// Preprocessor cleans up extracted audio. It never fails; a fallback result
// carries the original path.
type Preprocessor interface {
	Preprocess(ctx context.Context, audioPath string) audioprep.Result
}

// SilenceDetector reports silent periods in an audio file.
type SilenceDetector interface {
	DetectSilence(ctx context.Context, audioPath string, thresholdDB float64) ([]audioprep.Period, error)
}

// Segmenter detects speech segments in an audio file.
type Segmenter interface {
	Segment(ctx context.Context, audioPath, language string) ([]segment.Segment, error)
}

// Codec reads subtitle timings and materializes shifted files.
type Codec interface {
	ParseTimings(path string) ([]segment.Segment, error)
	ParseTexts(path string) ([]string, error)
	Rewrite(path string, offsetSeconds float64, outputPath string) (string, error)
	DefaultOutputPath(path string) string
}

// Recorder stores completed runs.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (history.Run, error)
}

// Options wires the engine's collaborators. Extractor and Segmenter are
// required; a nil Preprocessor disables preprocessing, a nil Codec means SRT.
type Options struct {
	Extractor    AudioExtractor
	Preprocessor Preprocessor
	Segmenter    Segmenter
	Codec        Codec
	Calibration  *calibration.Store
	Recorder     Recorder
	Params       offset.Params

	// SilenceDetector serves requests with DetectSilence set.
	SilenceDetector    SilenceDetector
	SilenceThresholdDB float64

	// WorkDir holds per-run temporary directories when a request has none.
	WorkDir string
	// Language overrides the audio stream language passed to the segmenter.
	Language string
	// MinSegmentDuration drops speech segments at or below it. Zero keeps all.
	MinSegmentDuration float64

	Logger *slog.Logger
}

// Engine executes sync runs. It is safe for concurrent use when its
// collaborators are.
type Engine struct {
	extractor    AudioExtractor
	preprocessor Preprocessor
	segmenter    Segmenter
	codec        Codec
	calibration  *calibration.Store
	recorder     Recorder
	silence      SilenceDetector
	silenceDB    float64
	estimator    *offset.Estimator
	params       offset.Params
	workDir      string
	language     string
	minSegment   float64
	logger       *slog.Logger
	now          func() time.Time
	newRunID     func() string
}

// Request describes one sync run.
type Request struct {
	VideoPath    string
	SubtitlePath string
	// OutputPath defaults to <stem>_synced<ext> next to the subtitle.
	OutputPath string
	// WorkDir overrides the engine work directory for temporary audio.
	WorkDir string
	// ContentType overrides the file-name classification used for calibration.
	ContentType      calibration.ContentType
	UseCalibration   bool
	UsePreprocessing bool
	// DetectSilence adds a silence report of the extracted audio.
	DetectSilence bool
}

// Result reports a completed sync.
type Result struct {
	RunID            string
	OutputPath       string
	RawOffset        float64
	CalibratedOffset float64
	AppliedOffset    float64
	InSync           bool
	Copied           bool
	Calibrated       bool
	ContentType      calibration.ContentType
	Estimate         offset.Estimate
	Suggestion       calibration.Suggestion
	Preprocessed     bool
	Language         string
	AudioDuration    time.Duration
	SpeechSegments   int
	SubtitleCues     int
	Duration         time.Duration
}

// Action describes the applied shift for users.
func (r Result) Action() string {
	return offset.Describe(r.AppliedOffset)
}

// CheckResult reports a quick sync check.
type CheckResult struct {
	RunID         string
	RawOffset     float64
	Offset        float64
	InSync        bool
	Calibrated    bool
	ContentType   calibration.ContentType
	Estimate      offset.Estimate
	Suggestion    calibration.Suggestion
	Preprocessed  bool
	AudioDuration time.Duration
	Silence       []audioprep.Period
	Duration      time.Duration
}

// Action describes the shift the check would apply.
func (r CheckResult) Action() string {
	return offset.Describe(r.Offset)
}

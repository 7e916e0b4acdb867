package whisperx

import "time"

// Config captures runtime settings for WhisperX segmentation.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// Language is an ISO 639 hint; empty lets WhisperX detect it.
	Language string
	// Timeout bounds a single WhisperX invocation. Zero means no limit.
	Timeout time.Duration
	// MinSegmentDuration drops segments whose duration does not exceed it.
	MinSegmentDuration float64
}

// WhisperX configuration constants.
const (
	DefaultModel              = "large-v3"
	DefaultMinSegmentDuration = 0.3
	CUDAIndexURL              = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL              = "https://pypi.org/simple"
	BatchSize                 = "4"
	ChunkSize                 = "15"
	VADOnset                  = "0.08"
	VADOffset                 = "0.07"
	BeamSize                  = "5"
	Temperature               = "0.0"
	SegmentResolution         = "sentence"
	OutputFormat              = "json"
	CPUDevice                 = "cpu"
	CUDADevice                = "cuda"
	CPUComputeType            = "float32"
	VADMethodPyannote         = "pyannote"
	VADMethodSilero           = "silero"
)

// Extraction output format. WhisperX and the preprocessor both expect it.
const (
	SampleRate = 16000
	Channels   = 1
	AudioCodec = "pcm_s16le"
)

// Command names for external tools.
const (
	UVXCommand     = "uvx"
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"
)

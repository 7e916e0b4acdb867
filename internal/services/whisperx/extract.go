package whisperx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"

	langpkg "subsync/internal/language"
	"subsync/internal/media/ffprobe"
	"subsync/internal/services"
)

var (
	// ErrNoAudioStream reports a source file without any audio track.
	ErrNoAudioStream = errors.New("no audio stream")
	// ErrTruncatedAudio reports extracted audio much shorter than the container.
	ErrTruncatedAudio = errors.New("extracted audio truncated")
)

// minExtractedRatio is the shortest extracted length, relative to the
// container duration, accepted as a complete extraction.
const minExtractedRatio = 0.5

// Audio describes an extracted PCM track.
type Audio struct {
	Path        string
	StreamIndex int
	// Language is the ISO 639-1 code from the stream tags, when present.
	Language string
	Duration time.Duration
}

// ProbeFunc inspects a media file. ffprobe.Inspect satisfies it.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Extractor pulls the first audio track of a video into a mono 16 kHz WAV.
type Extractor struct {
	ffmpegBinary  string
	ffprobeBinary string
	probe         ProbeFunc
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewExtractor creates an extractor. Empty binaries fall back to ffmpeg and ffprobe on PATH.
func NewExtractor(ffmpegBinary, ffprobeBinary string) *Extractor {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if ffprobeBinary == "" {
		ffprobeBinary = FFprobeCommand
	}
	return &Extractor{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		probe:         ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// WithProbe sets a custom media probe (for testing).
func (e *Extractor) WithProbe(probe ProbeFunc) {
	e.probe = probe
}

// ExtractAudio writes the first audio stream of source to dest and verifies the
// result is readable PCM.
func (e *Extractor) ExtractAudio(ctx context.Context, source, dest string) (Audio, error) {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return Audio{}, services.Wrap(services.ErrValidation, "extract", "extract audio", "source and destination required", nil)
	}

	probe, err := e.probe(ctx, e.ffprobeBinary, source)
	if err != nil {
		return Audio{}, services.Wrap(services.ErrExternalTool, "extract", "probe media", source, err)
	}
	stream, ok := probe.FirstAudioStream()
	if !ok {
		return Audio{}, services.Wrap(services.ErrValidation, "extract", "select audio track", source, ErrNoAudioStream)
	}

	args := buildExtractArgs(source, stream.Index, dest)
	if err := e.run(ctx, e.ffmpegBinary, args...); err != nil {
		_ = os.Remove(dest)
		return Audio{}, services.Wrap(services.ErrExternalTool, "extract", "ffmpeg extract", "", err)
	}

	duration, err := VerifyPCM(dest, SampleRate)
	if err != nil {
		_ = os.Remove(dest)
		return Audio{}, services.Wrap(services.ErrExternalTool, "extract", "verify audio", dest, err)
	}
	if media := probe.DurationSeconds(); media > 0 && duration.Seconds() < media*minExtractedRatio {
		_ = os.Remove(dest)
		detail := fmt.Sprintf("%.1fs of %.1fs", duration.Seconds(), media)
		return Audio{}, services.Wrap(services.ErrExternalTool, "extract", "verify audio", detail, ErrTruncatedAudio)
	}

	return Audio{
		Path:        dest,
		StreamIndex: stream.Index,
		Language:    langpkg.ToISO2(langpkg.ExtractFromTags(stream.Tags)),
		Duration:    duration,
	}, nil
}

func buildExtractArgs(source string, audioIndex int, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:%d", audioIndex),
		"-vn",
		"-sn",
		"-dn",
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", AudioCodec,
		dest,
	}
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// VerifyPCM checks that path is a mono PCM WAV at the expected sample rate and
// returns its duration. A zero sampleRate skips the rate check.
func VerifyPCM(path string, sampleRate int) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("%s is not a valid wav file", path)
	}
	if decoder.NumChans != Channels {
		return 0, fmt.Errorf("expected mono audio, got %d channels", decoder.NumChans)
	}
	if sampleRate > 0 && int(decoder.SampleRate) != sampleRate {
		return 0, fmt.Errorf("expected %d Hz audio, got %d Hz", sampleRate, decoder.SampleRate)
	}
	duration, err := decoder.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration: %w", err)
	}
	if duration <= 0 {
		return 0, errors.New("wav contains no samples")
	}
	return duration, nil
}

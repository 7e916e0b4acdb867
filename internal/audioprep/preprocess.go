package audioprep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"subsync/internal/logging"
)

const (
	// DefaultTimeout bounds one preprocessing pass.
	DefaultTimeout = 5 * time.Minute
	// DefaultSampleRate is the output rate expected by the segmenter.
	DefaultSampleRate = 16000

	outputSuffix = "_preprocessed"
)

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, lastLine(output))
	}
	return output, nil
}

func lastLine(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	if idx := strings.LastIndexByte(trimmed, '\n'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// Options configures a Preprocessor.
type Options struct {
	FFmpegBinary string
	Chain        FilterChain
	SampleRate   int
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Preprocessor runs the filter pass.
type Preprocessor struct {
	ffmpegBinary  string
	chain         FilterChain
	sampleRate    int
	timeout       time.Duration
	logger        *slog.Logger
	commandRunner CommandRunner
}

// New builds a Preprocessor. Zero options fall back to defaults; a zero Chain
// means DefaultFilterChain.
func New(opts Options) *Preprocessor {
	p := &Preprocessor{
		ffmpegBinary: opts.FFmpegBinary,
		chain:        opts.Chain,
		sampleRate:   opts.SampleRate,
		timeout:      opts.Timeout,
		logger:       logging.NewComponentLogger(opts.Logger, "audioprep"),
	}
	if p.ffmpegBinary == "" {
		p.ffmpegBinary = "ffmpeg"
	}
	if p.chain.Empty() {
		p.chain = DefaultFilterChain()
	}
	if p.sampleRate <= 0 {
		p.sampleRate = DefaultSampleRate
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	return p
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Preprocessor) WithCommandRunner(runner CommandRunner) {
	p.commandRunner = runner
}

// Chain returns the configured filter chain.
func (p *Preprocessor) Chain() FilterChain {
	return p.chain
}

// Result is the outcome of a preprocessing attempt. When Fallback is set,
// Path is the original input and Err explains why processing was skipped.
type Result struct {
	Path     string
	Source   string
	Fallback bool
	Err      error
}

// Ok reports whether a processed file was produced.
func (r Result) Ok() bool {
	return !r.Fallback
}

// Cleanup removes the intermediate file. It never touches the source.
func (r Result) Cleanup() error {
	if r.Fallback || r.Path == "" || r.Path == r.Source {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove preprocessed audio: %w", err)
	}
	return nil
}

// OutputPath returns the intermediate file name for audioPath.
func OutputPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + outputSuffix + ext
}

// Preprocess filters audioPath into a sibling file. It never returns an error:
// failures produce a fallback Result pointing at audioPath.
func (p *Preprocessor) Preprocess(ctx context.Context, audioPath string) Result {
	fallback := func(err error) Result {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "audio preprocessing skipped", "preprocess_fallback",
			logging.String("audio", audioPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify ffmpeg supports loudnorm and acompressor"),
			logging.String(logging.FieldImpact, "speech detection runs on unfiltered audio"),
		)
		return Result{Path: audioPath, Source: audioPath, Fallback: true, Err: err}
	}

	if _, err := os.Stat(audioPath); err != nil {
		return fallback(fmt.Errorf("stat input: %w", err))
	}

	output := OutputPath(audioPath)
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	args := p.buildArgs(audioPath, output)
	if _, err := p.run(runCtx, p.ffmpegBinary, args...); err != nil {
		_ = os.Remove(output)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fallback(fmt.Errorf("preprocess timed out after %s: %w", p.timeout, err))
		}
		return fallback(err)
	}

	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		_ = os.Remove(output)
		if err == nil {
			err = errors.New("empty output")
		}
		return fallback(fmt.Errorf("preprocessed output missing: %w", err))
	}

	logging.WithContext(ctx, p.logger).Info("audio preprocessed",
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return Result{Path: output, Source: audioPath}
}

func (p *Preprocessor) buildArgs(input, output string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-af", p.chain.String(),
		"-ar", strconv.Itoa(p.sampleRate),
		"-ac", "1",
		output,
	}
}

func (p *Preprocessor) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if p.commandRunner != nil {
		return p.commandRunner(ctx, name, args...)
	}
	return execRunner(ctx, name, args...)
}

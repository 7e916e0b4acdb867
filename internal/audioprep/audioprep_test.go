package audioprep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultFilterChainString(t *testing.T) {
	want := "silenceremove=start_periods=1:start_duration=0.1:start_threshold=-50dB," +
		"loudnorm=I=-16:LRA=11:TP=-1.5," +
		"highpass=f=80," +
		"equalizer=f=1000:width_type=h:width=2000:g=3," +
		"acompressor=threshold=-20dB:ratio=4:attack=5:release=50"
	if got := DefaultFilterChain().String(); got != want {
		t.Fatalf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestFilterChainOmitsDisabledStages(t *testing.T) {
	chain := DefaultFilterChain()
	chain.SilenceRemoveEnabled = false
	chain.EqualizerEnabled = false

	got := chain.String()
	if strings.Contains(got, "silenceremove") || strings.Contains(got, "equalizer") {
		t.Fatalf("disabled stages rendered: %q", got)
	}
	if !strings.HasPrefix(got, "loudnorm=") || !strings.HasSuffix(got, "release=50") {
		t.Fatalf("unexpected order: %q", got)
	}

	if !(FilterChain{}).Empty() {
		t.Fatal("zero chain should be empty")
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("/work/run/audio.wav"); got != "/work/run/audio_preprocessed.wav" {
		t.Fatalf("OutputPath = %q", got)
	}
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPreprocessSuccess(t *testing.T) {
	input := writeInput(t)
	p := New(Options{})

	var gotArgs []string
	p.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffmpeg" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		return nil, os.WriteFile(args[len(args)-1], []byte("processed"), 0o644)
	})

	result := p.Preprocess(context.Background(), input)
	if !result.Ok() || result.Err != nil {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Path != OutputPath(input) || result.Source != input {
		t.Fatalf("unexpected paths: %+v", result)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-af " + DefaultFilterChain().String(), "-ar 16000", "-ac 1"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args %q", want, joined)
		}
	}

	if err := result.Cleanup(); err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if _, err := os.Stat(result.Path); !os.IsNotExist(err) {
		t.Fatalf("processed file should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(input); err != nil {
		t.Fatalf("source must survive cleanup: %v", err)
	}
}

func TestPreprocessFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		runner CommandRunner
		want   string
	}{
		{
			name: "ffmpeg failure",
			runner: func(_ context.Context, _ string, args ...string) ([]byte, error) {
				_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
				return nil, errors.New("ffmpeg: exit status 1: No such filter: 'loudnorm'")
			},
			want: "loudnorm",
		},
		{
			name: "missing output",
			runner: func(context.Context, string, ...string) ([]byte, error) {
				return nil, nil
			},
			want: "output missing",
		},
		{
			name: "timeout",
			runner: func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			want: "timed out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeInput(t)
			p := New(Options{Timeout: 20 * time.Millisecond})
			p.WithCommandRunner(tt.runner)

			result := p.Preprocess(context.Background(), input)
			if !result.Fallback || result.Path != input {
				t.Fatalf("expected fallback to input, got %+v", result)
			}
			if result.Err == nil || !strings.Contains(result.Err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, result.Err)
			}
			if _, err := os.Stat(OutputPath(input)); !os.IsNotExist(err) {
				t.Fatalf("partial output should be removed, stat err = %v", err)
			}
			if err := result.Cleanup(); err != nil {
				t.Fatalf("fallback cleanup returned error: %v", err)
			}
			if _, err := os.Stat(input); err != nil {
				t.Fatalf("fallback cleanup must keep the input: %v", err)
			}
		})
	}
}

func TestPreprocessMissingInput(t *testing.T) {
	p := New(Options{})
	p.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("ffmpeg should not run for a missing input")
		return nil, nil
	})
	result := p.Preprocess(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	if !result.Fallback || result.Err == nil {
		t.Fatalf("expected fallback with error, got %+v", result)
	}
}

const silenceOutput = `Input #0, wav, from 'audio.wav':
[silencedetect @ 0x55d] silence_start: -0.00133333
[silencedetect @ 0x55d] silence_end: 1.25 | silence_duration: 1.25133
size=N/A time=00:00:10.00 bitrate=N/A speed= 500x
[silencedetect @ 0x55d] silence_end: 3.0 | silence_duration: 0.5
[silencedetect @ 0x55d] silence_start: 4.5
[silencedetect @ 0x55d] silence_end: 6 | silence_duration: 1.5
[silencedetect @ 0x55d] silence_start: 9.1
`

func TestParseSilence(t *testing.T) {
	periods := ParseSilence([]byte(silenceOutput))
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %+v", periods)
	}
	if periods[0].End != 1.25 || periods[1].Start != 4.5 || periods[1].End != 6 {
		t.Fatalf("unexpected periods: %+v", periods)
	}
	total := TotalSilence(periods)
	if total < 2.75 || total > 2.76 {
		t.Fatalf("TotalSilence = %v", total)
	}
}

func TestDetectSilenceArgs(t *testing.T) {
	p := New(Options{FFmpegBinary: "/opt/ffmpeg"})
	p.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "/opt/ffmpeg" {
			t.Fatalf("unexpected binary %q", name)
		}
		if !strings.Contains(strings.Join(args, " "), "silencedetect=n=-40dB:d=0.5") {
			t.Fatalf("unexpected args %v", args)
		}
		return []byte(silenceOutput), nil
	})
	periods, err := p.DetectSilence(context.Background(), "audio.wav", -40)
	if err != nil {
		t.Fatalf("DetectSilence returned error: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
}

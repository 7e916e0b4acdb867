package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subsync/internal/calibration"
	"subsync/internal/config"
	"subsync/internal/segment"
	"subsync/internal/services/whisperx"
	"subsync/internal/syncer"
	"subsync/internal/testsupport"
)

type stubExtractor struct{}

func (stubExtractor) ExtractAudio(_ context.Context, _ string, dest string) (whisperx.Audio, error) {
	if err := os.WriteFile(dest, []byte("RIFF"), 0o644); err != nil {
		return whisperx.Audio{}, err
	}
	return whisperx.Audio{Path: dest, Language: "en"}, nil
}

type stubSegmenter struct {
	speech []segment.Segment
}

func (s stubSegmenter) Segment(context.Context, string, string) ([]segment.Segment, error) {
	return append([]segment.Segment(nil), s.speech...), nil
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	speech     []segment.Segment
}

// setupCLITestEnv writes a temp config and swaps the engine factory for one
// whose extractor and segmenter are in-process stubs returning speech.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		speech:     testsupport.SpeechTrack(30),
	}

	previous := engineFactory
	engineFactory = func(cfg *config.Config, logger *slog.Logger, store *calibration.Store, recorder syncer.Recorder) (*syncer.Engine, error) {
		return syncer.New(syncer.Options{
			Extractor:          stubExtractor{},
			Segmenter:          stubSegmenter{speech: env.speech},
			Calibration:        store,
			Recorder:           recorder,
			Params:             estimatorParams(cfg.Sync),
			WorkDir:            cfg.Paths.WorkDir,
			MinSegmentDuration: cfg.Sync.MinSegmentDuration,
			Logger:             logger,
		})
	}
	t.Cleanup(func() { engineFactory = previous })
	return env
}

// media writes a placeholder video and an SRT whose cues need a delay of
// shift seconds, returning both paths.
func (e *cliTestEnv) media(t *testing.T, name string, shift float64) (string, string) {
	t.Helper()
	video := filepath.Join(e.baseDir, "media", name+".mkv")
	subtitle := filepath.Join(e.baseDir, "media", name+".srt")
	testsupport.WriteFile(t, video, 16)
	testsupport.WriteSRT(t, subtitle, testsupport.Shift(e.speech, shift))
	return video, subtitle
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

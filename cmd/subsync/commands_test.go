package main

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subsync/internal/history"
	"subsync/internal/services"
	"subsync/internal/srt"
	"subsync/internal/syncer"
	"subsync/internal/testsupport"
)

func TestSyncCommandDelaysSubtitle(t *testing.T) {
	env := setupCLITestEnv(t)
	video, subtitle := env.media(t, "movie", 3)

	out, _, err := runCLI(t, []string{"sync", video, subtitle}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "delay subtitles by 3.00s")

	synced := strings.TrimSuffix(subtitle, ".srt") + "_synced.srt"
	requireContains(t, out, synced)
	cues, err := srt.ParseTimings(synced)
	if err != nil {
		t.Fatalf("parse synced output: %v", err)
	}
	if len(cues) != len(env.speech) {
		t.Fatalf("expected %d cues, got %d", len(env.speech), len(cues))
	}
	if diff := math.Abs(cues[0].Start - env.speech[0].Start); diff > 0.0011 {
		t.Fatalf("first cue off by %.4fs", diff)
	}
}

func TestSyncCommandJSONWithOutputPath(t *testing.T) {
	env := setupCLITestEnv(t)
	video, subtitle := env.media(t, "movie", -1.5)
	target := filepath.Join(env.baseDir, "out", "fixed.srt")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	out, _, err := runCLI(t, []string{"sync", video, subtitle, "-o", target, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	var view syncView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if view.Output != target {
		t.Fatalf("output = %q, want %q", view.Output, target)
	}
	if math.Abs(view.AppliedOffset+1.5) > 1e-9 {
		t.Fatalf("applied offset = %v, want -1.5", view.AppliedOffset)
	}
	if view.RunID == "" {
		t.Fatal("expected run id")
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestSyncCommandMissingSubtitle(t *testing.T) {
	env := setupCLITestEnv(t)
	video, _ := env.media(t, "movie", 0)

	_, _, err := runCLI(t, []string{"sync", video, filepath.Join(env.baseDir, "missing.srt")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing subtitle")
	}
	requireContains(t, err.Error(), "subtitle file not found")
}

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name    string
		shift   float64
		args    []string
		expects []string
	}{
		{name: "in sync", shift: 0, expects: []string{"[OK] in sync"}},
		{name: "out of sync", shift: 2, expects: []string{"[WARN] out of sync: delay subtitles by 2.00s"}},
		{name: "verbose", shift: 2, args: []string{"-v"}, expects: []string{"cross_correlation", "first_segment", "0 periods"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLITestEnv(t)
			video, subtitle := env.media(t, "movie", tt.shift)

			args := append([]string{"check", video, subtitle}, tt.args...)
			out, _, err := runCLI(t, args, env.configPath)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			for _, want := range tt.expects {
				requireContains(t, out, want)
			}
			synced := strings.TrimSuffix(subtitle, ".srt") + "_synced.srt"
			if _, err := os.Stat(synced); !os.IsNotExist(err) {
				t.Fatalf("check must not write output, stat err = %v", err)
			}
		})
	}
}

func TestLearnFromLastRunCalibratesNextSync(t *testing.T) {
	env := setupCLITestEnv(t)
	video, subtitle := env.media(t, "movie", 3)

	if _, _, err := runCLI(t, []string{"sync", video, subtitle}, env.configPath); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	out, _, err := runCLI(t, []string{"learn", video, "--offset", "3.5"}, env.configPath)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	requireContains(t, out, "Recorded correction +0.50s (movie)")
	requireContains(t, out, "1 corrections")

	out, _, err = runCLI(t, []string{"sync", video, subtitle}, env.configPath)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	requireContains(t, out, "+3.50s (movie)")
	requireContains(t, out, "delay subtitles by 3.50s")

	out, _, err = runCLI(t, []string{"sync", video, subtitle, "--no-calibration"}, env.configPath)
	if err != nil {
		t.Fatalf("uncalibrated sync: %v", err)
	}
	requireContains(t, out, "delay subtitles by 3.00s")
}

func TestLearnWithoutHistoryRequiresAuto(t *testing.T) {
	env := setupCLITestEnv(t)
	video, _ := env.media(t, "movie", 0)

	_, _, err := runCLI(t, []string{"learn", video, "--offset", "1"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without a recorded run")
	}
	requireContains(t, err.Error(), "no recorded run")

	out, _, err := runCLI(t, []string{"learn", video, "--offset", "1", "--auto", "0.25", "--type", "tv"}, env.configPath)
	if err != nil {
		t.Fatalf("learn with --auto: %v", err)
	}
	requireContains(t, out, "Recorded correction +0.75s (tv)")
}

func TestLearnUsesRecordedContentType(t *testing.T) {
	env := setupCLITestEnv(t)
	video, subtitle := env.media(t, "show", 0)
	hist := testsupport.MustOpenHistory(t, env.cfg)
	testsupport.RecordRun(t, hist, history.Run{
		VideoPath:    video,
		SubtitlePath: subtitle,
		ContentType:  "documentary",
		RawOffset:    1,
	})
	hist.Close()

	out, _, err := runCLI(t, []string{"learn", video, "--offset", "1.2"}, env.configPath)
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	requireContains(t, out, "(documentary)")
}

func TestCalibrationCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"calibration", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "No calibration history yet")

	for _, offset := range []string{"1.5", "2.5"} {
		if _, _, err := runCLI(t, []string{"learn", "film.mkv", "--auto", "1", "--offset", offset}, env.configPath); err != nil {
			t.Fatalf("learn %s: %v", offset, err)
		}
	}

	out, _, err = runCLI(t, []string{"calibration", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "2 / 50")
	requireContains(t, out, "+1.00s")
	requireContains(t, out, "Type movie")

	out, _, err = runCLI(t, []string{"calibration", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var entries []entryView
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(entries) != 2 || entries[0].Correction != 0.5 || entries[1].Correction != 1.5 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if _, _, err := runCLI(t, []string{"calibration", "reset"}, env.configPath); err == nil {
		t.Fatal("expected reset without --yes to fail")
	}
	out, _, err = runCLI(t, []string{"calibration", "reset", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	requireContains(t, out, "Removed 2 corrections")

	out, _, err = runCLI(t, []string{"calibration", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "No calibration history yet")
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")

	video, subtitle := env.media(t, "movie", 3)
	if _, _, err := runCLI(t, []string{"sync", video, subtitle}, env.configPath); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, _, err := runCLI(t, []string{"check", video, subtitle}, env.configPath); err != nil {
		t.Fatalf("check: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "movie.mkv")
	requireContains(t, out, history.ModeSync)
	requireContains(t, out, history.ModeCheck)

	out, _, err = runCLI(t, []string{"history", "--limit", "1", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history json: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 || runs[0].Mode != history.ModeCheck {
		t.Fatalf("expected newest check run, got %+v", runs)
	}

	if _, _, err := runCLI(t, []string{"history", "--limit", "0"}, env.configPath); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestBatchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	first, firstSub := env.media(t, "first", 3)
	second, secondSub := env.media(t, "second", -1)
	third, _ := env.media(t, "third", 0)
	missing := filepath.Join(env.baseDir, "media", "absent.srt")

	args := []string{"batch",
		first + "=" + firstSub,
		second + "=" + secondSub,
		third + "=" + missing,
		"--workers", "2",
	}
	out, _, err := runCLI(t, args, env.configPath)
	if err == nil {
		t.Fatal("expected batch error when a run fails")
	}
	requireContains(t, err.Error(), "1 of 3 runs failed")
	requireContains(t, out, "delay subtitles by 3.00s")
	requireContains(t, out, "advance subtitles by 1.00s")
	requireContains(t, out, "subtitle not found")
	requireContains(t, out, "2 synced, 1 failed")

	if idx := strings.Index(out, "first.srt"); idx < 0 || idx > strings.Index(out, "second.srt") {
		t.Fatalf("expected results in request order:\n%s", out)
	}
}

func TestBatchCommandRejectsMalformedPairs(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, arg := range []string{"video.mkv", "=sub.srt", "video.mkv="} {
		if _, _, err := runCLI(t, []string{"batch", arg}, env.configPath); err == nil {
			t.Fatalf("expected error for %q", arg)
		}
	}
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"a.mkv=a.srt", "x=y.mkv=y.srt"})
	if err != nil {
		t.Fatalf("parsePairs: %v", err)
	}
	want := [][2]string{{"a.mkv", "a.srt"}, {"x=y.mkv", "y.srt"}}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("pair %d = %v, want %v", i, pairs[i], want[i])
		}
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	env := setupCLITestEnv(t)
	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sync]\nworkers = -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "Work directory:")
	requireContains(t, out, "0 corrections")
	requireContains(t, out, "0 runs recorded")
}

func TestStatusCommandReportsMissingBinaries(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing dependencies")
	}
	requireContains(t, err.Error(), "missing dependencies")
	requireContains(t, out, "[ERROR]")
}

func TestRenderBatchTableClassifiesFailures(t *testing.T) {
	results := []syncer.BatchResult{
		{Request: syncer.Request{SubtitlePath: "a.srt"}, Err: services.Wrap(services.ErrExternalTool, "sync", "extract audio", "ffmpeg exited 1", nil)},
		{Request: syncer.Request{SubtitlePath: "b.srt"}, Err: context.Canceled},
	}
	out := renderBatchTable(results)
	requireContains(t, out, string(services.OutcomeToolFailure))
	requireContains(t, out, string(services.OutcomeCanceled))
}

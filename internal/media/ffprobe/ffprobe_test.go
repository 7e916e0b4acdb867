package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264"},
    {"index": 1, "codec_type": "subtitle", "codec_name": "subrip"},
    {"index": 2, "codec_type": "audio", "codec_name": "ac3", "channels": 6, "sample_rate": "48000", "tags": {"language": "eng"}},
    {"index": 3, "codec_type": "audio", "codec_name": "aac", "channels": 2}
  ],
  "format": {"filename": "movie.mkv", "nb_streams": 4, "duration": "5400.250", "format_name": "matroska,webm"}
}`

func TestInspectWithParsesStreams(t *testing.T) {
	var gotArgs []string
	run := func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("unexpected binary %q", binary)
		}
		gotArgs = args
		return []byte(sampleJSON), nil
	}

	result, err := InspectWith(context.Background(), run, "", "/media/movie.mkv")
	if err != nil {
		t.Fatalf("InspectWith returned error: %v", err)
	}
	if gotArgs[len(gotArgs)-1] != "/media/movie.mkv" || gotArgs[len(gotArgs)-2] != "--" {
		t.Fatalf("path should follow --, got %v", gotArgs)
	}
	if n := len(result.AudioStreams()); n != 2 {
		t.Fatalf("expected 2 audio streams, got %d", n)
	}
	stream, ok := result.FirstAudioStream()
	if !ok || stream.Index != 2 {
		t.Fatalf("FirstAudioStream = %+v, %v; want index 2", stream, ok)
	}
	if stream.Tags["language"] != "eng" {
		t.Fatalf("expected language tag, got %v", stream.Tags)
	}
	if result.DurationSeconds() != 5400.25 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.Format.FormatName != "matroska,webm" {
		t.Fatalf("unexpected format name %q", result.Format.FormatName)
	}
}

func TestInspectWithErrors(t *testing.T) {
	failing := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: No such file")
	}
	if _, err := InspectWith(context.Background(), failing, "ffprobe", "missing.mkv"); err == nil || !strings.Contains(err.Error(), "ffprobe inspect") {
		t.Fatalf("expected wrapped inspect error, got %v", err)
	}

	garbage := func(context.Context, string, ...string) ([]byte, error) { return []byte("not json"), nil }
	if _, err := InspectWith(context.Background(), garbage, "ffprobe", "x.mkv"); err == nil || !strings.Contains(err.Error(), "ffprobe parse") {
		t.Fatalf("expected parse error, got %v", err)
	}

	if _, err := InspectWith(context.Background(), garbage, "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNoAudioStream(t *testing.T) {
	result := Result{Streams: []Stream{{Index: 0, CodecType: "video"}}}
	if stream, ok := result.FirstAudioStream(); ok {
		t.Fatalf("FirstAudioStream = %+v, want none", stream)
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	if d := (Result{Format: Format{Duration: "bad"}}).DurationSeconds(); !math.IsNaN(d) {
		t.Fatalf("expected NaN, got %v", d)
	}
	if d := (Result{}).DurationSeconds(); d != 0 {
		t.Fatalf("expected 0 for missing duration, got %v", d)
	}
}

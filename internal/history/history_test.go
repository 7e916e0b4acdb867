package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"subsync/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAssignsIDAndTimestamps(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.Record(ctx, history.Run{
		VideoPath:     "/media/movie.mkv",
		SubtitlePath:  "/media/movie.srt",
		RawOffset:     2.35,
		AppliedOffset: 2.4,
		Duration:      1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if run.ID == "" || run.Mode != history.ModeSync || run.ContentType != "movie" {
		t.Fatalf("defaults not applied: %+v", run)
	}
	if !run.StartedAt.Before(run.FinishedAt) {
		t.Fatalf("expected started before finished: %v %v", run.StartedAt, run.FinishedAt)
	}

	fetched, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched == nil || fetched.RawOffset != 2.35 || fetched.AppliedOffset != 2.4 || fetched.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected fetched run: %+v", fetched)
	}
	if fetched.OutputPath != "" {
		t.Fatalf("expected empty output path, got %q", fetched.OutputPath)
	}
}

func TestRecordRequiresVideo(t *testing.T) {
	store := openStore(t)
	if _, err := store.Record(context.Background(), history.Run{SubtitlePath: "a.srt"}); err == nil {
		t.Fatal("expected error without video path")
	}
}

func TestLatestReturnsNewestRunForVideo(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, offset := range []float64{1.0, 2.0, 3.0} {
		if _, err := store.Record(ctx, history.Run{
			VideoPath:    "/media/show.s01e01.mkv",
			SubtitlePath: "/media/show.s01e01.srt",
			RawOffset:    offset,
			FinishedAt:   base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if _, err := store.Record(ctx, history.Run{
		VideoPath:  "/media/other.mkv",
		RawOffset:  9,
		FinishedAt: base.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	latest, err := store.Latest(ctx, "/media/show.s01e01.mkv")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.RawOffset != 3.0 {
		t.Fatalf("unexpected latest run: %+v", latest)
	}
	if !latest.FinishedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("finished_at = %v", latest.FinishedAt)
	}

	missing, err := store.Latest(ctx, "/media/none.mkv")
	if err != nil || missing != nil {
		t.Fatalf("expected nil run, got %+v err=%v", missing, err)
	}
}

func TestLatestMatchesRelativePaths(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	t.Chdir(t.TempDir())

	if _, err := store.Record(ctx, history.Run{VideoPath: "movie.mkv", RawOffset: 1.5}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	abs, err := filepath.Abs("movie.mkv")
	if err != nil {
		t.Fatal(err)
	}
	latest, err := store.Latest(ctx, abs)
	if err != nil || latest == nil {
		t.Fatalf("expected run for %s, got %+v err=%v", abs, latest, err)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		if _, err := store.Record(ctx, history.Run{
			VideoPath:  filepath.Join("/media", string(rune('a'+i))+".mkv"),
			RawOffset:  float64(i),
			InSync:     i%2 == 0,
			FinishedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len = %d, want 3", len(runs))
	}
	if runs[0].RawOffset != 4 || runs[2].RawOffset != 2 {
		t.Fatalf("unexpected order: %v %v", runs[0].RawOffset, runs[2].RawOffset)
	}
	if !runs[0].InSync || runs[1].InSync {
		t.Fatalf("in_sync not preserved")
	}

	count, err := store.Count(ctx)
	if err != nil || count != 5 {
		t.Fatalf("Count = %d err=%v", count, err)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), history.Run{VideoPath: "/m.mkv"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if n, _ := reopened.Count(context.Background()); n != 1 {
		t.Fatalf("count after reopen = %d", n)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := history.Open(" "); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenDetectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := history.SetSchemaVersionForTest(store, 99); err != nil {
		t.Fatalf("set version: %v", err)
	}
	store.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

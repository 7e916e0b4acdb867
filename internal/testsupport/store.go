package testsupport

import (
	"context"
	"testing"

	"subsync/internal/config"
	"subsync/internal/history"
)

// MustOpenHistory opens the run ledger for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordRun stores a completed sync run for tests.
func RecordRun(t testing.TB, store *history.Store, run history.Run) history.Run {
	t.Helper()

	if run.Mode == "" {
		run.Mode = history.ModeSync
	}
	recorded, err := store.Record(context.Background(), run)
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return recorded
}

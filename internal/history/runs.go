package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Modes distinguish full syncs from report-only checks.
const (
	ModeSync  = "sync"
	ModeCheck = "check"
)

// DefaultListLimit caps List when no limit is requested.
const DefaultListLimit = 20

// Fixed width, so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, video_path, subtitle_path, output_path, content_type, mode, raw_offset, calibrated_offset, applied_offset, in_sync, confidence, preprocessed, duration_ms, started_at, finished_at"

// Run is one completed sync or check.
type Run struct {
	ID               string
	VideoPath        string
	SubtitlePath     string
	OutputPath       string
	ContentType      string
	Mode             string
	RawOffset        float64
	CalibratedOffset float64
	AppliedOffset    float64
	InSync           bool
	Confidence       float64
	Preprocessed     bool
	Duration         time.Duration
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Record inserts run, filling in an id and timestamps when missing. Paths are
// stored absolute so later lookups match regardless of working directory.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if strings.TrimSpace(run.VideoPath) == "" {
		return run, errors.New("video path is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Mode == "" {
		run.Mode = ModeSync
	}
	if run.ContentType == "" {
		run.ContentType = "movie"
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt.Add(-run.Duration)
	}
	run.VideoPath = normalizePath(run.VideoPath)
	run.SubtitlePath = normalizePath(run.SubtitlePath)
	run.OutputPath = normalizePath(run.OutputPath)

	err := s.execWithRetry(ctx,
		`INSERT INTO sync_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.VideoPath,
		run.SubtitlePath,
		nullableString(run.OutputPath),
		run.ContentType,
		run.Mode,
		run.RawOffset,
		run.CalibratedOffset,
		run.AppliedOffset,
		boolToInt(run.InSync),
		run.Confidence,
		boolToInt(run.Preprocessed),
		run.Duration.Milliseconds(),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
	)
	if err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// Latest returns the most recent run for videoPath, or nil when there is none.
func (s *Store) Latest(ctx context.Context, videoPath string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM sync_runs WHERE video_path = ? ORDER BY finished_at DESC, rowid DESC LIMIT 1`,
		normalizePath(videoPath),
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// Get returns the run with the given id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM sync_runs ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM sync_runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		outputPath   sql.NullString
		inSync       int64
		preprocessed int64
		durationMS   int64
		startedRaw   string
		finishedRaw  string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.VideoPath,
		&run.SubtitlePath,
		&outputPath,
		&run.ContentType,
		&run.Mode,
		&run.RawOffset,
		&run.CalibratedOffset,
		&run.AppliedOffset,
		&inSync,
		&run.Confidence,
		&preprocessed,
		&durationMS,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.OutputPath = outputPath.String
	run.InSync = inSync != 0
	run.Preprocessed = preprocessed != 0
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if t, err := time.Parse(timeLayout, startedRaw); err == nil {
		run.StartedAt = t
	}
	if t, err := time.Parse(timeLayout, finishedRaw); err == nil {
		run.FinishedAt = t
	}
	return &run, nil
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

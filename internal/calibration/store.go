package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"subsync/internal/fileutil"
	"subsync/internal/logging"
)

const (
	// MaxEntries bounds the history; the oldest corrections are evicted first.
	MaxEntries = 50

	// MinSuggestEntries is the history size required before Suggest recommends anything.
	MinSuggestEntries = 3

	suggestMinMagnitude  = 0.2
	suggestMinConfidence = 0.5

	// Stored values are snapped to 1e-12 to drop float noise, so a single
	// learned entry reproduces the user offset exactly.
	storedPrecision = 1e12
)

// Entry is one recorded user correction.
type Entry struct {
	Auto       float64     `json:"auto"`
	User       float64     `json:"user"`
	Correction float64     `json:"correction"`
	Type       ContentType `json:"type"`
	RecordedAt time.Time   `json:"recorded_at,omitzero"`
}

// Suggestion reports whether history justifies nudging an automatic offset.
type Suggestion struct {
	ShouldAdjust bool
	Delta        float64
	Confidence   float64
	Basis        int
}

// Stats summarises the stored corrections.
type Stats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	ByType map[ContentType]int
}

type document struct {
	Corrections   []Entry `json:"corrections"`
	AvgCorrection float64 `json:"avg_correction"`
}

// Store holds the calibration history. A store with an empty path keeps its
// history in memory only.
type Store struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock
	now    func() time.Time

	mu      sync.Mutex
	entries []Entry
	avg     float64
}

// Open loads the history at path. A missing file starts an empty history; an
// unreadable or corrupt one is logged and treated the same way.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "calibration"),
		now:    time.Now,
	}
	if path == "" {
		return s
	}
	s.lock = flock.New(path + ".lock")

	if err := s.load(); err != nil {
		logging.WarnWithContext(s.logger, "failed to load calibration history", "calibration_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "history will start empty"),
			logging.String(logging.FieldImpact, "offsets are not calibrated until new corrections are learned"))
	}
	return s
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Learn records that auto was corrected to user for content of the given
// type. The in-memory history is updated even when persisting fails.
func (s *Store) Learn(auto, user float64, kind ContentType) (Entry, error) {
	entry := Entry{
		Auto:       auto,
		User:       user,
		Correction: roundStored(user - auto),
		Type:       ContentType(kind.String()),
		RecordedAt: s.now().UTC(),
	}

	var saveErr error
	err := s.mutate(func() {
		s.entries = append(s.entries, entry)
		if extra := len(s.entries) - MaxEntries; extra > 0 {
			s.entries = append([]Entry(nil), s.entries[extra:]...)
		}
	}, &saveErr)
	if err != nil {
		return entry, err
	}
	if saveErr != nil {
		return entry, saveErr
	}

	s.logger.Info("learned offset correction",
		logging.Seconds("auto_offset", auto),
		logging.Seconds("user_offset", user),
		logging.Seconds("correction", entry.Correction),
		logging.String("content_type", entry.Type.String()),
		logging.Int("history_size", s.Len()))
	return entry, nil
}

// Reset removes all history and persists the empty state.
func (s *Store) Reset() error {
	var saveErr error
	if err := s.mutate(func() { s.entries = nil }, &saveErr); err != nil {
		return err
	}
	if saveErr != nil {
		return saveErr
	}
	s.logger.Info("cleared calibration history")
	return nil
}

// Apply adds the learned correction to auto. Same-type corrections are
// preferred; the global average is used when the type has no history.
func (s *Store) Apply(auto float64, kind ContentType) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return auto
	}
	correction, matched := s.typeMean(ContentType(kind.String()))
	if !matched {
		correction = s.avg
	}
	return roundStored(auto + correction)
}

// Suggest reports whether the history is consistent enough to recommend
// adjusting auto by the global mean correction.
func (s *Store) Suggest(auto float64) Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if n < MinSuggestEntries {
		return Suggestion{Basis: n}
	}
	mean, std := meanStd(s.corrections())
	confidence := 1 - math.Min(std/(math.Abs(mean)+1), 1)
	if math.Abs(mean) > suggestMinMagnitude && confidence > suggestMinConfidence {
		return Suggestion{ShouldAdjust: true, Delta: mean, Confidence: confidence, Basis: n}
	}
	return Suggestion{Confidence: confidence, Basis: n}
}

// Stats summarises the history. Count is zero when nothing has been learned.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{ByType: make(map[ContentType]int)}
	if len(s.entries) == 0 {
		return stats
	}
	values := s.corrections()
	stats.Count = len(values)
	stats.Mean, stats.StdDev = meanStd(values)
	stats.Min, stats.Max = values[0], values[0]
	for i, v := range values {
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
		stats.ByType[s.entries[i].Type]++
	}
	return stats
}

// Entries returns a copy of the history, oldest first.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of stored corrections.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// AverageCorrection returns the global mean correction.
func (s *Store) AverageCorrection() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avg
}

// mutate runs change as a read-modify-write cycle. The file lock is held
// across the reload and the save so concurrent processes never drop each
// other's entries. Errors acquiring the lock abort the change; save errors are
// reported through saveErr after the in-memory state has been updated.
func (s *Store) mutate(change func(), saveErr *error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		change()
		s.recompute()
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create calibration directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock calibration file: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release calibration lock", logging.Error(err))
		}
	}()

	if err := s.load(); err != nil {
		logging.WarnWithContext(s.logger, "failed to reload calibration history", "calibration_reload_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file will be rewritten from in-memory history"),
			logging.String(logging.FieldImpact, "corrections recorded by other processes may be lost"))
	}
	change()
	s.recompute()

	if err := s.save(); err != nil {
		logging.WarnWithContext(s.logger, "failed to persist calibration history", "calibration_save_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the calibration file"),
			logging.String(logging.FieldImpact, "the correction only lasts for this process"))
		*saveErr = fmt.Errorf("persist calibration: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read calibration file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse calibration file: %w", err)
	}
	entries := doc.Corrections
	for i := range entries {
		entries[i].Type = ParseContentType(string(entries[i].Type))
	}
	if extra := len(entries) - MaxEntries; extra > 0 {
		entries = entries[extra:]
	}
	s.entries = entries
	s.recompute()

	s.logger.Debug("loaded calibration history",
		logging.Int("entry_count", len(s.entries)),
		logging.String("path", s.path))
	return nil
}

func (s *Store) save() error {
	doc := document{Corrections: s.entries, AvgCorrection: s.avg}
	if doc.Corrections == nil {
		doc.Corrections = []Entry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}
	return fileutil.WriteFileAtomic(s.path, data, 0o644)
}

func (s *Store) recompute() {
	s.avg, _ = meanStd(s.corrections())
}

func (s *Store) corrections() []float64 {
	values := make([]float64, len(s.entries))
	for i, e := range s.entries {
		values[i] = e.Correction
	}
	return values
}

func (s *Store) typeMean(kind ContentType) (float64, bool) {
	var sum float64
	var n int
	for _, e := range s.entries {
		if e.Type == kind {
			sum += e.Correction
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func roundStored(v float64) float64 {
	return math.Round(v*storedPrecision) / storedPrecision
}

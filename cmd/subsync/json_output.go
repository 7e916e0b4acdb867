package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"subsync/internal/audioprep"
	"subsync/internal/calibration"
	"subsync/internal/history"
	"subsync/internal/offset"
	"subsync/internal/syncer"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type suggestionView struct {
	Delta      float64 `json:"delta"`
	Confidence float64 `json:"confidence"`
	Basis      int     `json:"basis"`
}

type syncView struct {
	RunID            string          `json:"run_id"`
	Video            string          `json:"video"`
	Subtitle         string          `json:"subtitle"`
	Output           string          `json:"output,omitempty"`
	Action           string          `json:"action"`
	RawOffset        float64         `json:"raw_offset"`
	CalibratedOffset float64         `json:"calibrated_offset"`
	AppliedOffset    float64         `json:"applied_offset"`
	InSync           bool            `json:"in_sync"`
	Copied           bool            `json:"copied"`
	Calibrated       bool            `json:"calibrated"`
	ContentType      string          `json:"content_type"`
	Preprocessed     bool            `json:"preprocessed"`
	DurationMS       int64           `json:"duration_ms"`
	Estimate         offset.Estimate `json:"estimate"`
	Suggestion       *suggestionView `json:"suggestion,omitempty"`
	Outcome          string          `json:"outcome,omitempty"`
	Error            string          `json:"error,omitempty"`
}

func newSyncView(req syncer.Request, res syncer.Result) syncView {
	return syncView{
		RunID:            res.RunID,
		Video:            req.VideoPath,
		Subtitle:         req.SubtitlePath,
		Output:           res.OutputPath,
		Action:           res.Action(),
		RawOffset:        res.RawOffset,
		CalibratedOffset: res.CalibratedOffset,
		AppliedOffset:    res.AppliedOffset,
		InSync:           res.InSync,
		Copied:           res.Copied,
		Calibrated:       res.Calibrated,
		ContentType:      res.ContentType.String(),
		Preprocessed:     res.Preprocessed,
		DurationMS:       res.Duration.Milliseconds(),
		Estimate:         res.Estimate,
		Suggestion:       newSuggestionView(res.Suggestion),
	}
}

type silenceView struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

type checkView struct {
	RunID         string          `json:"run_id"`
	Video         string          `json:"video"`
	Subtitle      string          `json:"subtitle"`
	Action        string          `json:"action"`
	RawOffset     float64         `json:"raw_offset"`
	Offset        float64         `json:"offset"`
	InSync        bool            `json:"in_sync"`
	Calibrated    bool            `json:"calibrated"`
	ContentType   string          `json:"content_type"`
	Preprocessed  bool            `json:"preprocessed"`
	AudioSeconds  float64         `json:"audio_seconds"`
	DurationMS    int64           `json:"duration_ms"`
	Estimate      offset.Estimate `json:"estimate"`
	Suggestion    *suggestionView `json:"suggestion,omitempty"`
	Silence       []silenceView   `json:"silence,omitempty"`
	SilenceTotalS float64         `json:"silence_total_seconds,omitempty"`
}

func newCheckView(req syncer.Request, res syncer.CheckResult) checkView {
	view := checkView{
		RunID:        res.RunID,
		Video:        req.VideoPath,
		Subtitle:     req.SubtitlePath,
		Action:       res.Action(),
		RawOffset:    res.RawOffset,
		Offset:       res.Offset,
		InSync:       res.InSync,
		Calibrated:   res.Calibrated,
		ContentType:  res.ContentType.String(),
		Preprocessed: res.Preprocessed,
		AudioSeconds: res.AudioDuration.Seconds(),
		DurationMS:   res.Duration.Milliseconds(),
		Estimate:     res.Estimate,
		Suggestion:   newSuggestionView(res.Suggestion),
	}
	for _, p := range res.Silence {
		view.Silence = append(view.Silence, silenceView{Start: p.Start, End: p.End, Duration: p.Duration()})
	}
	if len(res.Silence) > 0 {
		view.SilenceTotalS = audioprep.TotalSilence(res.Silence)
	}
	return view
}

func newSuggestionView(s calibration.Suggestion) *suggestionView {
	if !s.ShouldAdjust {
		return nil
	}
	return &suggestionView{Delta: s.Delta, Confidence: s.Confidence, Basis: s.Basis}
}

type runView struct {
	ID               string    `json:"id"`
	Mode             string    `json:"mode"`
	Video            string    `json:"video"`
	Subtitle         string    `json:"subtitle,omitempty"`
	Output           string    `json:"output,omitempty"`
	ContentType      string    `json:"content_type"`
	RawOffset        float64   `json:"raw_offset"`
	CalibratedOffset float64   `json:"calibrated_offset"`
	AppliedOffset    float64   `json:"applied_offset"`
	InSync           bool      `json:"in_sync"`
	Confidence       float64   `json:"confidence"`
	Preprocessed     bool      `json:"preprocessed"`
	DurationMS       int64     `json:"duration_ms"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

func newRunView(run *history.Run) runView {
	return runView{
		ID:               run.ID,
		Mode:             run.Mode,
		Video:            run.VideoPath,
		Subtitle:         run.SubtitlePath,
		Output:           run.OutputPath,
		ContentType:      run.ContentType,
		RawOffset:        run.RawOffset,
		CalibratedOffset: run.CalibratedOffset,
		AppliedOffset:    run.AppliedOffset,
		InSync:           run.InSync,
		Confidence:       run.Confidence,
		Preprocessed:     run.Preprocessed,
		DurationMS:       run.Duration.Milliseconds(),
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
	}
}

type entryView struct {
	Auto       float64   `json:"auto"`
	User       float64   `json:"user"`
	Correction float64   `json:"correction"`
	Type       string    `json:"type"`
	RecordedAt time.Time `json:"recorded_at,omitzero"`
}

type statsView struct {
	Path    string         `json:"path,omitempty"`
	Count   int            `json:"count"`
	Mean    float64        `json:"mean"`
	StdDev  float64        `json:"std_dev"`
	Min     float64        `json:"min"`
	Max     float64        `json:"max"`
	ByType  map[string]int `json:"by_type"`
	Average float64        `json:"avg_correction"`
}

func newStatsView(store *calibration.Store) statsView {
	stats := store.Stats()
	view := statsView{
		Path:    store.Path(),
		Count:   stats.Count,
		Mean:    stats.Mean,
		StdDev:  stats.StdDev,
		Min:     stats.Min,
		Max:     stats.Max,
		ByType:  make(map[string]int, len(stats.ByType)),
		Average: store.AverageCorrection(),
	}
	for kind, n := range stats.ByType {
		view.ByType[kind.String()] = n
	}
	return view
}

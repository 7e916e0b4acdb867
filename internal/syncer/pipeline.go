package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"subsync/internal/audioprep"
	"subsync/internal/calibration"
	"subsync/internal/fileutil"
	"subsync/internal/history"
	"subsync/internal/logging"
	"subsync/internal/offset"
	"subsync/internal/segment"
	"subsync/internal/services"
)

// Stage names, used as the logging stage field and in wrapped errors.
const (
	StageExtract    = "extract audio"
	StagePreprocess = "preprocess"
	StageSpeech     = "detect speech"
	StageSubtitles  = "parse subtitles"
	StageEstimate   = "estimate offset"
	StageCalibrate  = "calibrate"
	StageApply      = "apply offset"
)

const extractedAudioName = "audio.wav"

// New builds an engine from opts.
func New(opts Options) (*Engine, error) {
	if opts.Extractor == nil {
		return nil, errors.New("audio extractor is required")
	}
	if opts.Segmenter == nil {
		return nil, errors.New("speech segmenter is required")
	}
	codec := opts.Codec
	if codec == nil {
		codec = SRTCodec{}
	}
	estimator := offset.NewEstimator(opts.Params, opts.Logger)
	return &Engine{
		extractor:    opts.Extractor,
		preprocessor: opts.Preprocessor,
		segmenter:    opts.Segmenter,
		codec:        codec,
		calibration:  opts.Calibration,
		recorder:     opts.Recorder,
		silence:      opts.SilenceDetector,
		silenceDB:    opts.SilenceThresholdDB,
		estimator:    estimator,
		params:       estimator.Params(),
		workDir:      opts.WorkDir,
		language:     strings.TrimSpace(opts.Language),
		minSegment:   opts.MinSegmentDuration,
		logger:       logging.NewComponentLogger(opts.Logger, "syncer"),
		now:          time.Now,
		newRunID:     uuid.NewString,
	}, nil
}

// analysis is the shared output of Sync and QuickCheck.
type analysis struct {
	runID        string
	contentType  calibration.ContentType
	estimate     offset.Estimate
	calibrated   float64
	applied      bool
	suggestion   calibration.Suggestion
	preprocessed bool
	language     string
	audioLength  time.Duration
	silence      []audioprep.Period
	speech       int
	cues         int
}

// Sync runs the full pipeline and writes the shifted subtitle. On failure no
// output file is left behind and the source subtitle is untouched.
func (e *Engine) Sync(ctx context.Context, req Request) (Result, error) {
	started := e.now()
	outputPath := strings.TrimSpace(req.OutputPath)
	if outputPath == "" {
		outputPath = e.codec.DefaultOutputPath(req.SubtitlePath)
	}
	if samePath(outputPath, req.SubtitlePath) {
		return Result{}, services.Wrap(services.ErrValidation, "sync", "output", "output path would overwrite the source subtitle", nil)
	}

	ctx, a, err := e.analyze(ctx, "sync", req)
	if err != nil {
		return Result{RunID: a.runID}, err
	}
	logger := logging.WithContext(ctx, e.logger)

	result := Result{
		RunID:            a.runID,
		RawOffset:        a.estimate.Offset,
		CalibratedOffset: a.calibrated,
		AppliedOffset:    a.calibrated,
		InSync:           offset.InSync(a.calibrated, e.params.SyncThreshold),
		Calibrated:       a.applied,
		ContentType:      a.contentType,
		Estimate:         a.estimate,
		Suggestion:       a.suggestion,
		Preprocessed:     a.preprocessed,
		Language:         a.language,
		AudioDuration:    a.audioLength,
		SpeechSegments:   a.speech,
		SubtitleCues:     a.cues,
	}

	stageCtx, err := e.enterStage(ctx, "sync", StageApply)
	if err != nil {
		return result, err
	}
	stageLogger := logging.WithContext(stageCtx, e.logger)

	copyThreshold := e.params.SyncThreshold / 5
	if math.Abs(result.AppliedOffset) < copyThreshold {
		if err := fileutil.CopyFile(req.SubtitlePath, outputPath); err != nil {
			return result, stageError("sync", StageApply, services.ErrExternalTool, "copy subtitle", err)
		}
		result.Copied = true
		result.AppliedOffset = 0
		result.OutputPath = outputPath
		stageLogger.Info("subtitle already in sync",
			append([]any{
				logging.Seconds("offset", result.CalibratedOffset),
				logging.String("output", outputPath),
			}, logging.Args(logging.DecisionAttrs("apply_offset", "copy", fmt.Sprintf("|offset| below %.2fs", copyThreshold))...)...)...,
		)
	} else {
		written, err := e.codec.Rewrite(req.SubtitlePath, result.AppliedOffset, outputPath)
		if err != nil {
			return result, stageError("sync", StageApply, services.ErrExternalTool, "rewrite subtitle", err)
		}
		result.OutputPath = written
		stageLogger.Info("subtitle rewritten",
			append([]any{
				logging.Seconds("offset", result.AppliedOffset),
				logging.String("action", result.Action()),
				logging.String("output", written),
			}, logging.Args(logging.DecisionAttrs("apply_offset", "rewrite", offset.Describe(result.AppliedOffset))...)...)...,
		)
	}

	result.Duration = e.now().Sub(started)
	e.record(ctx, logger, req, history.ModeSync, result.OutputPath, a, result.AppliedOffset, result.InSync, started)

	logger.Info("sync complete",
		logging.String(logging.FieldEventType, "sync_complete"),
		logging.Seconds("raw_offset", result.RawOffset),
		logging.Seconds("applied_offset", result.AppliedOffset),
		logging.Bool("copied", result.Copied),
		logging.Duration("elapsed", result.Duration.Round(time.Millisecond)),
	)
	return result, nil
}

// QuickCheck runs the analysis without writing any subtitle. InSync uses the
// full sync threshold.
func (e *Engine) QuickCheck(ctx context.Context, req Request) (CheckResult, error) {
	started := e.now()
	ctx, a, err := e.analyze(ctx, "check", req)
	if err != nil {
		return CheckResult{RunID: a.runID}, err
	}
	result := CheckResult{
		RunID:         a.runID,
		RawOffset:     a.estimate.Offset,
		Offset:        a.calibrated,
		InSync:        offset.InSync(a.calibrated, e.params.SyncThreshold),
		Calibrated:    a.applied,
		ContentType:   a.contentType,
		Estimate:      a.estimate,
		Suggestion:    a.suggestion,
		Preprocessed:  a.preprocessed,
		AudioDuration: a.audioLength,
		Silence:       a.silence,
		Duration:      e.now().Sub(started),
	}
	logger := logging.WithContext(ctx, e.logger)
	e.record(ctx, logger, req, history.ModeCheck, "", a, result.Offset, result.InSync, started)
	logger.Info("sync check complete",
		logging.String(logging.FieldEventType, "check_complete"),
		logging.Seconds("offset", result.Offset),
		logging.Bool("in_sync", result.InSync),
		logging.String("action", result.Action()),
	)
	return result, nil
}

// analyze runs every stage up to and including calibration. The returned
// context carries the run id.
func (e *Engine) analyze(ctx context.Context, mode string, req Request) (context.Context, analysis, error) {
	a := analysis{runID: e.newRunID()}
	ctx = services.WithRunID(ctx, a.runID)
	logger := logging.WithContext(ctx, e.logger)

	if strings.TrimSpace(req.VideoPath) == "" {
		return ctx, a, services.Wrap(services.ErrValidation, mode, "input", "video path is required", nil)
	}
	if info, err := os.Stat(req.SubtitlePath); err != nil || info.IsDir() {
		if err == nil {
			err = errors.New("is a directory")
		}
		return ctx, a, fmt.Errorf("%s: %w: %s: %w", mode, ErrNoSubtitle, req.SubtitlePath, err)
	}

	a.contentType = req.ContentType
	if a.contentType == "" {
		a.contentType = calibration.Classify(req.VideoPath)
	}
	logger.Info("sync run started",
		logging.String(logging.FieldEventType, mode+"_start"),
		logging.String("video", req.VideoPath),
		logging.String("subtitle", req.SubtitlePath),
		logging.String("content_type", a.contentType.String()),
	)

	workDir, cleanup, err := e.runDir(req, a.runID)
	if err != nil {
		return ctx, a, stageError(mode, StageExtract, services.ErrConfiguration, "create work directory", err)
	}
	defer cleanup(logger)

	// Extract
	stageCtx, err := e.enterStage(ctx, mode, StageExtract)
	if err != nil {
		return ctx, a, err
	}
	audio, err := e.extractor.ExtractAudio(stageCtx, req.VideoPath, filepath.Join(workDir, extractedAudioName))
	if err != nil {
		return ctx, a, fmt.Errorf("%s: %s: %w", mode, StageExtract, err)
	}
	a.language = audio.Language
	if e.language != "" {
		a.language = e.language
	}
	a.audioLength = audio.Duration
	if req.DetectSilence && e.silence != nil {
		a.silence = e.detectSilence(stageCtx, audio.Path)
	}

	// Preprocess
	speechAudio := audio.Path
	if req.UsePreprocessing && e.preprocessor != nil {
		stageCtx, err = e.enterStage(ctx, mode, StagePreprocess)
		if err != nil {
			return ctx, a, err
		}
		prep := e.preprocessor.Preprocess(stageCtx, audio.Path)
		defer func() {
			if err := prep.Cleanup(); err != nil {
				logger.Debug("preprocessed audio cleanup failed", logging.Error(err))
			}
		}()
		speechAudio = prep.Path
		a.preprocessed = prep.Ok()
	}

	// Speech
	stageCtx, err = e.enterStage(ctx, mode, StageSpeech)
	if err != nil {
		return ctx, a, err
	}
	speech, err := e.segmenter.Segment(stageCtx, speechAudio, a.language)
	if err != nil {
		return ctx, a, fmt.Errorf("%s: %s: %w", mode, StageSpeech, err)
	}
	speech = e.prepareSpeech(speech)
	a.speech = len(speech)

	// Subtitles
	stageCtx, err = e.enterStage(ctx, mode, StageSubtitles)
	if err != nil {
		return ctx, a, err
	}
	cues, err := e.codec.ParseTimings(req.SubtitlePath)
	if err != nil {
		return ctx, a, stageError(mode, StageSubtitles, services.ErrValidation, "read subtitle", err)
	}
	texts, err := e.codec.ParseTexts(req.SubtitlePath)
	if err != nil || len(texts) != len(cues) {
		texts = nil
	}
	a.cues = len(cues)

	// Estimate
	stageCtx, err = e.enterStage(ctx, mode, StageEstimate)
	if err != nil {
		return ctx, a, err
	}
	a.estimate = e.estimator.Estimate(stageCtx, offset.Input{
		Subtitles:     cues,
		Speech:        speech,
		SubtitleTexts: texts,
	})
	a.calibrated = a.estimate.Offset

	// Calibrate
	if req.UseCalibration && e.calibration != nil {
		stageCtx, err = e.enterStage(ctx, mode, StageCalibrate)
		if err != nil {
			return ctx, a, err
		}
		e.calibrate(stageCtx, &a)
	}
	return ctx, a, nil
}

func (e *Engine) calibrate(ctx context.Context, a *analysis) {
	logger := logging.WithContext(ctx, e.logger)
	if e.calibration.Len() == 0 {
		logger.Debug("no calibration history", logging.String("content_type", a.contentType.String()))
		return
	}
	a.calibrated = e.calibration.Apply(a.estimate.Offset, a.contentType)
	a.applied = true
	a.suggestion = e.calibration.Suggest(a.estimate.Offset)

	logger.Info("calibration applied",
		logging.Seconds("raw_offset", a.estimate.Offset),
		logging.Seconds("calibrated_offset", a.calibrated),
		logging.String("content_type", a.contentType.String()),
		logging.Int("history_size", e.calibration.Len()),
	)
	if a.suggestion.ShouldAdjust {
		logger.Info("calibration suggests adjustment",
			logging.Seconds("delta", a.suggestion.Delta),
			logging.Float64("confidence", math.Round(a.suggestion.Confidence*100)/100),
		)
	}
}

// detectSilence is diagnostic only; failures are logged.
func (e *Engine) detectSilence(ctx context.Context, audioPath string) []audioprep.Period {
	logger := logging.WithContext(ctx, e.logger)
	periods, err := e.silence.DetectSilence(ctx, audioPath, e.silenceDB)
	if err != nil {
		logging.WarnWithContext(logger, "silence detection failed", "silence_detect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify ffmpeg supports silencedetect"),
			logging.String(logging.FieldImpact, "silence report omitted"),
		)
		return nil
	}
	logger.Info("silence detected",
		logging.Int("periods", len(periods)),
		logging.Seconds("total_silence", audioprep.TotalSilence(periods)),
	)
	return periods
}

func (e *Engine) prepareSpeech(speech []segment.Segment) []segment.Segment {
	out := append([]segment.Segment(nil), speech...)
	segment.SortByStart(out)
	if e.minSegment > 0 {
		out = segment.FilterShort(out, e.minSegment)
	}
	return out
}

// enterStage checks for cancellation and tags the context with the stage.
func (e *Engine) enterStage(ctx context.Context, mode, stage string) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "sync run canceled", "run_canceled",
			logging.String("next_stage", stage),
			logging.String(logging.FieldErrorHint, "rerun the sync when ready"),
			logging.String(logging.FieldImpact, "no subtitle was written"),
		)
		return ctx, fmt.Errorf("%s: %s: %w", mode, stage, err)
	}
	return services.WithStage(ctx, stage), nil
}

// runDir creates the per-run temporary directory.
func (e *Engine) runDir(req Request, runID string) (string, func(*slog.Logger), error) {
	base := strings.TrimSpace(req.WorkDir)
	if base == "" {
		base = e.workDir
	}
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", nil, err
		}
	}
	dir, err := os.MkdirTemp(base, "run-"+shortID(runID)+"-")
	if err != nil {
		return "", nil, err
	}
	return dir, func(logger *slog.Logger) {
		if err := os.RemoveAll(dir); err != nil {
			logging.WarnWithContext(logger, "failed to remove run directory", "cleanup_failed",
				logging.String("dir", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
				logging.String(logging.FieldImpact, "temporary audio remains on disk"),
			)
		}
	}, nil
}

func (e *Engine) record(ctx context.Context, logger *slog.Logger, req Request, mode, output string, a analysis, applied float64, inSync bool, started time.Time) {
	if e.recorder == nil {
		return
	}
	finished := e.now()
	_, err := e.recorder.Record(ctx, history.Run{
		ID:               a.runID,
		VideoPath:        req.VideoPath,
		SubtitlePath:     req.SubtitlePath,
		OutputPath:       output,
		ContentType:      a.contentType.String(),
		Mode:             mode,
		RawOffset:        a.estimate.Offset,
		CalibratedOffset: a.calibrated,
		AppliedOffset:    applied,
		InSync:           inSync,
		Confidence:       a.estimate.Confidence,
		Preprocessed:     a.preprocessed,
		Duration:         finished.Sub(started),
		StartedAt:        started,
		FinishedAt:       finished,
	})
	if err != nil {
		logging.WarnWithContext(logger, "failed to record sync run", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path"),
			logging.String(logging.FieldImpact, "subsync learn cannot look up this run"),
		)
	}
}

func stageError(mode, stage string, marker error, message string, err error) error {
	return fmt.Errorf("%s: %s: %w", mode, stage, services.Wrap(marker, "", "", message, err))
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"subsync/internal/audioprep"
	"subsync/internal/calibration"
	"subsync/internal/config"
	"subsync/internal/history"
	"subsync/internal/logging"
	"subsync/internal/offset"
	"subsync/internal/services/whisperx"
	"subsync/internal/syncer"
)

// engineFactory builds the sync engine for a command. Tests replace it to run
// the pipeline against fake collaborators.
var engineFactory = buildEngine

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openCalibration() (*calibration.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return calibration.Open(cfg.Paths.CalibrationFile, logger), nil
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.Paths.HistoryDB)
}

// engine assembles a sync engine. An unavailable run ledger is logged and the
// engine runs without one; the returned cleanup releases it.
func (c *commandContext) engine() (*syncer.Engine, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.openCalibration()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var recorder syncer.Recorder
	hist, err := c.openHistory()
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.String("path", cfg.Paths.HistoryDB),
			logging.Error(err),
			logging.String(logging.FieldImpact, "runs will not be recorded"))
	} else {
		recorder = hist
		cleanup = func() { _ = hist.Close() }
	}

	engine, err := engineFactory(cfg, logger, store, recorder)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

func (c *commandContext) baseRequest(video, subtitle string, noCalibration, noPreprocess bool, contentType string) syncer.Request {
	cfg := c.configValue()
	req := syncer.Request{
		VideoPath:        strings.TrimSpace(video),
		SubtitlePath:     strings.TrimSpace(subtitle),
		UseCalibration:   !noCalibration,
		UsePreprocessing: !noPreprocess,
	}
	if cfg != nil {
		req.UseCalibration = req.UseCalibration && cfg.Sync.UseCalibration
		req.UsePreprocessing = req.UsePreprocessing && cfg.Sync.UsePreprocessing
	}
	if value := strings.TrimSpace(contentType); value != "" {
		req.ContentType = calibration.ParseContentType(value)
	}
	return req
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func buildEngine(cfg *config.Config, logger *slog.Logger, store *calibration.Store, recorder syncer.Recorder) (*syncer.Engine, error) {
	prep := audioprep.New(audioprep.Options{
		FFmpegBinary: cfg.FFmpegBinary(),
		SampleRate:   cfg.Preprocess.SampleRate,
		Timeout:      seconds(cfg.Preprocess.TimeoutSeconds),
		Logger:       logger,
	})
	segmenter := whisperx.NewService(whisperx.Config{
		Model:              cfg.WhisperX.Model,
		CUDAEnabled:        cfg.WhisperX.CUDAEnabled,
		VADMethod:          cfg.WhisperX.VADMethod,
		HFToken:            cfg.WhisperX.HFToken,
		Language:           cfg.WhisperX.Language,
		Timeout:            seconds(cfg.WhisperX.TimeoutSeconds),
		MinSegmentDuration: cfg.Sync.MinSegmentDuration,
	})
	return syncer.New(syncer.Options{
		Extractor:          whisperx.NewExtractor(cfg.FFmpegBinary(), cfg.FFprobeBinary()),
		Preprocessor:       prep,
		Segmenter:          segmenter,
		Calibration:        store,
		Recorder:           recorder,
		Params:             estimatorParams(cfg.Sync),
		SilenceDetector:    prep,
		SilenceThresholdDB: cfg.Preprocess.SilenceThresholdDB,
		WorkDir:            cfg.Paths.WorkDir,
		Language:           cfg.WhisperX.Language,
		MinSegmentDuration: cfg.Sync.MinSegmentDuration,
		Logger:             logger,
	})
}

func estimatorParams(s config.Sync) offset.Params {
	p := offset.DefaultParams()
	p.SampleSize = s.SampleSize
	p.BaseSearchRadius = s.BaseSearchRadius
	p.SearchMargin = s.SearchMargin
	p.Resolution = s.Resolution
	p.MaxSegmentDistance = s.MaxSegmentDistance
	p.MinMatchRatio = s.MinMatchRatio
	p.UnmatchedPenalty = s.UnmatchedPenalty
	p.MidpointMinSegments = s.MidpointMinSegments
	p.MidpointDisagreement = s.MidpointDisagreement
	p.BlendWeight = s.BlendWeight
	p.Precision = s.Precision
	p.SyncThreshold = s.SyncThreshold
	return p
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

// signalContext cancels on SIGINT or SIGTERM so in-flight runs clean up their
// temporary audio.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func signedSeconds(value float64) string {
	return fmt.Sprintf("%+.2fs", value)
}

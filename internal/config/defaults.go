package config

const (
	defaultConfigPath      = "~/.config/subsync/config.toml"
	defaultWorkDir         = "~/.cache/subsync/work"
	defaultLogDir          = ""
	defaultCalibrationFile = "~/.local/share/subsync/sync_calibration.json"
	defaultHistoryDB       = "~/.local/share/subsync/history.db"

	defaultWhisperXModel   = "large-v3"
	defaultWhisperXVAD     = "silero"
	defaultWhisperXTimeout = 3600

	defaultSampleSize           = 20
	defaultBaseSearchRadius     = 30.0
	defaultSearchMargin         = 10.0
	defaultResolution           = 0.05
	defaultMaxSegmentDistance   = 2.0
	defaultMinMatchRatio        = 0.5
	defaultUnmatchedPenalty     = 1000.0
	defaultMidpointMinSegments  = 10
	defaultMidpointDisagreement = 5.0
	defaultBlendWeight          = 0.7
	defaultPrecision            = 0.05
	defaultSyncThreshold        = 0.5
	defaultMinSegmentDuration   = 0.3
	defaultWorkers              = 3
	maxWorkers                  = 16

	defaultPreprocessTimeout  = 300
	defaultSampleRate         = 16000
	defaultSilenceThresholdDB = -40.0

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
	defaultLogColor  = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:         defaultWorkDir,
			LogDir:          defaultLogDir,
			CalibrationFile: defaultCalibrationFile,
			HistoryDB:       defaultHistoryDB,
		},
		WhisperX: WhisperX{
			Model:          defaultWhisperXModel,
			VADMethod:      defaultWhisperXVAD,
			TimeoutSeconds: defaultWhisperXTimeout,
		},
		Sync: Sync{
			SampleSize:           defaultSampleSize,
			BaseSearchRadius:     defaultBaseSearchRadius,
			SearchMargin:         defaultSearchMargin,
			Resolution:           defaultResolution,
			MaxSegmentDistance:   defaultMaxSegmentDistance,
			MinMatchRatio:        defaultMinMatchRatio,
			UnmatchedPenalty:     defaultUnmatchedPenalty,
			MidpointMinSegments:  defaultMidpointMinSegments,
			MidpointDisagreement: defaultMidpointDisagreement,
			BlendWeight:          defaultBlendWeight,
			Precision:            defaultPrecision,
			SyncThreshold:        defaultSyncThreshold,
			MinSegmentDuration:   defaultMinSegmentDuration,
			UseCalibration:       true,
			UsePreprocessing:     true,
			Workers:              defaultWorkers,
		},
		Preprocess: Preprocess{
			TimeoutSeconds:     defaultPreprocessTimeout,
			SampleRate:         defaultSampleRate,
			SilenceThresholdDB: defaultSilenceThresholdDB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Color:  defaultLogColor,
		},
	}
}

package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvListenPort      = "LISTEN_PORT"
	EnvMetricsPort     = "METRICS_PORT"
	EnvModelPath       = "MODEL_PATH"
	EnvModelURL        = "MODEL_URL"
	EnvDataPath        = "DATA_PATH"
	EnvRiskThreshold   = "RISK_THRESHOLD"
	EnvEnableFallback  = "ENABLE_FALLBACK"
	EnvDownloadTimeout = "DOWNLOAD_TIMEOUT"
	EnvHistoryLimit    = "HISTORY_LIMIT"
	EnvLogLevel        = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultListenPort     = 8080
	DefaultMetricsPort    = 9090
	DefaultModelPath      = "models/model_knn.json"
	DefaultRiskThreshold  = 0.5
	DefaultHistoryLimit   = 50
)

// Common error messages
const (
	ErrMsgModelPathRequired = "model path is required"
	ErrMsgPortConflict      = "listen port and metrics port must differ"
)

// Validation constants
const (
	MinPort         = 1024
	MaxPort         = 65535
	MaxHistoryLimit = 1000
)

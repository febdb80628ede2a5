package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ckd-predictor/internal/common"

	"gopkg.in/yaml.v3"
)

// Settings holds the resolved runtime configuration.
type Settings struct {
	ListenPort      int
	MetricsPort     int
	ModelPath       string
	ModelURL        string
	DataPath        string
	RiskThreshold   float64
	EnableFallback  bool
	DownloadTimeout time.Duration
	HistoryLimit    int
}

// ConfigFile mirrors the optional YAML configuration file.
type ConfigFile struct {
	Server struct {
		ListenPort  int `yaml:"listenPort"`
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"server"`

	ML struct {
		ModelPath      string  `yaml:"modelPath"`
		ModelURL       string  `yaml:"modelURL"`
		RiskThreshold  float64 `yaml:"riskThreshold"`
		EnableFallback *bool   `yaml:"enableFallback"`
	} `yaml:"ml"`

	System struct {
		DataPath        string `yaml:"dataPath"`
		DownloadTimeout string `yaml:"downloadTimeout"`
		HistoryLimit    int    `yaml:"historyLimit"`
	} `yaml:"system"`
}

// Load resolves settings from the YAML file named by CONFIG_FILE if set,
// otherwise from environment variables with defaults.
func Load() (Settings, error) {
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	downloadTimeout, err := time.ParseDuration(config.System.DownloadTimeout)
	if err != nil {
		downloadTimeout = 30 * time.Second
	}

	enableFallback := true
	if config.ML.EnableFallback != nil {
		enableFallback = *config.ML.EnableFallback
	}

	settings := Settings{
		ListenPort:      getIntFromEnvOrConfig(common.EnvListenPort, config.Server.ListenPort, common.DefaultListenPort),
		MetricsPort:     getIntFromEnvOrConfig(common.EnvMetricsPort, config.Server.MetricsPort, common.DefaultMetricsPort),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.ML.ModelPath, common.DefaultModelPath)),
		ModelURL:        getEnvOrDefault(common.EnvModelURL, config.ML.ModelURL),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		RiskThreshold:   getFloatFromEnvOrConfig(common.EnvRiskThreshold, config.ML.RiskThreshold, common.DefaultRiskThreshold),
		EnableFallback:  getBoolOrDefault(common.EnvEnableFallback, enableFallback),
		DownloadTimeout: getDurationOrDefault(common.EnvDownloadTimeout, downloadTimeout),
		HistoryLimit:    getIntFromEnvOrConfig(common.EnvHistoryLimit, config.System.HistoryLimit, common.DefaultHistoryLimit),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenPort:      getIntOrDefault(common.EnvListenPort, common.DefaultListenPort),
		MetricsPort:     getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ModelURL:        os.Getenv(common.EnvModelURL),  // optional
		DataPath:        os.Getenv(common.EnvDataPath),  // optional, empty disables history
		RiskThreshold:   getFloatOrDefault(common.EnvRiskThreshold, common.DefaultRiskThreshold),
		EnableFallback:  getBoolOrDefault(common.EnvEnableFallback, true),
		DownloadTimeout: getDurationOrDefault(common.EnvDownloadTimeout, 30*time.Second),
		HistoryLimit:    getIntOrDefault(common.EnvHistoryLimit, common.DefaultHistoryLimit),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs range validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.ModelPath == "" {
		return fmt.Errorf("%s", common.ErrMsgModelPathRequired)
	}

	if settings.ListenPort < common.MinPort || settings.ListenPort > common.MaxPort {
		return fmt.Errorf("listen port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.ListenPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("%s", common.ErrMsgPortConflict)
	}

	if settings.RiskThreshold <= 0 || settings.RiskThreshold >= 1 {
		return fmt.Errorf("risk threshold must be between 0 and 1 exclusive, got %f", settings.RiskThreshold)
	}

	if settings.DownloadTimeout < time.Second || settings.DownloadTimeout > 5*time.Minute {
		return fmt.Errorf("download timeout must be between 1s and 5m, got %v", settings.DownloadTimeout)
	}

	if settings.HistoryLimit <= 0 || settings.HistoryLimit > common.MaxHistoryLimit {
		return fmt.Errorf("history limit must be between 1 and %d, got %d", common.MaxHistoryLimit, settings.HistoryLimit)
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Strategy-specific defaults are handled by the strategy constructors
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStudyDefaults(&cfg.Study)
	applyRemoteDefaults(cfg)
	applyKeystoreDefaults(&cfg.Keystore)
	applyStorageDefaults(&cfg.Storage)
	applySyncDefaults(&cfg.Sync)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyStudyDefaults sets study defaults.
func applyStudyDefaults(cfg *StudyConfig) {
	if cfg.BaseFilename == "" {
		cfg.BaseFilename = "data.csv"
	}
}

// applyRemoteDefaults sets session server client defaults.
func applyRemoteDefaults(cfg *Config) {
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Remote.RequestsPerSecond == 0 {
		cfg.Remote.RequestsPerSecond = 10
	}
	if cfg.Remote.Burst == 0 {
		cfg.Remote.Burst = 5
	}
}

// applyKeystoreDefaults sets key/value store defaults.
func applyKeystoreDefaults(cfg *KeystoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["path"]; !ok {
		cfg.Badger["path"] = defaultKeystorePath()
	}
}

// defaultKeystorePath returns the default BadgerDB directory, following
// XDG_DATA_HOME with a ~/.local/share fallback.
func defaultKeystorePath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "studysync", "keystore")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "studysync-keystore")
	}

	return filepath.Join(home, ".local", "share", "studysync", "keystore")
}

// applyStorageDefaults sets storage strategy defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = "auto"
	}

	if cfg.Native == nil {
		cfg.Native = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}

// applySyncDefaults sets background sync defaults.
func applySyncDefaults(cfg *SyncConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 60 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.ListenAddress == "" {
		cfg.ListenAddress = "127.0.0.1:9090"
	}
}

// Package config loads, defaults, validates and materializes the sync
// client configuration.
//
// Each storage backend defines its own options; the Config struct carries
// type-specific sections as raw maps and only the section matching the
// selected type is decoded, so adding a backend never touches unrelated
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marmos91/studysync/pkg/remote"
)

// Config represents the complete sync client configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (STUDYSYNC_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Study identifies the session and its tracked files
	Study StudyConfig `mapstructure:"study"`

	// Remote configures the session server client
	Remote remote.Config `mapstructure:"remote"`

	// Keystore specifies the key/value store type and type-specific options
	Keystore KeystoreConfig `mapstructure:"keystore"`

	// Storage specifies the storage strategy type and type-specific options
	Storage StorageConfig `mapstructure:"storage"`

	// Sync controls the periodic runner and the directory watcher
	Sync SyncConfig `mapstructure:"sync"`

	// Metrics controls the optional Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// StudyConfig identifies the study session.
type StudyConfig struct {
	// ID is the opaque study identifier namespacing all local state and
	// all server calls
	ID string `mapstructure:"id" validate:"required"`

	// BaseFilename is the raw data file the tracked set derives from
	BaseFilename string `mapstructure:"base_filename" validate:"required"`
}

// KeystoreConfig specifies key/value store configuration.
//
// The Type field determines which implementation is used. Only the
// corresponding type-specific section is decoded.
type KeystoreConfig struct {
	// Type specifies which keystore implementation to use
	// Valid values: badger, memory
	Type string `mapstructure:"type" validate:"required,oneof=badger memory"`

	// Badger contains BadgerDB-specific options
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// StorageConfig specifies storage strategy configuration.
//
// The Type field determines which strategy is used; "auto" probes for
// native directory support and falls back to the keystore strategy.
type StorageConfig struct {
	// Type specifies which storage strategy to use
	// Valid values: auto, native, fallback, s3
	Type string `mapstructure:"type" validate:"required,oneof=auto native fallback s3"`

	// Native contains directory-strategy options
	// Only used when Type = "native" or "auto"
	Native map[string]any `mapstructure:"native"`

	// S3 contains S3-strategy options
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// SyncConfig controls the background sync behaviors.
type SyncConfig struct {
	// Interval is the periodic sync cadence. 0 selects the 60s default;
	// a negative value disables periodic sync.
	Interval time.Duration `mapstructure:"interval"`

	// Watch enables the local directory watcher (native strategy only)
	Watch bool `mapstructure:"watch"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns metrics collection on
	Enabled bool `mapstructure:"enabled"`

	// ListenAddress is where /metrics is served, e.g. "127.0.0.1:9090"
	ListenAddress string `mapstructure:"listen_address"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (STUDYSYNC_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use STUDYSYNC_ prefix and underscores
	// Example: STUDYSYNC_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("STUDYSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register the keys that may arrive via environment only, so
	// AutomaticEnv can bind them during Unmarshal even without a config file
	v.SetDefault("study.id", "")
	v.SetDefault("study.base_filename", "")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("logging.level", "")
	v.SetDefault("keystore.type", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/studysync/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Missing config file is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "studysync")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "studysync")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init-config command).
func GetConfigDir() string {
	return getConfigDir()
}

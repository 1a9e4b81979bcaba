// Package config provides configuration management for the farm alert engine.
package config

import "time"

// Config is the root configuration structure for the farm alert engine.
type Config struct {
	Sensor      SensorConfig      `mapstructure:"sensor"`
	Storage     StorageConfig     `mapstructure:"storage" validate:"required"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Report      ReportConfig      `mapstructure:"report"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Server      ServerConfig      `mapstructure:"server"`
}

// SensorConfig describes where sensor snapshots come from. Endpoint and File
// are mutually exclusive; with neither set no sensor alerts are produced.
type SensorConfig struct {
	Endpoint string        `mapstructure:"endpoint" validate:"omitempty,url"` // Realtime database base URL
	Path     string        `mapstructure:"path" validate:"required"`          // Env-log collection path
	Token    string        `mapstructure:"token"`                             // Optional auth token
	Timeout  time.Duration `mapstructure:"timeout"`
	File     string        `mapstructure:"file"` // Snapshot JSON file for offline runs
}

// HasSource reports whether any sensor source is configured.
func (c SensorConfig) HasSource() bool {
	return c.Endpoint != "" || c.File != ""
}

// StorageConfig contains configuration for the durable key-value store.
type StorageConfig struct {
	Path               string `mapstructure:"path" validate:"required"`  // SQLite database file
	Quota              int64  `mapstructure:"quota"`                     // Byte quota across all keys
	ManualHistoryKey   string `mapstructure:"manual_history_key" validate:"required"`
	LiveHistoryKey     string `mapstructure:"live_history_key" validate:"required"`
	ManualHistoryLimit int    `mapstructure:"manual_history_limit" validate:"gte=1,lte=100"`
}

// PreferencesConfig contains configuration for preference persistence.
type PreferencesConfig struct {
	Key            string        `mapstructure:"key" validate:"required"`
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
}

// MonitorConfig contains configuration for alert computation.
type MonitorConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Timezone       string        `mapstructure:"timezone" validate:"timezone"` // Zone of sensor timestamps
	HealthyLabel   string        `mapstructure:"healthy_label" validate:"required"`
	ThresholdsFile string        `mapstructure:"thresholds_file"` // Built-in table when empty
}

// Location returns the configured timezone, falling back to UTC when it
// cannot be loaded.
func (c MonitorConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReportConfig contains configurations for report generation.
type ReportConfig struct {
	OutputDir        string   `mapstructure:"output_dir"`
	Formats          []string `mapstructure:"formats" validate:"dive,oneof=excel html"`
	FilenameTemplate string   `mapstructure:"filename_template"`
	HTMLTemplate     string   `mapstructure:"html_template"`
	ExcelTemplate    string   `mapstructure:"excel_template"`
}

// LoggingConfig contains configurations for logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// HTTPConfig contains HTTP client configurations including retry settings.
type HTTPConfig struct {
	Retry RetryConfig `mapstructure:"retry"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

// ServerConfig contains configuration for the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

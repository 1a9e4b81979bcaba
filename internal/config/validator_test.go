// Package config provides configuration management for the farm alert engine.
package config

import (
	"strings"
	"testing"
	"time"
)

// newValidConfig creates a valid configuration for testing.
func newValidConfig() *Config {
	return &Config{
		Sensor: SensorConfig{
			Endpoint: "https://farm-default-rtdb.example.com",
			Path:     "envLogs",
			Timeout:  10 * time.Second,
		},
		Storage: StorageConfig{
			Path:               "./data/farmalert.db",
			Quota:              5 << 20,
			ManualHistoryKey:   "diseaseAnalysisHistory",
			LiveHistoryKey:     "liveDetectionHistory",
			ManualHistoryLimit: 8,
		},
		Preferences: PreferencesConfig{
			Key:            "alertPrefs_v8",
			DebounceWindow: 500 * time.Millisecond,
		},
		Monitor: MonitorConfig{
			PollInterval: 30 * time.Second,
			Timezone:     "Asia/Kolkata",
			HealthyLabel: "Healthy",
		},
		Report: ReportConfig{
			OutputDir:        "./reports",
			Formats:          []string{"excel", "html"},
			FilenameTemplate: "farm_alerts_{{.Date}}",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			Retry: RetryConfig{
				MaxRetries: 3,
				BaseDelay:  1 * time.Second,
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// hasField reports whether errs contains an error for field.
func hasField(err error, field string) bool {
	errs, ok := err.(ValidationErrors)
	if !ok {
		return false
	}
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(newValidConfig()); err != nil {
		t.Errorf("Validate() error = %v, want nil for valid config", err)
	}
}

func TestValidate_NoSensorSource(t *testing.T) {
	cfg := newValidConfig()
	cfg.Sensor.Endpoint = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, sensor source is optional", err)
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"invalid sensor URL", func(c *Config) { c.Sensor.Endpoint = "not-a-url" }, "sensor.endpoint"},
		{"missing storage path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"history limit too low", func(c *Config) { c.Storage.ManualHistoryLimit = 0 }, "storage.manualhistorylimit"},
		{"history limit too high", func(c *Config) { c.Storage.ManualHistoryLimit = 101 }, "storage.manualhistorylimit"},
		{"missing preferences key", func(c *Config) { c.Preferences.Key = "" }, "preferences.key"},
		{"missing healthy label", func(c *Config) { c.Monitor.HealthyLabel = "" }, "monitor.healthylabel"},
		{"invalid timezone", func(c *Config) { c.Monitor.Timezone = "Invalid/Zone" }, "monitor.timezone"},
		{"invalid report format", func(c *Config) { c.Report.Formats = []string{"pdf"} }, "report.formats[0]"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"too many retries", func(c *Config) { c.HTTP.Retry.MaxRetries = 11 }, "http.retry.maxretries"},
		{"missing server addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() should return error")
			}
			if !hasField(err, tt.field) {
				t.Errorf("Validate() error = %v, want error on %s", err, tt.field)
			}
		})
	}
}

// =============================================================================
// Business Rule Tests
// =============================================================================

func TestValidate_SensorSourcesExclusive(t *testing.T) {
	cfg := newValidConfig()
	cfg.Sensor.File = "snapshot.json"

	if err := Validate(cfg); !hasField(err, "sensor") {
		t.Errorf("Validate() error = %v, want sensor exclusivity error", err)
	}
}

func TestValidate_QuotaMustBePositive(t *testing.T) {
	for _, quota := range []int64{0, -1} {
		cfg := newValidConfig()
		cfg.Storage.Quota = quota

		if err := Validate(cfg); !hasField(err, "storage.quota") {
			t.Errorf("quota %d: Validate() error = %v, want storage.quota error", quota, err)
		}
	}
}

func TestValidate_DebounceShorterThanPoll(t *testing.T) {
	cfg := newValidConfig()
	cfg.Preferences.DebounceWindow = 30 * time.Second

	err := Validate(cfg)
	if !hasField(err, "preferences.debounce_window") {
		t.Fatalf("Validate() error = %v, want debounce error", err)
	}
	if !strings.Contains(err.Error(), "must be less than poll interval") {
		t.Errorf("error message = %v", err)
	}
}

func TestValidate_ZeroDurations(t *testing.T) {
	cfg := newValidConfig()
	cfg.Preferences.DebounceWindow = 0
	cfg.Monitor.PollInterval = 0

	err := Validate(cfg)
	if !hasField(err, "preferences.debounce_window") || !hasField(err, "monitor.poll_interval") {
		t.Errorf("Validate() error = %v, want both duration errors", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := newValidConfig()
	cfg.Storage.Path = ""
	cfg.Logging.Level = "trace"
	cfg.Storage.Quota = 0

	err := Validate(cfg)
	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(errs) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(errs), err)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "storage.path", Message: "this field is required"}
	if err.Error() != "this field is required" {
		t.Errorf("Error() = %v", err.Error())
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "storage.path", Message: "this field is required"},
		{Field: "logging.level", Message: "value must be one of: debug info warn error"},
	}

	msg := errs.Error()
	if !strings.Contains(msg, "config validation failed") {
		t.Errorf("Error() should contain header, got %v", msg)
	}
	if !strings.Contains(msg, "storage.path") || !strings.Contains(msg, "logging.level") {
		t.Errorf("Error() should list all fields, got %v", msg)
	}
}

func TestValidationErrors_Empty(t *testing.T) {
	if msg := (ValidationErrors{}).Error(); msg != "" {
		t.Errorf("Error() = %q, want empty", msg)
	}
}

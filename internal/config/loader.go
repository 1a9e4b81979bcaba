// Package config provides configuration management for the farm alert engine.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified YAML file and environment variables.
// Environment variables take precedence over file values.
// Environment variable format: FARMALERT_<SECTION>_<KEY> (e.g., FARMALERT_SENSOR_TOKEN)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FARMALERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Sensor defaults
	v.SetDefault("sensor.path", "envLogs")
	v.SetDefault("sensor.timeout", 10*time.Second)

	// Storage defaults - quota mirrors browser local storage
	v.SetDefault("storage.path", "./data/farmalert.db")
	v.SetDefault("storage.quota", 5<<20)
	v.SetDefault("storage.manual_history_key", "diseaseAnalysisHistory")
	v.SetDefault("storage.live_history_key", "liveDetectionHistory")
	v.SetDefault("storage.manual_history_limit", 8)

	// Preference defaults
	v.SetDefault("preferences.key", "alertPrefs_v8")
	v.SetDefault("preferences.debounce_window", 500*time.Millisecond)

	// Monitor defaults
	v.SetDefault("monitor.poll_interval", 30*time.Second)
	v.SetDefault("monitor.timezone", "Asia/Kolkata")
	v.SetDefault("monitor.healthy_label", "Healthy")

	// Report defaults
	v.SetDefault("report.output_dir", "./reports")
	v.SetDefault("report.formats", []string{"excel", "html"})
	v.SetDefault("report.filename_template", "farm_alerts_{{.Date}}")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// HTTP retry defaults
	v.SetDefault("http.retry.max_retries", 3)
	v.SetDefault("http.retry.base_delay", 1*time.Second)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

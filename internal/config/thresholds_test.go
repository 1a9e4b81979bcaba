// Package config provides configuration management for the farm alert engine.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"farm-alerts/internal/model"
)

func writeThresholds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadThresholds_Success(t *testing.T) {
	path := writeThresholds(t, `
thresholds:
  - metric: temperature
    display_name: Temperature
    unit: "°C"
    optimal_min: 20
    optimal_max: 30
  - metric: humidity
    unit: "%"
    optimal_min: 40
    optimal_max: 60
`)

	table, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	th, ok := table.Lookup(model.MetricTemperature)
	if !ok {
		t.Fatal("temperature threshold missing")
	}
	if th.OptimalMin != 20 || th.OptimalMax != 30 {
		t.Errorf("temperature range = [%v, %v], want [20, 30]", th.OptimalMin, th.OptimalMax)
	}

	hum, _ := table.Lookup(model.MetricHumidity)
	if hum.DisplayName != model.MetricHumidity {
		t.Errorf("DisplayName = %q, want metric name fallback", hum.DisplayName)
	}
}

func TestLoadThresholds_EmptyPath(t *testing.T) {
	table, err := LoadThresholds("")
	if err != nil {
		t.Fatalf("LoadThresholds() error = %v", err)
	}
	if table.Len() != model.DefaultThresholds().Len() {
		t.Errorf("Len() = %d, want built-in table", table.Len())
	}
}

func TestLoadThresholds_FileNotFound(t *testing.T) {
	if _, err := LoadThresholds("/nonexistent/thresholds.yaml"); err == nil {
		t.Error("LoadThresholds() should return error for nonexistent file")
	}
}

func TestLoadThresholds_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "thresholds: [unclosed"},
		{"empty", "thresholds: []"},
		{"missing metric", "thresholds:\n  - optimal_min: 1\n    optimal_max: 2\n"},
		{"inverted range", "thresholds:\n  - metric: temperature\n    optimal_min: 40\n    optimal_max: 20\n"},
		{"duplicate", "thresholds:\n  - metric: humidity\n  - metric: humidity\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadThresholds(writeThresholds(t, tt.content)); err == nil {
				t.Error("LoadThresholds() should return error")
			}
		})
	}
}

func TestLoadThresholds_RealFile(t *testing.T) {
	path := "../../configs/thresholds.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("configs/thresholds.yaml not found")
	}

	table, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds() error = %v", err)
	}

	defaults := model.DefaultThresholds().Entries()
	got := table.Entries()
	if len(got) != len(defaults) {
		t.Fatalf("got %d thresholds, want %d", len(got), len(defaults))
	}
	for i := range defaults {
		if got[i] != defaults[i] {
			t.Errorf("threshold %d = %+v, want %+v", i, got[i], defaults[i])
		}
	}
}

// Package config provides configuration management for the farm alert engine.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"farm-alerts/internal/model"
)

// LoadThresholds reads the optimal-range table from the specified YAML file.
// An empty path yields the built-in table.
func LoadThresholds(path string) (*model.ThresholdTable, error) {
	if path == "" {
		return model.DefaultThresholds(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("thresholds file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	var file model.ThresholdsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file: %w", err)
	}

	if len(file.Thresholds) == 0 {
		return nil, fmt.Errorf("no thresholds defined in file: %s", path)
	}

	table, err := model.NewThresholdTable(file.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("invalid thresholds file %s: %w", path, err)
	}
	return table, nil
}

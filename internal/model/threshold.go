// Package model provides data models for the farm alert engine.
package model

import "fmt"

// Metric keys of the sensor snapshot.
const (
	MetricTemperature    = "temperature"
	MetricHumidity       = "humidity"
	MetricSoilMoisture   = "soilMoisture"
	MetricLightIntensity = "lightIntensity"
	MetricBatteryVoltage = "batteryVoltage"
	MetricRainSensor     = "rainSensor"
)

// Threshold defines the inclusive optimal range of one sensor metric.
type Threshold struct {
	Metric      string  `yaml:"metric" json:"metric"`             // metric key in the snapshot
	DisplayName string  `yaml:"display_name" json:"display_name"` // human readable name
	Unit        string  `yaml:"unit" json:"unit"`                 // default unit when the reading has none
	OptimalMin  float64 `yaml:"optimal_min" json:"optimal_min"`
	OptimalMax  float64 `yaml:"optimal_max" json:"optimal_max"`
}

// Contains reports whether v lies inside the optimal range. Bounds are inclusive.
func (t Threshold) Contains(v float64) bool {
	return v >= t.OptimalMin && v <= t.OptimalMax
}

// ConditionOf returns the side of the range v falls on, or "" when v is optimal.
func (t Threshold) ConditionOf(v float64) Condition {
	switch {
	case t.Contains(v):
		return ""
	case v < t.OptimalMin:
		return ConditionLow
	default:
		return ConditionHigh
	}
}

// ThresholdTable is an ordered, read-only set of metric thresholds.
type ThresholdTable struct {
	entries []Threshold
	index   map[string]int
}

// NewThresholdTable builds a table from the given entries, keeping their order.
// It rejects empty metric names, duplicates and inverted ranges.
func NewThresholdTable(entries []Threshold) (*ThresholdTable, error) {
	t := &ThresholdTable{
		entries: make([]Threshold, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.Metric == "" {
			return nil, fmt.Errorf("threshold at index %d has no metric", i)
		}
		if _, dup := t.index[e.Metric]; dup {
			return nil, fmt.Errorf("duplicate threshold for metric %q", e.Metric)
		}
		if e.OptimalMin > e.OptimalMax {
			return nil, fmt.Errorf("threshold %q: optimal_min (%v) is greater than optimal_max (%v)",
				e.Metric, e.OptimalMin, e.OptimalMax)
		}
		if e.DisplayName == "" {
			e.DisplayName = e.Metric
		}
		t.index[e.Metric] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// DefaultThresholds returns the built-in grape vineyard table.
func DefaultThresholds() *ThresholdTable {
	t, err := NewThresholdTable(defaultThresholdEntries())
	if err != nil {
		panic(err)
	}
	return t
}

func defaultThresholdEntries() []Threshold {
	return []Threshold{
		{Metric: MetricTemperature, DisplayName: "Temperature", Unit: "°C", OptimalMin: 24, OptimalMax: 34},
		{Metric: MetricHumidity, DisplayName: "Humidity", Unit: "%", OptimalMin: 40, OptimalMax: 60},
		{Metric: MetricSoilMoisture, DisplayName: "Soil Moisture", Unit: "%", OptimalMin: 30, OptimalMax: 75},
		{Metric: MetricLightIntensity, DisplayName: "Light Intensity", Unit: "Lux", OptimalMin: 200, OptimalMax: 2000},
		{Metric: MetricBatteryVoltage, DisplayName: "Battery Voltage", Unit: "V", OptimalMin: 9.5, OptimalMax: 14.5},
		{Metric: MetricRainSensor, DisplayName: "Rain Sensor", Unit: "%", OptimalMin: 0, OptimalMax: 0.1},
	}
}

// Lookup returns the threshold for a metric.
func (t *ThresholdTable) Lookup(metric string) (Threshold, bool) {
	if t == nil {
		return Threshold{}, false
	}
	i, ok := t.index[metric]
	if !ok {
		return Threshold{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of the thresholds in table order.
func (t *ThresholdTable) Entries() []Threshold {
	if t == nil {
		return nil
	}
	out := make([]Threshold, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of metrics in the table.
func (t *ThresholdTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// ThresholdsFile represents the root structure of a thresholds.yaml file.
type ThresholdsFile struct {
	Thresholds []Threshold `yaml:"thresholds"`
}

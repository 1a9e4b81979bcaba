// Package model provides data models for the farm alert engine.
package model

import "time"

// AlertReport is a point-in-time export of the computed alert view.
type AlertReport struct {
	GeneratedAt     time.Time       `json:"generated_at"`               // report time in the configured timezone
	SensorTimestamp string          `json:"sensor_timestamp,omitempty"` // raw timestamp of the evaluated snapshot
	Alerts          []Alert         `json:"alerts"`
	Summary         *AlertSummary   `json:"summary"`
	Thresholds      []Threshold     `json:"thresholds"`
	Snapshot        *SensorSnapshot `json:"snapshot,omitempty"`
	Version         string          `json:"version,omitempty"` // tool version
}

// NewAlertReport creates a report from the given alerts and computes its summary.
func NewAlertReport(generatedAt time.Time, alerts []Alert, thresholds []Threshold) *AlertReport {
	if alerts == nil {
		alerts = []Alert{}
	}
	return &AlertReport{
		GeneratedAt: generatedAt,
		Alerts:      alerts,
		Summary:     NewAlertSummary(alerts),
		Thresholds:  thresholds,
	}
}

// AlertsByCategory returns the alerts of one category, keeping their order.
func (r *AlertReport) AlertsByCategory(c Category) []Alert {
	var out []Alert
	for _, a := range r.Alerts {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out
}

// HasCritical returns true if the report contains a critical alert.
func (r *AlertReport) HasCritical() bool {
	return r.Summary != nil && r.Summary.CriticalCount > 0
}

// HasAlerts returns true if there are any alerts.
func (r *AlertReport) HasAlerts() bool {
	return len(r.Alerts) > 0
}

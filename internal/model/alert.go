// Package model provides data models for the farm alert engine.
package model

import "time"

// Category identifies which producer an alert came from.
type Category string

const (
	CategorySensor Category = "sensor" // environmental telemetry
	CategoryManual Category = "manual" // manually uploaded leaf analysis
	CategoryLive   Category = "live"   // camera-feed analysis
)

// Categories lists all alert categories in display order.
var Categories = []Category{CategorySensor, CategoryManual, CategoryLive}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategorySensor, CategoryManual, CategoryLive:
		return true
	}
	return false
}

// Severity represents the severity level of an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Condition describes on which side of the optimal range a reading fell.
type Condition string

const (
	ConditionHigh Condition = "high"
	ConditionLow  Condition = "low"
)

// SensorPayload carries the sensor-specific fields of an alert.
type SensorPayload struct {
	Metric      string    `json:"metric"`                // metric key, e.g. temperature
	DisplayName string    `json:"display_name"`          // human readable metric name
	Value       float64   `json:"value"`                 // observed value
	Unit        string    `json:"unit,omitempty"`        // reading unit
	Condition   Condition `json:"condition"`             // high or low
	OptimalMin  float64   `json:"optimal_min"`           // inclusive lower bound
	OptimalMax  float64   `json:"optimal_max"`           // inclusive upper bound
	TitleKey    string    `json:"title_key,omitempty"`   // translation key for the title
	MessageKey  string    `json:"message_key,omitempty"` // translation key for the message
}

// DetectionPayload carries the fields of a manual or live disease detection alert.
type DetectionPayload struct {
	Disease          string     `json:"disease"`
	Confidence       float64    `json:"confidence"`
	DiseaseSeverity  string     `json:"disease_severity"`
	DetectedRegions  int        `json:"detected_regions"`
	HasVisualization bool       `json:"has_visualization"`
	ImageRefs        []string   `json:"image_refs,omitempty"`
	SourceKey        string     `json:"source_key"`
	MessageKey       string     `json:"message_key,omitempty"`
	Degraded         bool       `json:"degraded,omitempty"`       // one or more fields were missing
	MissingFields    []string   `json:"missing_fields,omitempty"` // names of the missing fields
	Camera           string     `json:"camera,omitempty"`         // live only
	CaptureTime      *time.Time `json:"capture_time,omitempty"`   // live only, nil when unknown
	AnalysisTime     *time.Time `json:"analysis_time,omitempty"`  // nil when unknown
	DriveFileName    string     `json:"drive_file_name,omitempty"`
	UploadContext    string     `json:"upload_context,omitempty"` // relative capture and analysis age
}

// Alert is a derived notification. It is rebuilt on every computation and is
// never persisted; only its id ends up in the dismissed or read sets.
type Alert struct {
	ID        string            `json:"id"`
	Category  Category          `json:"category"`
	Severity  Severity          `json:"severity"`
	Timestamp time.Time         `json:"timestamp"` // zero when the event time is unknown
	Read      bool              `json:"read"`
	Sensor    *SensorPayload    `json:"sensor,omitempty"`
	Detection *DetectionPayload `json:"detection,omitempty"`
}

// IsWarning returns true if this alert is at warning level.
func (a *Alert) IsWarning() bool {
	return a.Severity == SeverityWarning
}

// IsCritical returns true if this alert is at critical level.
func (a *Alert) IsCritical() bool {
	return a.Severity == SeverityCritical
}

// HasTimestamp reports whether the event time of the alert is known.
func (a *Alert) HasTimestamp() bool {
	return !a.Timestamp.IsZero()
}

// CategoryStatus is the overall state of one alert section.
type CategoryStatus string

const (
	CategoryStatusNormal   CategoryStatus = "normal"
	CategoryStatusWarning  CategoryStatus = "warning"
	CategoryStatusCritical CategoryStatus = "critical"
)

// CategorySummary provides per-category alert statistics.
type CategorySummary struct {
	Total         int            `json:"total"`
	CriticalCount int            `json:"critical_count"`
	WarningCount  int            `json:"warning_count"`
	InfoCount     int            `json:"info_count"`
	UnreadCount   int            `json:"unread_count"`
	Status        CategoryStatus `json:"status"`
}

// AlertSummary provides aggregated alert statistics.
type AlertSummary struct {
	TotalAlerts   int                           `json:"total_alerts"`
	CriticalCount int                           `json:"critical_count"`
	WarningCount  int                           `json:"warning_count"`
	InfoCount     int                           `json:"info_count"`
	UnreadCount   int                           `json:"unread_count"`
	Categories    map[Category]*CategorySummary `json:"categories"`
}

// NewAlertSummary creates a new AlertSummary from a list of alerts.
// Every category is present in the result, even when it has no alerts.
func NewAlertSummary(alerts []Alert) *AlertSummary {
	summary := &AlertSummary{
		Categories: make(map[Category]*CategorySummary, len(Categories)),
	}
	for _, c := range Categories {
		summary.Categories[c] = &CategorySummary{Status: CategoryStatusNormal}
	}

	for i := range alerts {
		alert := &alerts[i]
		cat, ok := summary.Categories[alert.Category]
		if !ok {
			cat = &CategorySummary{Status: CategoryStatusNormal}
			summary.Categories[alert.Category] = cat
		}

		summary.TotalAlerts++
		cat.Total++
		switch alert.Severity {
		case SeverityCritical:
			summary.CriticalCount++
			cat.CriticalCount++
		case SeverityWarning:
			summary.WarningCount++
			cat.WarningCount++
		default:
			summary.InfoCount++
			cat.InfoCount++
		}
		if !alert.Read {
			summary.UnreadCount++
			cat.UnreadCount++
		}
	}

	for _, cat := range summary.Categories {
		switch {
		case cat.CriticalCount > 0:
			cat.Status = CategoryStatusCritical
		case cat.WarningCount > 0:
			cat.Status = CategoryStatusWarning
		}
	}
	return summary
}

// Redirect is a navigation hint for the UI shell.
type Redirect struct {
	Path  string         `json:"path"`
	State map[string]any `json:"state,omitempty"`
}

// Package model provides data models for the farm alert engine.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HealthyLabel is the classifier label of a leaf without disease.
const HealthyLabel = "Healthy"

// HistoryKind identifies one of the two detection history logs.
type HistoryKind string

const (
	HistoryManual HistoryKind = "manual"
	HistoryLive   HistoryKind = "live"
)

// ParseHistoryKind converts a user supplied string into a HistoryKind.
func ParseHistoryKind(s string) (HistoryKind, error) {
	switch HistoryKind(strings.ToLower(strings.TrimSpace(s))) {
	case HistoryManual:
		return HistoryManual, nil
	case HistoryLive:
		return HistoryLive, nil
	}
	return "", fmt.Errorf("unknown history kind %q, expected manual or live", s)
}

// FlexString decodes from JSON strings and numbers alike. Manual record ids
// are millisecond timestamps written as numbers by older clients.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	*f = FlexString(strings.TrimSpace(string(b)))
	return nil
}

// String returns the plain string value.
func (f FlexString) String() string {
	return string(f)
}

// OptionalFloat is a number that may be absent, null or written as a string
// such as "81.5" or "81.5%".
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float creates a valid OptionalFloat.
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler. Unparseable input yields an
// invalid value rather than an error so that one bad field never drops a record.
func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	*o = OptionalFloat{}
	if string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*o = OptionalFloat{Value: f, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*o = OptionalFloat{Value: v, Valid: true}
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// IsZero lets omitzero skip absent values.
func (o OptionalFloat) IsZero() bool {
	return !o.Valid
}

// ManualRecord is one entry of the manual upload analysis history.
type ManualRecord struct {
	ID                 FlexString    `json:"id,omitempty"`
	Disease            string        `json:"disease,omitempty"`
	Confidence         OptionalFloat `json:"confidence,omitzero"`
	Severity           string        `json:"severity,omitempty"`
	Timestamp          string        `json:"timestamp,omitempty"` // RFC 3339 analysis time
	DetectedRegions    OptionalFloat `json:"detectedRegions,omitzero"`
	HasVisualization   bool          `json:"hasVisualization,omitempty"`
	VisualizationImage string        `json:"visualizationImage,omitempty"`
	OriginalImage      string        `json:"originalImage,omitempty"`
	ModelType          string        `json:"modelType,omitempty"`
}

// Key returns the record identity, empty when the record has none.
func (r *ManualRecord) Key() string {
	return strings.TrimSpace(r.ID.String())
}

// LiveDetection holds the classifier output nested inside a live record.
type LiveDetection struct {
	Disease         string        `json:"disease,omitempty"`
	Confidence      OptionalFloat `json:"confidence,omitzero"`
	Severity        string        `json:"severity,omitempty"`
	DetectedRegions OptionalFloat `json:"detectedRegions,omitzero"`
}

// DriveImage describes the camera frame a live analysis ran on.
type DriveImage struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	CreatedTime string `json:"createdTime,omitempty"`
}

// LiveRecord is one entry of the camera-feed analysis history.
type LiveRecord struct {
	HistoryID          string         `json:"historyId,omitempty"`
	ID                 FlexString     `json:"id,omitempty"`
	Camera             FlexString     `json:"camera,omitempty"`
	Detection          *LiveDetection `json:"detection,omitempty"`
	Timestamp          string         `json:"timestamp,omitempty"`       // analysis time
	DriveUploadTime    string         `json:"driveUploadTime,omitempty"` // capture/upload time
	DriveFileName      string         `json:"driveFileName,omitempty"`
	ImageData          *DriveImage    `json:"imageData,omitempty"`
	VisualizationImage string         `json:"visualizationImage,omitempty"`
}

// Key returns historyId when present, else id.
func (r *LiveRecord) Key() string {
	if k := strings.TrimSpace(r.HistoryID); k != "" {
		return k
	}
	return strings.TrimSpace(r.ID.String())
}

// CaptureTimeRaw returns the best known capture time string of the source image.
func (r *LiveRecord) CaptureTimeRaw() string {
	if r.ImageData != nil && r.ImageData.CreatedTime != "" {
		return r.ImageData.CreatedTime
	}
	if r.DriveUploadTime != "" {
		return r.DriveUploadTime
	}
	return r.Timestamp
}

// FileName returns the source file name, if any.
func (r *LiveRecord) FileName() string {
	if r.ImageData != nil && r.ImageData.Name != "" {
		return r.ImageData.Name
	}
	return r.DriveFileName
}

// ParseRecordTime parses a history timestamp. Values without a zone are read
// in loc, nil meaning UTC. It returns nil when the value is empty or malformed.
func ParseRecordTime(raw string, loc *time.Location) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		t := time.UnixMilli(ms).UTC()
		return &t
	}
	return nil
}

// RelativeAge renders how long before now t was, as shown in alert upload
// context lines. Dates older than a day are printed in now's location.
func RelativeAge(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "at an unknown time"
	}
	diff := now.Sub(*t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return "on " + t.In(now.Location()).Format("2006-01-02")
	}
}

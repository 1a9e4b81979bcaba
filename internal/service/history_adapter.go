package service

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"farm-alerts/internal/identity"
	"farm-alerts/internal/model"
)

// Disease severity used when a record carries none.
const (
	diseaseSeverityNone = "None"
	diseaseSeverityHigh = "High"
)

const unknownFile = "Unknown file"

// detectionAdapter holds what the manual and live adapters share.
type detectionAdapter struct {
	ids          *identity.Strategy
	healthyLabel string
	location     *time.Location
	logger       zerolog.Logger
}

func newDetectionAdapter(ids *identity.Strategy, healthyLabel string, loc *time.Location, component string, logger zerolog.Logger) detectionAdapter {
	if ids == nil {
		ids = identity.New(nil)
	}
	if loc == nil {
		loc = time.UTC
	}
	healthyLabel = strings.TrimSpace(healthyLabel)
	if healthyLabel == "" {
		healthyLabel = model.HealthyLabel
	}
	return detectionAdapter{
		ids:          ids,
		healthyLabel: healthyLabel,
		location:     loc,
		logger:       logger.With().Str("component", component).Logger(),
	}
}

// isHealthy compares labels case-insensitively, ignoring surrounding space.
func (a *detectionAdapter) isHealthy(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), a.healthyLabel)
}

// classify returns the alert severity and disease severity of a detection.
// A missing label is treated as not healthy.
func (a *detectionAdapter) classify(label, diseaseSeverity string) (model.Severity, string) {
	healthy := label != "" && a.isHealthy(label)

	sev := model.SeverityCritical
	if healthy {
		sev = model.SeverityInfo
	}

	ds := strings.TrimSpace(diseaseSeverity)
	if ds == "" {
		if healthy {
			ds = diseaseSeverityNone
		} else {
			ds = diseaseSeverityHigh
		}
	}
	return sev, ds
}

// imageRef drops inline data URIs, which are image bytes rather than references.
func imageRef(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "data:") {
		return ""
	}
	return s
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ManualAdapter maps manual upload analysis records to alerts.
type ManualAdapter struct {
	detectionAdapter
}

// NewManualAdapter creates a ManualAdapter. An empty healthyLabel means
// model.HealthyLabel. Timestamps without a zone are read in loc.
func NewManualAdapter(ids *identity.Strategy, healthyLabel string, loc *time.Location, logger zerolog.Logger) *ManualAdapter {
	return &ManualAdapter{newDetectionAdapter(ids, healthyLabel, loc, "manual_adapter", logger)}
}

// Adapt returns exactly one alert per record, in record order. Records with
// missing fields are surfaced with a degraded payload. now only feeds the
// upload context line.
func (a *ManualAdapter) Adapt(records []model.ManualRecord, now time.Time) []model.Alert {
	now = now.In(a.location)
	alerts := make([]model.Alert, 0, len(records))

	for i := range records {
		rec := &records[i]
		var missing []string

		if rec.Key() == "" {
			missing = append(missing, "id")
		}
		disease := strings.TrimSpace(rec.Disease)
		if disease == "" {
			missing = append(missing, "disease")
		}
		if !rec.Confidence.Valid {
			missing = append(missing, "confidence")
		}
		analyzed := model.ParseRecordTime(rec.Timestamp, a.location)
		if analyzed == nil {
			missing = append(missing, "timestamp")
		}

		sev, diseaseSeverity := a.classify(disease, rec.Severity)

		var refs []string
		for _, ref := range []string{imageRef(rec.VisualizationImage), imageRef(rec.OriginalImage)} {
			if ref != "" {
				refs = append(refs, ref)
			}
		}

		alert := model.Alert{
			ID:        a.ids.Manual(rec),
			Category:  model.CategoryManual,
			Severity:  sev,
			Timestamp: timeOrZero(analyzed),
			Detection: &model.DetectionPayload{
				Disease:          disease,
				Confidence:       rec.Confidence.Value,
				DiseaseSeverity:  diseaseSeverity,
				DetectedRegions:  int(rec.DetectedRegions.Value),
				HasVisualization: rec.HasVisualization,
				ImageRefs:        refs,
				SourceKey:        "manualUpload",
				MessageKey:       "manualAnalysisComplete",
				Degraded:         len(missing) > 0,
				MissingFields:    missing,
				AnalysisTime:     analyzed,
				UploadContext:    "Manual upload analyzed " + model.RelativeAge(analyzed, now),
			},
		}
		if len(missing) > 0 {
			a.logger.Debug().Str("id", alert.ID).Strs("missing", missing).Msg("degraded manual record")
		}
		alerts = append(alerts, alert)
	}

	return alerts
}

// LiveAdapter maps camera-feed analysis records to alerts.
type LiveAdapter struct {
	detectionAdapter
}

// NewLiveAdapter creates a LiveAdapter. An empty healthyLabel means
// model.HealthyLabel. Timestamps without a zone are read in loc.
func NewLiveAdapter(ids *identity.Strategy, healthyLabel string, loc *time.Location, logger zerolog.Logger) *LiveAdapter {
	return &LiveAdapter{newDetectionAdapter(ids, healthyLabel, loc, "live_adapter", logger)}
}

// Adapt returns exactly one alert per record, in record order. Both the capture
// time and the analysis time may be unknown.
func (a *LiveAdapter) Adapt(records []model.LiveRecord, now time.Time) []model.Alert {
	now = now.In(a.location)
	alerts := make([]model.Alert, 0, len(records))

	for i := range records {
		rec := &records[i]
		var missing []string

		if rec.Key() == "" {
			missing = append(missing, "id")
		}

		det := rec.Detection
		if det == nil {
			missing = append(missing, "detection")
			det = &model.LiveDetection{}
		}
		disease := strings.TrimSpace(det.Disease)
		if disease == "" {
			missing = append(missing, "disease")
		}
		if !det.Confidence.Valid {
			missing = append(missing, "confidence")
		}

		analyzed := model.ParseRecordTime(rec.Timestamp, a.location)
		if analyzed == nil {
			missing = append(missing, "timestamp")
		}
		captured := model.ParseRecordTime(rec.CaptureTimeRaw(), a.location)

		ts := analyzed
		if ts == nil {
			ts = captured
		}

		fileName := strings.TrimSpace(rec.FileName())
		if fileName == "" {
			fileName = unknownFile
		}

		var refs []string
		if ref := imageRef(rec.VisualizationImage); ref != "" {
			refs = append(refs, ref)
		}

		sev, diseaseSeverity := a.classify(disease, det.Severity)
		uploadContext := "Camera image captured " + model.RelativeAge(captured, now) +
			", analyzed " + model.RelativeAge(analyzed, now)

		alert := model.Alert{
			ID:        a.ids.Live(rec),
			Category:  model.CategoryLive,
			Severity:  sev,
			Timestamp: timeOrZero(ts),
			Detection: &model.DetectionPayload{
				Disease:          disease,
				Confidence:       det.Confidence.Value,
				DiseaseSeverity:  diseaseSeverity,
				DetectedRegions:  int(det.DetectedRegions.Value),
				HasVisualization: strings.TrimSpace(rec.VisualizationImage) != "",
				ImageRefs:        refs,
				SourceKey:        "liveCamera",
				MessageKey:       "liveAnalysisComplete",
				Degraded:         len(missing) > 0,
				MissingFields:    missing,
				Camera:           rec.Camera.String(),
				CaptureTime:      captured,
				AnalysisTime:     analyzed,
				DriveFileName:    fileName,
				UploadContext:    uploadContext,
			},
		}
		if len(missing) > 0 {
			a.logger.Debug().Str("id", alert.ID).Strs("missing", missing).Msg("degraded live record")
		}
		alerts = append(alerts, alert)
	}

	return alerts
}

// Package html provides HTML report generation for the farm alert engine.
// It implements the report.ReportWriter interface to generate .html files
// with the alert summary and one section per alert category.
package html

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"farm-alerts/internal/model"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const timeLayout = "2006-01-02 15:04:05"

// Writer implements report.ReportWriter for HTML format.
type Writer struct {
	timezone     *time.Location
	templatePath string // User-defined template path (optional)
}

// TemplateData holds all data passed to the HTML template.
type TemplateData struct {
	Title           string
	GeneratedAt     string
	SensorTimestamp string
	Summary         *model.AlertSummary
	Sections        []*SectionData
	Thresholds      []model.Threshold
	Version         string
}

// SectionData is one alert category formatted for template rendering.
type SectionData struct {
	Category    string
	Title       string
	StatusClass string
	Summary     *model.CategorySummary
	Alerts      []*AlertData
}

// AlertData represents an alert formatted for template rendering.
type AlertData struct {
	ID            string
	Time          string
	Severity      string
	SeverityClass string
	Subject       string // metric display name or disease
	Detail        string
	Read          bool
	Degraded      bool
	ImageRefs     []string
	UploadContext string
}

// NewWriter creates a new HTML report writer.
// If timezone is nil, it defaults to Asia/Kolkata.
// If templatePath is empty, the embedded default template will be used.
func NewWriter(timezone *time.Location, templatePath string) *Writer {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Kolkata")
	}
	if timezone == nil {
		timezone = time.UTC
	}
	return &Writer{
		timezone:     timezone,
		templatePath: templatePath,
	}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "html"
}

// Write generates an HTML report from the alert report.
func (w *Writer) Write(report *model.AlertReport, outputPath string) error {
	if report == nil {
		return fmt.Errorf("alert report is nil")
	}

	// Ensure output path has .html extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath = outputPath + ".html"
	}

	tmpl, err := w.loadTemplate()
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	data := w.prepareTemplateData(report)

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

// loadTemplate loads the HTML template.
// It first tries to load a user-defined template, then falls back to the embedded default.
func (w *Writer) loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"statusClass": statusClass,
	}

	if w.templatePath != "" {
		if _, err := os.Stat(w.templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(w.templatePath)).Funcs(funcMap).ParseFiles(w.templatePath)
			if err != nil {
				return nil, fmt.Errorf("failed to parse user template: %w", err)
			}
			return tmpl, nil
		}
		// User template not found, fall through to default
	}

	tmpl, err := template.New("alerts.html").Funcs(funcMap).ParseFS(embeddedTemplates, "templates/alerts.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// prepareTemplateData converts an AlertReport to TemplateData for template rendering.
func (w *Writer) prepareTemplateData(report *model.AlertReport) *TemplateData {
	summary := report.Summary
	if summary == nil {
		summary = model.NewAlertSummary(report.Alerts)
	}

	data := &TemplateData{
		Title:           "Farm Alert Report",
		GeneratedAt:     report.GeneratedAt.In(w.timezone).Format(timeLayout),
		SensorTimestamp: report.SensorTimestamp,
		Summary:         summary,
		Thresholds:      report.Thresholds,
		Version:         report.Version,
	}

	for _, c := range model.Categories {
		cs := summary.Categories[c]
		if cs == nil {
			cs = &model.CategorySummary{Status: model.CategoryStatusNormal}
		}
		data.Sections = append(data.Sections, &SectionData{
			Category:    string(c),
			Title:       categoryTitle(c),
			StatusClass: statusClass(string(cs.Status)),
			Summary:     cs,
			Alerts:      w.convertAlerts(report.AlertsByCategory(c)),
		})
	}

	return data
}

// convertAlerts converts alerts to template data, most severe first.
func (w *Writer) convertAlerts(alerts []model.Alert) []*AlertData {
	result := make([]*AlertData, 0, len(alerts))
	for i := range alerts {
		a := &alerts[i]
		ad := &AlertData{
			ID:            a.ID,
			Time:          w.formatTime(a.Timestamp),
			Severity:      severityText(a.Severity),
			SeverityClass: severityClass(a.Severity),
			Read:          a.Read,
		}
		switch {
		case a.Sensor != nil:
			ad.Subject = a.Sensor.DisplayName
			ad.Detail = sensorDetail(a.Sensor)
		case a.Detection != nil:
			ad.Subject = orUnknown(a.Detection.Disease)
			ad.Detail = w.detectionDetail(a.Detection)
			ad.Degraded = a.Detection.Degraded
			ad.ImageRefs = a.Detection.ImageRefs
			ad.UploadContext = a.Detection.UploadContext
		}
		result = append(result, ad)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return severityPriority(result[i].SeverityClass) > severityPriority(result[j].SeverityClass)
	})
	return result
}

func (w *Writer) formatTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown time"
	}
	return t.In(w.timezone).Format(timeLayout)
}

// detectionDetail summarises a detection in one line.
func (w *Writer) detectionDetail(d *model.DetectionPayload) string {
	parts := []string{fmt.Sprintf("Confidence %.1f%%", d.Confidence)}
	if d.DiseaseSeverity != "" {
		parts = append(parts, "severity "+d.DiseaseSeverity)
	}
	if d.DetectedRegions > 0 {
		parts = append(parts, fmt.Sprintf("%d regions", d.DetectedRegions))
	}
	if d.Camera != "" {
		parts = append(parts, "camera "+d.Camera)
	}
	if d.CaptureTime != nil {
		parts = append(parts, "captured "+w.formatTime(*d.CaptureTime))
	}
	if d.DriveFileName != "" {
		parts = append(parts, d.DriveFileName)
	}
	if len(d.MissingFields) > 0 {
		parts = append(parts, "missing: "+strings.Join(d.MissingFields, ", "))
	}
	return strings.Join(parts, ", ")
}

// sensorDetail describes where a reading fell relative to its optimal range.
func sensorDetail(s *model.SensorPayload) string {
	side := "below"
	if s.Condition == model.ConditionHigh {
		side = "above"
	}
	return strings.TrimSpace(fmt.Sprintf("%g %s is %s the optimal range %g to %g %s",
		s.Value, s.Unit, side, s.OptimalMin, s.OptimalMax, s.Unit))
}

// categoryTitle converts a category to its section heading.
func categoryTitle(c model.Category) string {
	switch c {
	case model.CategorySensor:
		return "Sensor Alerts"
	case model.CategoryManual:
		return "Manual Upload Analysis"
	case model.CategoryLive:
		return "Live Camera Detection"
	default:
		return string(c)
	}
}

// statusClass converts a category status to a CSS class.
func statusClass(status string) string {
	switch model.CategoryStatus(status) {
	case model.CategoryStatusCritical:
		return "status-critical"
	case model.CategoryStatusWarning:
		return "status-warning"
	default:
		return "status-normal"
	}
}

// severityText converts alert severity to display text.
func severityText(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "Critical"
	case model.SeverityWarning:
		return "Warning"
	case model.SeverityInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// severityClass converts alert severity to a CSS class.
func severityClass(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "alert-critical"
	case model.SeverityWarning:
		return "alert-warning"
	default:
		return "alert-info"
	}
}

// severityPriority returns a numeric priority for sorting (higher = more severe).
func severityPriority(class string) int {
	switch class {
	case "alert-critical":
		return 2
	case "alert-warning":
		return 1
	default:
		return 0
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

package html

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"farm-alerts/internal/model"
)

func TestNewWriter(t *testing.T) {
	t.Run("nil timezone defaults to Asia/Kolkata", func(t *testing.T) {
		w := NewWriter(nil, "")
		if w.timezone == nil {
			t.Fatal("expected timezone to be set")
		}
		if w.timezone.String() != "Asia/Kolkata" {
			t.Errorf("expected timezone Asia/Kolkata, got %s", w.timezone.String())
		}
	})

	t.Run("custom timezone", func(t *testing.T) {
		loc, _ := time.LoadLocation("America/New_York")
		w := NewWriter(loc, "")
		if w.timezone != loc {
			t.Errorf("expected custom timezone")
		}
	})

	t.Run("with template path", func(t *testing.T) {
		w := NewWriter(nil, "/path/to/template.html")
		if w.templatePath != "/path/to/template.html" {
			t.Errorf("expected template path to be set")
		}
	})
}

func TestWriter_Format(t *testing.T) {
	w := NewWriter(nil, "")
	if w.Format() != "html" {
		t.Errorf("expected format 'html', got '%s'", w.Format())
	}
}

func TestWriter_Write_NilReport(t *testing.T) {
	w := NewWriter(nil, "")
	err := w.Write(nil, "test.html")
	if err == nil {
		t.Fatal("expected error for nil report")
	}
	if !strings.Contains(err.Error(), "nil") {
		t.Errorf("expected error message to mention nil, got: %s", err.Error())
	}
}

func TestWriter_Write_Success(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "alerts.html")

	if err := NewWriter(time.UTC, "").Write(createTestAlertReport(), outputPath); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	html := string(content)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"Farm Alert Report",
		"2025-06-17 06:30:00",
		"17-06-2025 12:00:00",
		"Sensor Alerts",
		"Manual Upload Analysis",
		"Live Camera Detection",
		"sensor:temperature:29165430",
		"38 °C is above the optimal range 24 to 34 °C",
		"Karpa (Anthracnose)",
		"missing: timestamp",
		`<span class="context">Camera image captured 3h ago, analyzed at an unknown time</span>`,
		"Unknown time",
		"status-critical",
		"alert-warning",
		"Optimal Ranges",
		"v1.0.0",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}

	// Critical manual alert is listed before the healthy one.
	if strings.Index(html, "manual:2") > strings.Index(html, "manual:1") {
		t.Error("expected critical alerts to be sorted first")
	}
}

func TestWriter_Write_AddsExtension(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "alerts")

	if err := NewWriter(nil, "").Write(createTestAlertReport(), outputPath); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(outputPath + ".html"); os.IsNotExist(err) {
		t.Error("expected .html extension to be added")
	}
}

func TestWriter_Write_EmptyReport(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.html")
	report := model.NewAlertReport(time.Now(), nil, nil)

	if err := NewWriter(nil, "").Write(report, outputPath); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	if !strings.Contains(string(content), "No alerts.") {
		t.Error("expected empty sections to say No alerts.")
	}
	if strings.Contains(string(content), "Optimal Ranges") {
		t.Error("threshold table should be omitted without thresholds")
	}
}

func TestWriter_Write_CustomTemplate(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "custom.html")
	tpl := `<h1>{{.Title}}</h1>{{range .Sections}}<p class="{{statusClass (printf "%s" .Summary.Status)}}">{{.Title}}: {{.Summary.Total}}</p>{{end}}`
	if err := os.WriteFile(templatePath, []byte(tpl), 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	outputPath := filepath.Join(dir, "out.html")
	if err := NewWriter(time.UTC, templatePath).Write(createTestAlertReport(), outputPath); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, _ := os.ReadFile(outputPath)
	got := string(content)
	if !strings.Contains(got, `<p class="status-critical">Manual Upload Analysis: 2</p>`) {
		t.Errorf("custom template not rendered as expected: %s", got)
	}
}

func TestWriter_Write_MissingCustomTemplateFallsBack(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.html")

	w := NewWriter(time.UTC, filepath.Join(dir, "missing.html"))
	if err := w.Write(createTestAlertReport(), outputPath); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	content, _ := os.ReadFile(outputPath)
	if !strings.Contains(string(content), "<!DOCTYPE html>") {
		t.Error("expected embedded template to be used")
	}
}

func TestSeverityHelpers(t *testing.T) {
	tests := []struct {
		severity  model.Severity
		wantText  string
		wantClass string
	}{
		{model.SeverityCritical, "Critical", "alert-critical"},
		{model.SeverityWarning, "Warning", "alert-warning"},
		{model.SeverityInfo, "Info", "alert-info"},
		{model.Severity("bogus"), "Unknown", "alert-info"},
	}
	for _, tt := range tests {
		if got := severityText(tt.severity); got != tt.wantText {
			t.Errorf("severityText(%q) = %q, want %q", tt.severity, got, tt.wantText)
		}
		if got := severityClass(tt.severity); got != tt.wantClass {
			t.Errorf("severityClass(%q) = %q, want %q", tt.severity, got, tt.wantClass)
		}
	}
}

// createTestAlertReport builds a report with alerts in every category.
func createTestAlertReport() *model.AlertReport {
	ts := time.Date(2025, 6, 17, 6, 30, 0, 0, time.UTC)
	capture := ts.Add(-5 * time.Minute)

	alerts := []model.Alert{
		{
			ID:        "sensor:temperature:29165430",
			Category:  model.CategorySensor,
			Severity:  model.SeverityWarning,
			Timestamp: ts,
			Sensor: &model.SensorPayload{
				Metric:      model.MetricTemperature,
				DisplayName: "Temperature",
				Value:       38,
				Unit:        "°C",
				Condition:   model.ConditionHigh,
				OptimalMin:  24,
				OptimalMax:  34,
			},
		},
		{
			ID:        "manual:1",
			Category:  model.CategoryManual,
			Severity:  model.SeverityInfo,
			Timestamp: ts,
			Read:      true,
			Detection: &model.DetectionPayload{Disease: "Healthy", Confidence: 92},
		},
		{
			ID:        "manual:2",
			Category:  model.CategoryManual,
			Severity:  model.SeverityCritical,
			Timestamp: ts,
			Detection: &model.DetectionPayload{Disease: "Karpa (Anthracnose)", Confidence: 81, DiseaseSeverity: "High"},
		},
		{
			ID:       "live:history_7",
			Category: model.CategoryLive,
			Severity: model.SeverityCritical,
			Detection: &model.DetectionPayload{
				Disease:       "Rust",
				Confidence:    70,
				Camera:        "2",
				CaptureTime:   &capture,
				Degraded:      true,
				MissingFields: []string{"timestamp"},
				UploadContext: "Camera image captured 3h ago, analyzed at an unknown time",
			},
		},
	}

	report := model.NewAlertReport(ts, alerts, model.DefaultThresholds().Entries())
	report.SensorTimestamp = "17-06-2025 12:00:00"
	report.Version = "v1.0.0"
	return report
}

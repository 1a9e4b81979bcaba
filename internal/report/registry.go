package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"farm-alerts/internal/model"
	"farm-alerts/internal/report/excel"
	"farm-alerts/internal/report/html"
)

// Registry manages report writers for different formats.
type Registry struct {
	writers  map[string]ReportWriter
	timezone *time.Location
}

// NewRegistry creates a new report registry with pre-registered Excel and HTML writers.
// If timezone is nil, defaults to Asia/Kolkata.
// htmlTemplatePath is optional; if empty, the HTML writer will use the embedded default template.
// excelTemplatePath is optional; if empty, the Excel writer will create reports from scratch.
func NewRegistry(timezone *time.Location, htmlTemplatePath, excelTemplatePath string) *Registry {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Kolkata")
	}
	if timezone == nil {
		timezone = time.UTC
	}

	excelWriter := excel.NewWriter(timezone, excelTemplatePath)
	htmlWriter := html.NewWriter(timezone, htmlTemplatePath)

	r := &Registry{
		writers:  make(map[string]ReportWriter),
		timezone: timezone,
	}
	r.writers[excelWriter.Format()] = excelWriter
	r.writers[htmlWriter.Format()] = htmlWriter

	return r
}

// Get returns a writer for the specified format.
// Format names are case-insensitive (e.g., "Excel", "EXCEL", "excel" all work).
func (r *Registry) Get(format string) (ReportWriter, error) {
	normalizedFormat := strings.ToLower(strings.TrimSpace(format))

	writer, ok := r.writers[normalizedFormat]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q, supported formats: %s",
			format, strings.Join(r.GetAll(), ", "))
	}
	return writer, nil
}

// GetAll returns all supported format names in sorted order.
func (r *Registry) GetAll() []string {
	formats := make([]string, 0, len(r.writers))
	for format := range r.writers {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// Has checks if the specified format is supported.
func (r *Registry) Has(format string) bool {
	_, ok := r.writers[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

// WriteAll writes the report once per format into outputDir and returns the
// written paths. All formats are validated before anything is written.
func (r *Registry) WriteAll(report *model.AlertReport, outputDir, baseName string, formats []string) ([]string, error) {
	writers := make([]ReportWriter, 0, len(formats))
	for _, f := range formats {
		w, err := r.Get(f)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	paths := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(outputDir, baseName+extension(w.Format()))
		if err := w.Write(report, path); err != nil {
			return paths, fmt.Errorf("failed to write %s report: %w", w.Format(), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FileName renders a filename template such as "farm_alerts_{{.Date}}".
// Available fields: .Date (2006-01-02), .Time (150405) and .Timestamp.
func (r *Registry) FileName(tmpl string, at time.Time) (string, error) {
	t, err := template.New("filename").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("invalid filename template: %w", err)
	}

	local := at.In(r.timezone)
	var buf bytes.Buffer
	if err := t.Execute(&buf, map[string]string{
		"Date":      local.Format("2006-01-02"),
		"Time":      local.Format("150405"),
		"Timestamp": local.Format("2006-01-02_150405"),
	}); err != nil {
		return "", fmt.Errorf("failed to render filename template: %w", err)
	}

	name := strings.TrimSpace(buf.String())
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("filename template produced invalid name %q", name)
	}
	return name, nil
}

func extension(format string) string {
	switch format {
	case "excel":
		return ".xlsx"
	case "html":
		return ".html"
	default:
		return "." + format
	}
}

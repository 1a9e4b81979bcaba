// Package report provides report generation for computed alert views.
// It defines the ReportWriter interface and provides implementations for
// different output formats including Excel and HTML.
package report

import (
	"farm-alerts/internal/model"
)

// ReportWriter defines the interface for exporting alert reports.
type ReportWriter interface {
	// Write generates a report and saves it to outputPath. Writers add
	// their own file extension when the path has none.
	Write(report *model.AlertReport, outputPath string) error

	// Format returns the format identifier for this writer ("excel", "html").
	Format() string
}

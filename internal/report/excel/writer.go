// Package excel provides Excel report generation for the farm alert engine.
// It implements the report.ReportWriter interface to generate .xlsx files
// with a summary sheet, one sheet per alert category and the threshold table.
package excel

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"farm-alerts/internal/model"
)

const (
	// Sheet names
	sheetSummary    = "Summary"
	sheetSensor     = "Sensor Alerts"
	sheetManual     = "Manual Uploads"
	sheetLive       = "Live Camera"
	sheetThresholds = "Thresholds"

	// Default sheet to remove
	defaultSheet = "Sheet1"

	// Colors for conditional formatting (RGB without #)
	colorWarningBg  = "FFEB9C" // Yellow background for warning
	colorWarningFg  = "9C6500" // Dark yellow text for warning
	colorCriticalBg = "FFC7CE" // Red background for critical
	colorCriticalFg = "9C0006" // Dark red text for critical
	colorHeaderBg   = "2E7D32" // Green background for header
	colorHeaderFg   = "FFFFFF" // White text for header
	colorNormalBg   = "C6EFCE" // Green background for normal
	colorNormalFg   = "006100" // Dark green text for normal

	timeLayout = "2006-01-02 15:04:05"
)

// column describes one column of an alert sheet.
type column struct {
	header string
	width  float64
	value  func(a *model.Alert) interface{}
}

// styles holds the style ids shared by all sheets of one workbook.
type styles struct {
	title    int
	header   int
	value    int
	warning  int
	critical int
	normal   int
}

// Writer implements report.ReportWriter for Excel format.
type Writer struct {
	timezone     *time.Location
	templatePath string // Optional workbook used as the base file
}

// NewWriter creates a new Excel report writer.
// If timezone is nil, it defaults to Asia/Kolkata.
// If templatePath names an existing workbook, reports are written on top of it.
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
	return "excel"
}

// Write generates an Excel report from the alert report.
func (w *Writer) Write(report *model.AlertReport, outputPath string) error {
	if report == nil {
		return fmt.Errorf("alert report is nil")
	}

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	f, err := w.openBase()
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := createStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	if err := w.createSummarySheet(f, report, st); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	sheets := []struct {
		name     string
		category model.Category
		columns  []column
	}{
		{sheetSensor, model.CategorySensor, w.sensorColumns()},
		{sheetManual, model.CategoryManual, w.manualColumns()},
		{sheetLive, model.CategoryLive, w.liveColumns()},
	}
	for _, s := range sheets {
		if err := w.createAlertSheet(f, s.name, report.AlertsByCategory(s.category), s.columns, st); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", s.name, err)
		}
	}

	if err := w.createThresholdSheet(f, report.Thresholds, st); err != nil {
		return fmt.Errorf("failed to create thresholds sheet: %w", err)
	}

	// Remove default Sheet1; absent when a template is used
	_ = f.DeleteSheet(defaultSheet)

	idx, _ := f.GetSheetIndex(sheetSummary)
	f.SetActiveSheet(idx)

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

// openBase opens the template workbook when one is configured and present,
// otherwise a fresh workbook.
func (w *Writer) openBase() (*excelize.File, error) {
	if w.templatePath == "" {
		return excelize.NewFile(), nil
	}
	if _, err := os.Stat(w.templatePath); err != nil {
		return excelize.NewFile(), nil
	}
	f, err := excelize.OpenFile(w.templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel template: %w", err)
	}
	return f, nil
}

// createSummarySheet creates the overview worksheet.
func (w *Writer) createSummarySheet(f *excelize.File, report *model.AlertReport, st *styles) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	f.SetColWidth(sheetSummary, "A", "A", 22)
	f.SetColWidth(sheetSummary, "B", "G", 14)

	// Title
	f.MergeCell(sheetSummary, "A1", "G1")
	f.SetCellValue(sheetSummary, "A1", "Farm Alert Report")
	f.SetCellStyle(sheetSummary, "A1", "G1", st.title)
	f.SetRowHeight(sheetSummary, 1, 30)

	summary := report.Summary
	if summary == nil {
		summary = model.NewAlertSummary(report.Alerts)
	}

	summaryData := []struct {
		label string
		value interface{}
	}{
		{"Generated At", report.GeneratedAt.In(w.timezone).Format(timeLayout)},
		{"Sensor Reading Time", orDash(report.SensorTimestamp)},
		{"Total Alerts", summary.TotalAlerts},
		{"Critical", summary.CriticalCount},
		{"Warning", summary.WarningCount},
		{"Info", summary.InfoCount},
		{"Unread", summary.UnreadCount},
	}
	if report.Version != "" {
		summaryData = append(summaryData, struct {
			label string
			value interface{}
		}{"Tool Version", report.Version})
	}

	row := 3
	for _, item := range summaryData {
		a, b := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)
		f.SetCellValue(sheetSummary, a, item.label)
		f.SetCellValue(sheetSummary, b, item.value)
		f.SetCellStyle(sheetSummary, a, a, st.header)
		f.SetCellStyle(sheetSummary, b, b, st.value)
		f.SetRowHeight(sheetSummary, row, 22)
		row++
	}

	// Per-category table
	row++
	headers := []string{"Category", "Total", "Critical", "Warning", "Info", "Unread", "Status"}
	for i, h := range headers {
		cell := fmt.Sprintf("%s%d", columnName(i+1), row)
		f.SetCellValue(sheetSummary, cell, h)
		f.SetCellStyle(sheetSummary, cell, cell, st.header)
	}
	for _, c := range model.Categories {
		row++
		cs := summary.Categories[c]
		if cs == nil {
			cs = &model.CategorySummary{Status: model.CategoryStatusNormal}
		}
		values := []interface{}{categoryText(c), cs.Total, cs.CriticalCount, cs.WarningCount, cs.InfoCount, cs.UnreadCount, string(cs.Status)}
		for i, v := range values {
			f.SetCellValue(sheetSummary, fmt.Sprintf("%s%d", columnName(i+1), row), v)
		}
		statusCell := fmt.Sprintf("G%d", row)
		f.SetCellStyle(sheetSummary, statusCell, statusCell, st.forStatus(cs.Status))
	}

	return nil
}

// createAlertSheet writes one category of alerts, most severe first.
func (w *Writer) createAlertSheet(f *excelize.File, sheet string, alerts []model.Alert, columns []column, st *styles) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	severityCol := ""
	for i, c := range columns {
		col := columnName(i + 1)
		f.SetColWidth(sheet, col, col, c.width)
		cell := col + "1"
		f.SetCellValue(sheet, cell, c.header)
		f.SetCellStyle(sheet, cell, cell, st.header)
		if c.header == "Severity" {
			severityCol = col
		}
	}
	f.SetRowHeight(sheet, 1, 25)

	// Freeze header row
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	sorted := make([]model.Alert, len(alerts))
	copy(sorted, alerts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityPriority(sorted[i].Severity) > severityPriority(sorted[j].Severity)
	})

	for i := range sorted {
		a := &sorted[i]
		row := i + 2
		for j, c := range columns {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", columnName(j+1), row), c.value(a))
		}
		if severityCol != "" {
			if style := st.forSeverity(a.Severity); style > 0 {
				cell := fmt.Sprintf("%s%d", severityCol, row)
				f.SetCellStyle(sheet, cell, cell, style)
			}
		}
	}

	return nil
}

// createThresholdSheet writes the optimal ranges the sensor alerts were evaluated against.
func (w *Writer) createThresholdSheet(f *excelize.File, thresholds []model.Threshold, st *styles) error {
	if _, err := f.NewSheet(sheetThresholds); err != nil {
		return err
	}

	headers := []string{"Metric", "Display Name", "Unit", "Optimal Min", "Optimal Max"}
	widths := []float64{18, 20, 8, 14, 14}
	for i, h := range headers {
		col := columnName(i + 1)
		f.SetColWidth(sheetThresholds, col, col, widths[i])
		f.SetCellValue(sheetThresholds, col+"1", h)
		f.SetCellStyle(sheetThresholds, col+"1", col+"1", st.header)
	}

	for i, t := range thresholds {
		row := i + 2
		values := []interface{}{t.Metric, t.DisplayName, t.Unit, t.OptimalMin, t.OptimalMax}
		for j, v := range values {
			f.SetCellValue(sheetThresholds, fmt.Sprintf("%s%d", columnName(j+1), row), v)
		}
	}
	return nil
}

// =============================================================================
// Column sets
// =============================================================================

func (w *Writer) sensorColumns() []column {
	return []column{
		{"Alert ID", 32, func(a *model.Alert) interface{} { return a.ID }},
		{"Time", 20, func(a *model.Alert) interface{} { return w.formatTime(a.Timestamp) }},
		{"Severity", 10, func(a *model.Alert) interface{} { return severityText(a.Severity) }},
		{"Metric", 18, func(a *model.Alert) interface{} { return sensorField(a, func(s *model.SensorPayload) interface{} { return s.DisplayName }) }},
		{"Value", 12, func(a *model.Alert) interface{} { return sensorField(a, func(s *model.SensorPayload) interface{} { return s.Value }) }},
		{"Unit", 8, func(a *model.Alert) interface{} { return sensorField(a, func(s *model.SensorPayload) interface{} { return s.Unit }) }},
		{"Condition", 10, func(a *model.Alert) interface{} { return sensorField(a, func(s *model.SensorPayload) interface{} { return string(s.Condition) }) }},
		{"Optimal Range", 16, func(a *model.Alert) interface{} { return sensorField(a, func(s *model.SensorPayload) interface{} { return formatRange(s) }) }},
		{"Read", 8, func(a *model.Alert) interface{} { return boolText(a.Read) }},
	}
}

func (w *Writer) manualColumns() []column {
	return []column{
		{"Alert ID", 28, func(a *model.Alert) interface{} { return a.ID }},
		{"Analysed At", 20, func(a *model.Alert) interface{} { return w.formatTime(a.Timestamp) }},
		{"Severity", 10, func(a *model.Alert) interface{} { return severityText(a.Severity) }},
		{"Disease", 26, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return orDash(d.Disease) }) }},
		{"Confidence", 12, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return formatConfidence(d.Confidence) }) }},
		{"Disease Severity", 16, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return d.DiseaseSeverity }) }},
		{"Regions", 10, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return d.DetectedRegions }) }},
		{"Upload Context", 44, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return orDash(d.UploadContext) }) }},
		{"Missing Fields", 24, func(a *model.Alert) interface{} { return detectionField(a, missingFields) }},
		{"Read", 8, func(a *model.Alert) interface{} { return boolText(a.Read) }},
	}
}

func (w *Writer) liveColumns() []column {
	return []column{
		{"Alert ID", 36, func(a *model.Alert) interface{} { return a.ID }},
		{"Captured At", 20, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return w.formatTimePtr(d.CaptureTime) }) }},
		{"Analysed At", 20, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return w.formatTimePtr(d.AnalysisTime) }) }},
		{"Severity", 10, func(a *model.Alert) interface{} { return severityText(a.Severity) }},
		{"Camera", 10, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return orDash(d.Camera) }) }},
		{"File", 24, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return d.DriveFileName }) }},
		{"Disease", 26, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return orDash(d.Disease) }) }},
		{"Confidence", 12, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return formatConfidence(d.Confidence) }) }},
		{"Upload Context", 44, func(a *model.Alert) interface{} { return detectionField(a, func(d *model.DetectionPayload) interface{} { return orDash(d.UploadContext) }) }},
		{"Missing Fields", 24, func(a *model.Alert) interface{} { return detectionField(a, missingFields) }},
		{"Read", 8, func(a *model.Alert) interface{} { return boolText(a.Read) }},
	}
}

// =============================================================================
// Helper functions
// =============================================================================

func createStyles(f *excelize.File) (*styles, error) {
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}

	st := &styles{}
	var err error
	if st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 18},
		Alignment: center,
	}); err != nil {
		return nil, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: colorHeaderFg},
		Fill:      fill(colorHeaderBg),
		Alignment: center,
	}); err != nil {
		return nil, err
	}
	if st.value, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 12},
		Alignment: center,
	}); err != nil {
		return nil, err
	}
	if st.warning, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: colorWarningFg},
		Fill:      fill(colorWarningBg),
		Alignment: center,
	}); err != nil {
		return nil, err
	}
	if st.critical, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: colorCriticalFg},
		Fill:      fill(colorCriticalBg),
		Alignment: center,
	}); err != nil {
		return nil, err
	}
	if st.normal, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: colorNormalFg},
		Fill:      fill(colorNormalBg),
		Alignment: center,
	}); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *styles) forSeverity(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return st.critical
	case model.SeverityWarning:
		return st.warning
	default:
		return st.normal
	}
}

func (st *styles) forStatus(s model.CategoryStatus) int {
	switch s {
	case model.CategoryStatusCritical:
		return st.critical
	case model.CategoryStatusWarning:
		return st.warning
	default:
		return st.normal
	}
}

func (w *Writer) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(w.timezone).Format(timeLayout)
}

func (w *Writer) formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return w.formatTime(*t)
}

func sensorField(a *model.Alert, fn func(*model.SensorPayload) interface{}) interface{} {
	if a.Sensor == nil {
		return "-"
	}
	return fn(a.Sensor)
}

func detectionField(a *model.Alert, fn func(*model.DetectionPayload) interface{}) interface{} {
	if a.Detection == nil {
		return "-"
	}
	return fn(a.Detection)
}

func missingFields(d *model.DetectionPayload) interface{} {
	if len(d.MissingFields) == 0 {
		return ""
	}
	return strings.Join(d.MissingFields, ", ")
}

// columnName converts a 1-based column index to Excel column name (A, B, ..., Z, AA, AB, ...).
func columnName(index int) string {
	result := ""
	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
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

// severityPriority returns a numeric priority for sorting (higher = more severe).
func severityPriority(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return 2
	case model.SeverityWarning:
		return 1
	default:
		return 0
	}
}

func categoryText(c model.Category) string {
	switch c {
	case model.CategorySensor:
		return "Sensor"
	case model.CategoryManual:
		return "Manual Upload"
	case model.CategoryLive:
		return "Live Camera"
	default:
		return string(c)
	}
}

func formatRange(s *model.SensorPayload) string {
	return strings.TrimSpace(fmt.Sprintf("%g to %g %s", s.OptimalMin, s.OptimalMax, s.Unit))
}

func formatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c)
}

func boolText(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"farm-alerts/internal/config"
	"farm-alerts/internal/model"
	"farm-alerts/internal/report"
	"farm-alerts/internal/service"
)

// Command flags
var (
	outputDir    string   // Output directory for reports
	formats      []string // Output formats (excel, html)
	viewFlag     string   // List filter for printed alerts
	snapshotFile string   // Snapshot file overriding the configured sensor source
	noReport     bool     // Skip report generation
	jsonOutput   bool     // Print the computed view as JSON
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the alert view once and export reports",
	Long: `Compute the alert view once:
1. Fetch the latest sensor snapshot (REST endpoint or snapshot file)
2. Load the manual upload and live camera detection histories
3. Apply category toggles, dismissed and read sets and the critical-only filter
4. Print the alerts and write Excel and HTML reports

The exit code is 2 when a critical alert is visible, 1 for warnings only.

Examples:
  # Use the configured sensor source
  farmalert run -c config.yaml

  # Evaluate a snapshot file, print critical alerts only, skip reports
  farmalert run -c config.yaml --snapshot snapshot.json --view critical --no-report

  # Choose report formats and directory
  farmalert run -c config.yaml -f excel,html -o ./reports`,
	Run: func(cmd *cobra.Command, args []string) {
		if code := runOnce(); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "report formats (excel,html), comma separated")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "report output directory")
	runCmd.Flags().StringVar(&viewFlag, "view", "all", "printed alerts (all, unread, critical, warning)")
	runCmd.Flags().StringVar(&snapshotFile, "snapshot", "", "sensor snapshot JSON file, overrides the configured source")
	runCmd.Flags().BoolVar(&noReport, "no-report", false, "skip report generation")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the computed view as JSON instead of text")
}

// runOnce executes one computation and returns the process exit code.
func runOnce() int {
	view, err := service.ParseView(viewFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	if !jsonOutput {
		printBanner()
	}
	cfg, logger := mustLoadConfig()
	if snapshotFile != "" {
		cfg.Sensor.Endpoint = ""
		cfg.Sensor.File = snapshotFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := mustNewApp(ctx, cfg, logger, nil)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close storage")
		}
	}()

	startTime := time.Now()

	// Snapshot and both histories load concurrently; a failed sensor fetch
	// only removes the sensor alerts.
	var (
		snapshot *model.SensorSnapshot
		manual   []model.ManualRecord
		live     []model.LiveRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	if a.sensors != nil {
		g.Go(func() error {
			snap, err := a.sensors.Latest(gctx)
			if err != nil {
				logger.Warn().Err(err).Msg("sensor snapshot unavailable, sensor alerts skipped")
				if !jsonOutput {
					fmt.Fprintf(os.Stderr, "⚠️  Sensor snapshot unavailable: %v\n", err)
				}
				return nil
			}
			snapshot = snap
			return nil
		})
	}
	g.Go(func() error {
		var err error
		manual, err = a.history.Manual(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		live, err = a.history.Live(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to load detection history")
		fmt.Fprintf(os.Stderr, "❌ Failed to load detection history: %v\n", err)
		return 1
	}

	now := time.Now()
	result := a.aggregator.Compute(service.Input{
		Snapshot:    snapshot,
		Manual:      manual,
		Live:        live,
		Preferences: a.prefs.Snapshot(),
		Now:         now,
	})
	logger.Info().
		Int("alerts", result.Summary.TotalAlerts).
		Int("critical", result.Summary.CriticalCount).
		Dur("elapsed", time.Since(startTime)).
		Msg("alert view computed")

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			View service.View `json:"view"`
			*service.Result
		}{view, &service.Result{
			Alerts:           result.Filter(view),
			Summary:          result.Summary,
			SectionsExpanded: result.SectionsExpanded,
			ComputedAt:       result.ComputedAt,
		}}); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to encode result: %v\n", err)
			return 1
		}
	} else {
		printSummary(result.Summary)
		printAlerts(result.Filter(view), a.location)
		fmt.Printf("\n⏱️  Took %.1fs\n", time.Since(startTime).Seconds())
	}

	if !noReport {
		rep := model.NewAlertReport(now.In(a.location), result.Alerts, a.thresholds.Entries())
		rep.Version = Version
		if snapshot != nil {
			rep.Snapshot = snapshot
			rep.SensorTimestamp = snapshot.Timestamp
		}
		if err := writeReports(cfg, a, rep); err != nil {
			logger.Error().Err(err).Msg("failed to generate reports")
			fmt.Fprintf(os.Stderr, "❌ Report generation failed: %v\n", err)
			return 1
		}
	}

	switch {
	case result.Summary.CriticalCount > 0:
		return 2
	case result.Summary.WarningCount > 0:
		return 1
	}
	return 0
}

// writeReports renders rep in every requested format.
func writeReports(cfg *config.Config, a *app, rep *model.AlertReport) error {
	registry := report.NewRegistry(a.location, cfg.Report.HTMLTemplate, cfg.Report.ExcelTemplate)

	outputFormats := resolveFormats(cfg)
	outputPath := resolveOutputDir(cfg)
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filenameBase, err := registry.FileName(resolveFilenameTemplate(cfg), rep.GeneratedAt)
	if err != nil {
		return err
	}

	a.logger.Info().
		Strs("formats", outputFormats).
		Str("output_dir", outputPath).
		Msg("starting report generation")

	paths, err := registry.WriteAll(rep, outputPath, filenameBase, outputFormats)
	if !jsonOutput && len(paths) > 0 {
		fmt.Println("\n📄 Reports:")
		for _, p := range paths {
			fmt.Printf("   ✅ %s\n", p)
		}
	}
	return err
}

// printBanner prints the application banner.
func printBanner() {
	fmt.Printf("🌱 Farm Alert Engine %s\n", Version)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// printSummary prints the alert summary.
func printSummary(summary *model.AlertSummary) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("   Total alerts: %d\n", summary.TotalAlerts)
	fmt.Printf("   Critical:     %d\n", summary.CriticalCount)
	fmt.Printf("   Warning:      %d\n", summary.WarningCount)
	fmt.Printf("   Info:         %d\n", summary.InfoCount)
	fmt.Printf("   Unread:       %d\n", summary.UnreadCount)
	fmt.Println()
	for _, c := range model.Categories {
		if cs := summary.Categories[c]; cs != nil {
			fmt.Printf("   %-7s %2d alerts, %s\n", c, cs.Total, cs.Status)
		}
	}
}

// printAlerts prints one line per alert.
func printAlerts(alerts []model.Alert, loc *time.Location) {
	if len(alerts) == 0 {
		fmt.Println("\n✅ No alerts")
		return
	}
	fmt.Println()
	for i := range alerts {
		fmt.Println("   " + alertLine(&alerts[i], loc))
	}
}

// alertLine formats an alert for terminal output.
func alertLine(a *model.Alert, loc *time.Location) string {
	icon := "ℹ️ "
	switch a.Severity {
	case model.SeverityCritical:
		icon = "🔴"
	case model.SeverityWarning:
		icon = "🟡"
	}

	when := "unknown time"
	if a.HasTimestamp() {
		when = a.Timestamp.In(loc).Format("2006-01-02 15:04")
	}
	unread := ""
	if !a.Read {
		unread = " •"
	}

	var subject string
	switch {
	case a.Sensor != nil:
		s := a.Sensor
		subject = fmt.Sprintf("%s %g%s is %s (optimal %g to %g)", s.DisplayName, s.Value, s.Unit, s.Condition, s.OptimalMin, s.OptimalMax)
	case a.Detection != nil:
		d := a.Detection
		subject = fmt.Sprintf("%s (%.1f%%)", d.Disease, d.Confidence)
		if d.Camera != "" {
			subject += " camera " + d.Camera
		}
		if d.Degraded {
			subject += " [incomplete record]"
		}
	}

	return fmt.Sprintf("%s %-6s %s  %s  [%s]%s", icon, a.Category, subject, when, a.ID, unread)
}

// resolveFormats determines the output formats to use.
// Command line flags take precedence over config file.
func resolveFormats(cfg *config.Config) []string {
	if len(formats) > 0 {
		return formats
	}
	if len(cfg.Report.Formats) > 0 {
		return cfg.Report.Formats
	}
	return []string{"excel", "html"}
}

// resolveOutputDir determines the output directory to use.
// Command line flags take precedence over config file.
func resolveOutputDir(cfg *config.Config) string {
	if outputDir != "" {
		return outputDir
	}
	if cfg.Report.OutputDir != "" {
		return cfg.Report.OutputDir
	}
	return "./reports"
}

func resolveFilenameTemplate(cfg *config.Config) string {
	if cfg.Report.FilenameTemplate != "" {
		return cfg.Report.FilenameTemplate
	}
	return "farm_alerts_{{.Date}}"
}

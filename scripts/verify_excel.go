//go:build ignore
// +build ignore

// This script generates a sample alert report for manual verification.
// Run with: go run scripts/verify_excel.go
package main

import (
	"fmt"
	"os"
	"time"

	"farm-alerts/internal/model"
	"farm-alerts/internal/report"
)

func main() {
	tz, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		tz = time.UTC
	}

	rep := createSampleReport(tz)
	registry := report.NewRegistry(tz, "", "")

	paths, err := registry.WriteAll(rep, ".", "sample_alert_report", []string{"excel", "html"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Printf("✅ Report generated: %s\n", p)
	}

	fmt.Println("\nPlease open the files to verify:")
	fmt.Println("  - Times are in Asia/Kolkata")
	fmt.Println("  - Warning rows have a yellow severity cell, critical rows red")
	fmt.Println("  - Critical alerts are listed first in every section")
	fmt.Println("  - The live alert without an analysis time shows '-'")
}

func createSampleReport(tz *time.Location) *model.AlertReport {
	now := time.Now().In(tz)
	capture := now.Add(-12 * time.Minute)
	analysed := now.Add(-40 * time.Minute)

	alerts := []model.Alert{
		{
			ID:        "sensor:temperature:1",
			Category:  model.CategorySensor,
			Severity:  model.SeverityWarning,
			Timestamp: now,
			Sensor: &model.SensorPayload{
				Metric: model.MetricTemperature, DisplayName: "Temperature",
				Value: 38.4, Unit: "°C", Condition: model.ConditionHigh,
				OptimalMin: 24, OptimalMax: 34,
			},
		},
		{
			ID:        "sensor:soilMoisture:1",
			Category:  model.CategorySensor,
			Severity:  model.SeverityWarning,
			Timestamp: now,
			Read:      true,
			Sensor: &model.SensorPayload{
				Metric: model.MetricSoilMoisture, DisplayName: "Soil Moisture",
				Value: 18, Unit: "%", Condition: model.ConditionLow,
				OptimalMin: 20, OptimalMax: 60,
			},
		},
		{
			ID:        "manual:1718600000000",
			Category:  model.CategoryManual,
			Severity:  model.SeverityCritical,
			Timestamp: analysed,
			Detection: &model.DetectionPayload{
				Disease: "Karpa (Anthracnose)", Confidence: 87.5, DiseaseSeverity: "High",
				DetectedRegions: 3, HasVisualization: true, AnalysisTime: &analysed,
				UploadContext: "Manual upload analyzed " + model.RelativeAge(&analysed, now),
			},
		},
		{
			ID:        "manual:1718500000000",
			Category:  model.CategoryManual,
			Severity:  model.SeverityInfo,
			Timestamp: analysed.Add(-24 * time.Hour),
			Read:      true,
			Detection: &model.DetectionPayload{Disease: "Healthy", Confidence: 95, DiseaseSeverity: "None"},
		},
		{
			ID:       "live:history_42",
			Category: model.CategoryLive,
			Severity: model.SeverityCritical,
			Detection: &model.DetectionPayload{
				Disease: "Rust", Confidence: 71, Camera: "2", CaptureTime: &capture,
				DriveFileName: "cam2_20250617_1205.jpg", Degraded: true,
				MissingFields: []string{"timestamp"},
				UploadContext: "Camera image captured " + model.RelativeAge(&capture, now) +
					", analyzed " + model.RelativeAge(nil, now),
			},
		},
	}

	rep := model.NewAlertReport(now, alerts, model.DefaultThresholds().Entries())
	rep.SensorTimestamp = now.Format("02-01-2006 15:04:05")
	rep.Version = "sample"
	return rep
}

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"farm-alerts/internal/model"
)

// View is a list filter offered by the alert panel.
type View string

const (
	ViewAll      View = "all"
	ViewUnread   View = "unread"
	ViewCritical View = "critical"
	ViewWarning  View = "warning"
)

// ParseView converts user input into a View. Empty input means ViewAll.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewUnread, ViewCritical, ViewWarning:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q, expected all, unread, critical or warning", s)
}

// Input is everything one computation depends on.
type Input struct {
	Snapshot    *model.SensorSnapshot
	Manual      []model.ManualRecord
	Live        []model.LiveRecord
	Preferences *model.Preferences
	Now         time.Time // evaluation clock
}

// Result is the merged, filtered alert view.
type Result struct {
	Alerts           []model.Alert           `json:"alerts"`
	Summary          *model.AlertSummary     `json:"summary"`
	SectionsExpanded map[model.Category]bool `json:"sections_expanded"`
	ComputedAt       time.Time               `json:"computed_at"`
}

// Filter returns the alerts visible under view, keeping their order.
func (r *Result) Filter(view View) []model.Alert {
	out := make([]model.Alert, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		switch view {
		case ViewUnread:
			if a.Read {
				continue
			}
		case ViewCritical:
			if !a.IsCritical() {
				continue
			}
		case ViewWarning:
			if !a.IsWarning() {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// ByCategory returns the alerts of one category, keeping their order.
func (r *Result) ByCategory(c model.Category) []model.Alert {
	out := make([]model.Alert, 0)
	for _, a := range r.Alerts {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the alert with the given id.
func (r *Result) Find(id string) (model.Alert, bool) {
	for _, a := range r.Alerts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Alert{}, false
}

// Aggregator merges the three producers under the user's preferences.
type Aggregator struct {
	sensor *SensorEvaluator
	manual *ManualAdapter
	live   *LiveAdapter
	logger zerolog.Logger
}

// NewAggregator creates an Aggregator over the given producers.
func NewAggregator(sensor *SensorEvaluator, manual *ManualAdapter, live *LiveAdapter, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		sensor: sensor,
		manual: manual,
		live:   live,
		logger: logger.With().Str("component", "aggregator").Logger(),
	}
}

// Compute derives the alert view from scratch. Disabled categories are not
// evaluated, dismissed ids are dropped, read flags come from the read set and
// critical-only keeps critical alerts alone. Order is sensor, manual, live,
// each in its producer's order.
func (a *Aggregator) Compute(in Input) *Result {
	prefs := in.Preferences
	if prefs == nil {
		prefs = model.DefaultPreferences()
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	var produced []model.Alert
	if prefs.EnableSensorAlerts {
		produced = append(produced, a.sensor.Evaluate(in.Snapshot, now)...)
	}
	if prefs.EnableManualAlerts {
		produced = append(produced, a.manual.Adapt(in.Manual, now)...)
	}
	if prefs.EnableLiveAlerts {
		produced = append(produced, a.live.Adapt(in.Live, now)...)
	}

	alerts := make([]model.Alert, 0, len(produced))
	dismissed := 0
	for _, alert := range produced {
		if prefs.DismissedAlerts.Contains(alert.ID) {
			dismissed++
			continue
		}
		alert.Read = prefs.ReadAlerts.Contains(alert.ID)
		if prefs.CriticalOnly && !alert.IsCritical() {
			continue
		}
		alerts = append(alerts, alert)
	}

	sections := make(map[model.Category]bool, len(model.Categories))
	for _, c := range model.Categories {
		expanded, ok := prefs.SectionsExpanded[c]
		sections[c] = expanded || !ok
	}

	result := &Result{
		Alerts:           alerts,
		Summary:          model.NewAlertSummary(alerts),
		SectionsExpanded: sections,
		ComputedAt:       now,
	}

	a.logger.Debug().
		Int("produced", len(produced)).
		Int("dismissed", dismissed).
		Int("total_alerts", result.Summary.TotalAlerts).
		Int("critical_count", result.Summary.CriticalCount).
		Int("warning_count", result.Summary.WarningCount).
		Int("unread_count", result.Summary.UnreadCount).
		Msg("alert computation completed")

	return result
}

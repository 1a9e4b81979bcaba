// Package metrics exposes the alert engine state as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farm-alerts/internal/model"
)

var severities = []model.Severity{model.SeverityCritical, model.SeverityWarning, model.SeverityInfo}

// Metrics holds the alert gauges and engine counters.
type Metrics struct {
	registry *prometheus.Registry

	alerts          *prometheus.GaugeVec
	unreadAlerts    *prometheus.GaugeVec
	recomputations  prometheus.Counter
	persistFailures prometheus.Counter
}

// New creates the collectors and registers them. A nil registry gets a fresh one.
func New(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		alerts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "farmalert_alerts",
				Help: "Number of visible alerts in the current view",
			},
			[]string{"category", "severity"},
		),
		unreadAlerts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "farmalert_unread_alerts",
				Help: "Number of visible unread alerts in the current view",
			},
			[]string{"category"},
		),
		recomputations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farmalert_recomputations_total",
			Help: "Total number of alert view recomputations",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farmalert_persist_failures_total",
			Help: "Total number of reported preference persistence failures",
		}),
	}

	for _, c := range []prometheus.Collector{m.alerts, m.unreadAlerts, m.recomputations, m.persistFailures} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	// Export zeros before the first recomputation.
	m.setSummary(model.NewAlertSummary(nil))
	return m, nil
}

// Observe records one recomputation and its summary.
func (m *Metrics) Observe(summary *model.AlertSummary) {
	m.recomputations.Inc()
	if summary != nil {
		m.setSummary(summary)
	}
}

func (m *Metrics) setSummary(summary *model.AlertSummary) {
	for _, c := range model.Categories {
		cs := summary.Categories[c]
		if cs == nil {
			cs = &model.CategorySummary{}
		}
		counts := map[model.Severity]int{
			model.SeverityCritical: cs.CriticalCount,
			model.SeverityWarning:  cs.WarningCount,
			model.SeverityInfo:     cs.InfoCount,
		}
		for _, s := range severities {
			m.alerts.WithLabelValues(string(c), string(s)).Set(float64(counts[s]))
		}
		m.unreadAlerts.WithLabelValues(string(c)).Set(float64(cs.UnreadCount))
	}
}

// PersistFailure counts a preference write failure. Its signature matches
// preference.Options.OnPersistError.
func (m *Metrics) PersistFailure(error) {
	m.persistFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

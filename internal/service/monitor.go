package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"farm-alerts/internal/model"
)

// DefaultPollInterval is how often the sensor source is polled.
const DefaultPollInterval = 30 * time.Second

// SnapshotSource delivers the latest sensor snapshot.
type SnapshotSource interface {
	Latest(ctx context.Context) (*model.SensorSnapshot, error)
}

// HistorySource reads the detection logs and reports their mutations.
type HistorySource interface {
	Manual(ctx context.Context) ([]model.ManualRecord, error)
	Live(ctx context.Context) ([]model.LiveRecord, error)
	Subscribe() (<-chan model.HistoryKind, func())
}

// PreferenceSource exposes the current preferences and their changes.
type PreferenceSource interface {
	Snapshot() *model.Preferences
	Subscribe() (<-chan struct{}, func())
}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	PollInterval time.Duration    // DefaultPollInterval when zero
	Clock        func() time.Time // time.Now when nil
}

// Monitor keeps the computed alert view current. It owns the latest sensor
// snapshot and recomputes on poll ticks, history mutations and preference
// changes. Recomputation is serialised.
type Monitor struct {
	aggregator *Aggregator
	sensors    SnapshotSource // may be nil
	history    HistorySource
	prefs      PreferenceSource
	opts       MonitorOptions
	logger     zerolog.Logger

	mu        sync.Mutex // serialises Recompute
	stateMu   sync.RWMutex
	snapshot  *model.SensorSnapshot
	current   *Result
	listeners []func(*Result)
}

// NewMonitor creates a Monitor. sensors may be nil when no sensor source is
// configured; sensor alerts are then produced from SetSnapshot only.
func NewMonitor(aggregator *Aggregator, sensors SnapshotSource, history HistorySource, prefs PreferenceSource, opts MonitorOptions, logger zerolog.Logger) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Monitor{
		aggregator: aggregator,
		sensors:    sensors,
		history:    history,
		prefs:      prefs,
		opts:       opts,
		logger:     logger.With().Str("component", "monitor").Logger(),
	}
}

// OnUpdate registers fn to be called with every new result.
func (m *Monitor) OnUpdate(fn func(*Result)) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Current returns the last computed result, or nil before the first one.
func (m *Monitor) Current() *Result {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current
}

// Snapshot returns the sensor snapshot the last result was computed from.
func (m *Monitor) Snapshot() *model.SensorSnapshot {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.snapshot
}

// SetSnapshot replaces the sensor snapshot without recomputing.
func (m *Monitor) SetSnapshot(s *model.SensorSnapshot) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.snapshot = s
}

// Recompute re-reads both history logs and re-derives the alert view.
func (m *Monitor) Recompute(ctx context.Context) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var manual []model.ManualRecord
	var live []model.LiveRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		manual, err = m.history.Manual(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		live, err = m.history.Live(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load detection history: %w", err)
	}

	result := m.aggregator.Compute(Input{
		Snapshot:    m.Snapshot(),
		Manual:      manual,
		Live:        live,
		Preferences: m.prefs.Snapshot(),
		Now:         m.opts.Clock(),
	})

	m.stateMu.Lock()
	m.current = result
	listeners := append([]func(*Result){}, m.listeners...)
	m.stateMu.Unlock()

	for _, fn := range listeners {
		fn(result)
	}
	return result, nil
}

// Refresh fetches a new sensor snapshot and recomputes. When the fetch fails
// the previous snapshot is kept, the view is still recomputed and the fetch
// error is returned alongside the result.
func (m *Monitor) Refresh(ctx context.Context) (*Result, error) {
	var fetchErr error
	if m.sensors != nil {
		snap, err := m.sensors.Latest(ctx)
		if err != nil {
			fetchErr = fmt.Errorf("fetch sensor snapshot: %w", err)
			m.logger.Warn().Err(err).Msg("sensor fetch failed, keeping previous snapshot")
		} else {
			m.SetSnapshot(snap)
		}
	}

	result, err := m.Recompute(ctx)
	if err != nil {
		return nil, err
	}
	return result, fetchErr
}

// Run refreshes once, then polls the sensor source while auto-refresh is on
// and recomputes on every history or preference change. It returns when ctx
// is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	prefCh, cancelPrefs := m.prefs.Subscribe()
	defer cancelPrefs()
	histCh, cancelHist := m.history.Subscribe()
	defer cancelHist()

	if _, err := m.Refresh(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("initial refresh incomplete")
	}

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	m.logger.Info().Dur("poll_interval", m.opts.PollInterval).Msg("monitor started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("monitor stopped")
			return nil
		case <-ticker.C:
			if !m.prefs.Snapshot().AutoRefresh {
				continue
			}
			if _, err := m.Refresh(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("scheduled refresh incomplete")
			}
		case <-prefCh:
			m.recomputeLogged(ctx, "preferences changed")
		case kind := <-histCh:
			m.recomputeLogged(ctx, string(kind)+" history changed")
		}
	}
}

func (m *Monitor) recomputeLogged(ctx context.Context, reason string) {
	if _, err := m.Recompute(ctx); err != nil {
		m.logger.Warn().Err(err).Str("reason", reason).Msg("recompute failed")
		return
	}
	m.logger.Debug().Str("reason", reason).Msg("alerts recomputed")
}

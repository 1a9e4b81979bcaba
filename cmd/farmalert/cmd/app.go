package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"farm-alerts/internal/client/sensor"
	"farm-alerts/internal/config"
	"farm-alerts/internal/identity"
	"farm-alerts/internal/model"
	"farm-alerts/internal/preference"
	"farm-alerts/internal/service"
	"farm-alerts/internal/storage"
)

// app holds the components shared by the commands.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	location   *time.Location
	thresholds *model.ThresholdTable
	kv         storage.KV
	history    *storage.HistoryRepository
	prefs      *preference.Store
	sensors    service.SnapshotSource // nil when no source is configured
	aggregator *service.Aggregator
}

// mustLoadConfig loads the configuration and builds the logger, exiting on
// failure. The --log-level flag overrides the configured level.
func mustLoadConfig() (*config.Config, zerolog.Logger) {
	configPath := GetConfigFile()
	cfg, err := config.Load(configPath)
	if err != nil {
		tmpLogger := setupLogger("error", "console", time.UTC)
		tmpLogger.Error().Err(err).Str("path", configPath).Msg("failed to load config")
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if GetLogLevel() != "" {
		level = GetLogLevel()
	}
	logger := setupLogger(level, cfg.Logging.Format, cfg.Monitor.Location())
	logger.Debug().
		Str("config_path", configPath).
		Str("log_level", level).
		Str("log_format", cfg.Logging.Format).
		Msg("configuration loaded successfully")

	return cfg, logger
}

// newApp opens storage and loads thresholds and preferences. onPersistError
// may be nil.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, onPersistError func(error)) (*app, error) {
	thresholds, err := config.LoadThresholds(cfg.Monitor.ThresholdsFile)
	if err != nil {
		return nil, err
	}

	kv, err := storage.NewSQLiteKV(cfg.Storage.Path, cfg.Storage.Quota)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage %s: %w", cfg.Storage.Path, err)
	}

	loc := cfg.Monitor.Location()
	a := &app{
		cfg:        cfg,
		logger:     logger,
		location:   loc,
		thresholds: thresholds,
		kv:         kv,
		history: storage.NewHistoryRepository(kv, storage.HistoryOptions{
			ManualKey:   cfg.Storage.ManualHistoryKey,
			LiveKey:     cfg.Storage.LiveHistoryKey,
			ManualLimit: cfg.Storage.ManualHistoryLimit,
		}, logger),
		prefs: preference.NewStore(kv, preference.Options{
			Key:            cfg.Preferences.Key,
			DebounceWindow: cfg.Preferences.DebounceWindow,
			OnPersistError: onPersistError,
		}, logger),
		sensors: newSnapshotSource(cfg, loc, logger),
	}
	a.prefs.Load(ctx)

	ids := identity.New(nil)
	a.aggregator = service.NewAggregator(
		service.NewSensorEvaluator(thresholds, ids, loc, logger),
		service.NewManualAdapter(ids, cfg.Monitor.HealthyLabel, loc, logger),
		service.NewLiveAdapter(ids, cfg.Monitor.HealthyLabel, loc, logger),
		logger,
	)

	logger.Debug().
		Str("storage", cfg.Storage.Path).
		Int("thresholds", thresholds.Len()).
		Bool("sensor_source", a.sensors != nil).
		Msg("application initialized")

	return a, nil
}

// newSnapshotSource returns the configured sensor source, or nil.
func newSnapshotSource(cfg *config.Config, loc *time.Location, logger zerolog.Logger) service.SnapshotSource {
	switch {
	case cfg.Sensor.Endpoint != "":
		return sensor.NewClient(&cfg.Sensor, &cfg.HTTP.Retry, loc, logger)
	case cfg.Sensor.File != "":
		return sensor.NewFileSource(cfg.Sensor.File, logger)
	}
	return nil
}

// newMonitor creates a Monitor over the app's components.
func (a *app) newMonitor() *service.Monitor {
	return service.NewMonitor(a.aggregator, a.sensors, a.history, a.prefs, service.MonitorOptions{
		PollInterval: a.cfg.Monitor.PollInterval,
	}, a.logger)
}

// Close flushes pending preference writes and closes storage.
func (a *app) Close() error {
	return errors.Join(a.prefs.Close(), a.kv.Close())
}

// mustNewApp is newApp that exits on failure.
func mustNewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, onPersistError func(error)) *app {
	a, err := newApp(ctx, cfg, logger, onPersistError)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize")
		fmt.Fprintf(os.Stderr, "❌ Initialization failed: %v\n", err)
		os.Exit(1)
	}
	return a
}

// setupLogger creates a zerolog logger with the specified level and format.
// Timestamps are rendered in tz.
func setupLogger(level string, format string, tz *time.Location) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if tz == nil {
		tz = time.Local
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(tz)
	}

	var output io.Writer
	if format == "json" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

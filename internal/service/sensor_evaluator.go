// Package service provides the alert engine: producers, aggregation,
// redirect resolution and the monitor that keeps the computed view current.
package service

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"farm-alerts/internal/identity"
	"farm-alerts/internal/model"
)

// sensorMessageKeys holds the translation keys of the metrics that have
// dedicated texts. Other metric/condition pairs get generated keys.
var sensorMessageKeys = map[string]map[model.Condition][2]string{
	model.MetricTemperature: {
		model.ConditionHigh: {"highTemperatureAlert", "temperatureExceedsOptimal"},
		model.ConditionLow:  {"lowTemperatureAlert", "temperatureBelowOptimal"},
	},
	model.MetricHumidity: {
		model.ConditionHigh: {"highHumidityAlert", "humidityExceedsOptimal"},
		model.ConditionLow:  {"lowHumidityAlert", "humidityBelowOptimal"},
	},
	model.MetricSoilMoisture: {
		model.ConditionHigh: {"excessSoilMoisture", "soilMoistureExceedsOptimal"},
		model.ConditionLow:  {"lowSoilMoisture", "soilMoistureBelowOptimal"},
	},
	model.MetricBatteryVoltage: {
		model.ConditionLow: {"lowBatteryVoltage", "batteryVoltageBelowOptimal"},
	},
	model.MetricRainSensor: {
		model.ConditionHigh: {"rainDetected", "rainSensorDetectedPrecipitation"},
	},
}

// messageKeys returns the title and message translation keys for a metric
// that left its optimal range.
func messageKeys(metric string, cond model.Condition) (title, message string) {
	if keys, ok := sensorMessageKeys[metric][cond]; ok {
		return keys[0], keys[1]
	}
	name := metric
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	if cond == model.ConditionHigh {
		return "high" + name + "Alert", metric + "ExceedsOptimal"
	}
	return "low" + name + "Alert", metric + "BelowOptimal"
}

// SensorEvaluator turns one sensor snapshot into warning alerts.
type SensorEvaluator struct {
	table    *model.ThresholdTable
	ids      *identity.Strategy
	location *time.Location
	logger   zerolog.Logger
}

// NewSensorEvaluator creates a SensorEvaluator. A nil location means time.Local.
func NewSensorEvaluator(table *model.ThresholdTable, ids *identity.Strategy, location *time.Location, logger zerolog.Logger) *SensorEvaluator {
	if table == nil {
		table = model.DefaultThresholds()
	}
	if ids == nil {
		ids = identity.New(nil)
	}
	if location == nil {
		location = time.Local
	}
	return &SensorEvaluator{
		table:    table,
		ids:      ids,
		location: location,
		logger:   logger.With().Str("component", "sensor_evaluator").Logger(),
	}
}

// Evaluate returns one warning alert per metric whose value lies strictly
// outside its optimal range, in threshold table order. Absent or non-numeric
// readings are skipped. now is the evaluation clock used for id bucketing.
func (e *SensorEvaluator) Evaluate(snapshot *model.SensorSnapshot, now time.Time) []model.Alert {
	alerts := make([]model.Alert, 0)
	if snapshot == nil {
		return alerts
	}

	eventTime := e.eventTime(snapshot, now)

	for _, th := range e.table.Entries() {
		reading, ok := snapshot.Get(th.Metric)
		if !ok {
			continue
		}
		value, ok := reading.Float()
		if !ok {
			e.logger.Debug().
				Str("metric", th.Metric).
				Interface("value", reading.Raw).
				Msg("skipping non-numeric reading")
			continue
		}

		cond := th.ConditionOf(value)
		if cond == "" {
			continue
		}

		unit := reading.Unit
		if unit == "" {
			unit = th.Unit
		}
		titleKey, messageKey := messageKeys(th.Metric, cond)

		alerts = append(alerts, model.Alert{
			ID:        e.ids.Sensor(th.Metric, now),
			Category:  model.CategorySensor,
			Severity:  model.SeverityWarning,
			Timestamp: eventTime,
			Sensor: &model.SensorPayload{
				Metric:      th.Metric,
				DisplayName: th.DisplayName,
				Value:       value,
				Unit:        unit,
				Condition:   cond,
				OptimalMin:  th.OptimalMin,
				OptimalMax:  th.OptimalMax,
				TitleKey:    titleKey,
				MessageKey:  messageKey,
			},
		})
	}

	e.logger.Debug().
		Int("alerts", len(alerts)).
		Str("snapshot_time", snapshot.Timestamp).
		Msg("sensor evaluation completed")

	return alerts
}

// eventTime parses the snapshot timestamp, falling back to now.
func (e *SensorEvaluator) eventTime(snapshot *model.SensorSnapshot, now time.Time) time.Time {
	t, err := model.ParseSensorTimestamp(snapshot.Timestamp, e.location)
	if err != nil {
		e.logger.Warn().Err(err).Msg("invalid sensor timestamp, using evaluation time")
		return now
	}
	return t
}

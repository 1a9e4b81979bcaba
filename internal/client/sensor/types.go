// Package sensor provides a client for the field controller's realtime database.
package sensor

import (
	"time"

	"farm-alerts/internal/model"
)

// EnvLog is one record pushed by the field controller under the env-log path.
// Values are kept raw; the controller writes numbers and numeric strings.
type EnvLog struct {
	Soil   any              `json:"soil"`   // %
	Temp   any              `json:"temp"`   // °C
	Hum    any              `json:"hum"`    // %
	Lux    any              `json:"lux"`    // Lux
	BattV  any              `json:"battV"`  // V
	Rain   any              `json:"rain"`   // %
	Active any              `json:"active"` // active battery number, 0 when offline
	Time   model.FlexString `json:"time"`   // "DD-MM-YYYY HH:MM:SS"
}

// ActiveBatteryMetric is the snapshot key carrying the active battery number.
const ActiveBatteryMetric = "activeBattery"

// Snapshot maps the record onto the metric names used by the threshold table.
func (l EnvLog) Snapshot() *model.SensorSnapshot {
	snap := model.NewSensorSnapshot(l.Time.String())
	snap.Set(model.MetricSoilMoisture, model.Reading{Raw: l.Soil, Unit: "%"})
	snap.Set(model.MetricTemperature, model.Reading{Raw: l.Temp, Unit: "°C"})
	snap.Set(model.MetricHumidity, model.Reading{Raw: l.Hum, Unit: "%"})
	snap.Set(model.MetricLightIntensity, model.Reading{Raw: l.Lux, Unit: "Lux"})
	snap.Set(model.MetricBatteryVoltage, model.Reading{Raw: l.BattV, Unit: "V"})
	snap.Set(model.MetricRainSensor, model.Reading{Raw: l.Rain, Unit: "%"})
	if l.Active != nil {
		snap.Set(ActiveBatteryMetric, model.Reading{Raw: l.Active})
	}
	return snap
}

// parsedTime returns the record time in loc, or the zero time when it cannot
// be parsed so that such records sort as oldest.
func (l EnvLog) parsedTime(loc *time.Location) time.Time {
	t, err := model.ParseSensorTimestamp(l.Time.String(), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Newest returns the key and record with the latest time. Ties go to the
// greater key, as push keys grow with insertion time.
func Newest(logs map[string]EnvLog, loc *time.Location) (string, EnvLog, bool) {
	var (
		bestKey  string
		best     EnvLog
		bestTime time.Time
		found    bool
	)
	for key, log := range logs {
		t := log.parsedTime(loc)
		if !found || t.After(bestTime) || (t.Equal(bestTime) && key > bestKey) {
			bestKey, best, bestTime, found = key, log, t, true
		}
	}
	return bestKey, best, found
}

// Package model provides data models for the farm alert engine.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SensorTimeLayout is the layout used by the field controller, e.g. "17-06-2025 18:33:51".
// Single-digit day, month and time parts are accepted as well.
const SensorTimeLayout = "2-1-2006 15:4:5"

// Reading is one metric value of a snapshot. Raw keeps whatever the source
// delivered so that missing or non-numeric telemetry can be told apart.
type Reading struct {
	Raw  any    `json:"value"`
	Unit string `json:"unit,omitempty"`
}

// NewReading creates a numeric reading.
func NewReading(value float64, unit string) Reading {
	return Reading{Raw: value, Unit: unit}
}

// Float converts the raw value to a finite float64.
// It returns false for nil, NaN, infinities and anything that is not a number
// or a numeric string.
func (r Reading) Float() (float64, bool) {
	var f float64
	switch v := r.Raw.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SensorSnapshot is the latest set of readings reported by the field controller.
// On the wire it is a flat object: {"temperature": {"value": 31, "unit": "°C"}, "timestamp": "..."}.
type SensorSnapshot struct {
	Readings  map[string]Reading
	Timestamp string // raw event time, DD-MM-YYYY HH:MM:SS
}

// NewSensorSnapshot creates an empty snapshot with the given raw timestamp.
func NewSensorSnapshot(timestamp string) *SensorSnapshot {
	return &SensorSnapshot{
		Readings:  make(map[string]Reading),
		Timestamp: timestamp,
	}
}

// Set adds or replaces a reading.
func (s *SensorSnapshot) Set(metric string, r Reading) {
	if s.Readings == nil {
		s.Readings = make(map[string]Reading)
	}
	s.Readings[metric] = r
}

// Get returns the reading for a metric.
func (s *SensorSnapshot) Get(metric string) (Reading, bool) {
	if s == nil || s.Readings == nil {
		return Reading{}, false
	}
	r, ok := s.Readings[metric]
	return r, ok
}

// UnmarshalJSON decodes the flat wire form. A metric given as a bare value
// instead of an object is accepted with an empty unit.
func (s *SensorSnapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode sensor snapshot: %w", err)
	}

	s.Readings = make(map[string]Reading, len(raw))
	s.Timestamp = ""

	for key, msg := range raw {
		if key == "timestamp" {
			var ts string
			if err := json.Unmarshal(msg, &ts); err != nil {
				ts = strings.TrimSpace(string(msg))
			}
			s.Timestamp = ts
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}

		if obj, ok := v.(map[string]any); ok {
			r := Reading{Raw: obj["value"]}
			if unit, ok := obj["unit"].(string); ok {
				r.Unit = unit
			}
			s.Readings[key] = r
			continue
		}
		s.Readings[key] = Reading{Raw: v}
	}
	return nil
}

// MarshalJSON encodes the snapshot in its flat wire form.
func (s SensorSnapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Readings)+1)
	for k, r := range s.Readings {
		out[k] = r
	}
	if s.Timestamp != "" {
		out["timestamp"] = s.Timestamp
	}
	return json.Marshal(out)
}

// ParseSensorTimestamp parses a controller timestamp in loc. RFC 3339 strings
// are accepted too. A nil loc means time.Local.
func ParseSensorTimestamp(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty sensor timestamp")
	}
	if t, err := time.ParseInLocation(SensorTimeLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised sensor timestamp %q", raw)
}

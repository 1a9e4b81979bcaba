// Package model provides data models for the farm alert engine.
package model

import (
	"encoding/json"
	"strings"
)

// IDSet is an insertion-ordered set of alert ids.
type IDSet struct {
	order []string
	index map[string]struct{}
}

// NewIDSet creates a set from ids, dropping blanks and duplicates.
func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether the set changed.
func (s *IDSet) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether id is in the set.
func (s *IDSet) Contains(id string) bool {
	if s == nil || s.index == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids.
func (s *IDSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// IDs returns a copy of the ids in insertion order.
func (s *IDSet) IDs() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Reset empties the set and reports whether it held anything.
func (s *IDSet) Reset() bool {
	had := s.Len() > 0
	s.order = nil
	s.index = make(map[string]struct{})
	return had
}

// Clone returns an independent copy.
func (s *IDSet) Clone() *IDSet {
	if s == nil {
		return NewIDSet()
	}
	return NewIDSet(s.order...)
}

// MarshalJSON encodes the set as a JSON array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes a JSON array. Non-string entries are skipped.
func (s *IDSet) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = IDSet{index: make(map[string]struct{}, len(raw))}
	for _, v := range raw {
		if id, ok := v.(string); ok {
			s.Add(id)
		}
	}
	return nil
}

// ClearKind selects which id set a clear operation empties.
type ClearKind string

const (
	ClearDismissed ClearKind = "dismissed"
	ClearRead      ClearKind = "read"
)

// Preferences is the user-controlled toggles plus interaction state.
type Preferences struct {
	EnableSensorAlerts bool              `json:"enableSensorAlerts"`
	EnableManualAlerts bool              `json:"enableManualAlerts"`
	EnableLiveAlerts   bool              `json:"enableLiveAlerts"`
	CriticalOnly       bool              `json:"criticalOnly"`
	AutoRefresh        bool              `json:"autoRefresh"`
	DismissedAlerts    *IDSet            `json:"dismissedAlerts"`
	ReadAlerts         *IDSet            `json:"readAlerts"`
	SectionsExpanded   map[Category]bool `json:"sectionsExpanded"`
	LastUpdate         int64             `json:"lastUpdate,omitempty"` // epoch milliseconds of the last write
}

// DefaultPreferences returns the documented defaults: every category enabled,
// nothing dismissed or read, all sections expanded.
func DefaultPreferences() *Preferences {
	return &Preferences{
		EnableSensorAlerts: true,
		EnableManualAlerts: true,
		EnableLiveAlerts:   true,
		CriticalOnly:       false,
		AutoRefresh:        true,
		DismissedAlerts:    NewIDSet(),
		ReadAlerts:         NewIDSet(),
		SectionsExpanded: map[Category]bool{
			CategorySensor: true,
			CategoryManual: true,
			CategoryLive:   true,
		},
	}
}

// CategoryEnabled reports whether alerts of category c are produced.
func (p *Preferences) CategoryEnabled(c Category) bool {
	switch c {
	case CategorySensor:
		return p.EnableSensorAlerts
	case CategoryManual:
		return p.EnableManualAlerts
	case CategoryLive:
		return p.EnableLiveAlerts
	}
	return false
}

// Clone returns a deep copy.
func (p *Preferences) Clone() *Preferences {
	c := *p
	c.DismissedAlerts = p.DismissedAlerts.Clone()
	c.ReadAlerts = p.ReadAlerts.Clone()
	c.SectionsExpanded = make(map[Category]bool, len(p.SectionsExpanded))
	for k, v := range p.SectionsExpanded {
		c.SectionsExpanded[k] = v
	}
	return &c
}

// Equal compares two preferences ignoring LastUpdate.
func (p *Preferences) Equal(o *Preferences) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.EnableSensorAlerts != o.EnableSensorAlerts ||
		p.EnableManualAlerts != o.EnableManualAlerts ||
		p.EnableLiveAlerts != o.EnableLiveAlerts ||
		p.CriticalOnly != o.CriticalOnly ||
		p.AutoRefresh != o.AutoRefresh {
		return false
	}
	if !equalIDs(p.DismissedAlerts.IDs(), o.DismissedAlerts.IDs()) ||
		!equalIDs(p.ReadAlerts.IDs(), o.ReadAlerts.IDs()) {
		return false
	}
	if len(p.SectionsExpanded) != len(o.SectionsExpanded) {
		return false
	}
	for k, v := range p.SectionsExpanded {
		if ov, ok := o.SectionsExpanded[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DecodePreferences merges a stored blob over the defaults. Fields missing from
// the blob keep their default value.
func DecodePreferences(data []byte) (*Preferences, error) {
	p := DefaultPreferences()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if p.DismissedAlerts == nil {
		p.DismissedAlerts = NewIDSet()
	}
	if p.ReadAlerts == nil {
		p.ReadAlerts = NewIDSet()
	}
	defaults := DefaultPreferences().SectionsExpanded
	if p.SectionsExpanded == nil {
		p.SectionsExpanded = defaults
	}
	for k, v := range defaults {
		if _, ok := p.SectionsExpanded[k]; !ok {
			p.SectionsExpanded[k] = v
		}
	}
	return p, nil
}

// PreferencesPatch is a partial update. Nil fields are left unchanged and
// SectionsExpanded merges per key.
type PreferencesPatch struct {
	EnableSensorAlerts *bool             `json:"enableSensorAlerts,omitempty"`
	EnableManualAlerts *bool             `json:"enableManualAlerts,omitempty"`
	EnableLiveAlerts   *bool             `json:"enableLiveAlerts,omitempty"`
	CriticalOnly       *bool             `json:"criticalOnly,omitempty"`
	AutoRefresh        *bool             `json:"autoRefresh,omitempty"`
	SectionsExpanded   map[Category]bool `json:"sectionsExpanded,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (pp PreferencesPatch) IsEmpty() bool {
	return pp.EnableSensorAlerts == nil && pp.EnableManualAlerts == nil &&
		pp.EnableLiveAlerts == nil && pp.CriticalOnly == nil &&
		pp.AutoRefresh == nil && len(pp.SectionsExpanded) == 0
}

// Apply merges the patch into p.
func (pp PreferencesPatch) Apply(p *Preferences) {
	if pp.EnableSensorAlerts != nil {
		p.EnableSensorAlerts = *pp.EnableSensorAlerts
	}
	if pp.EnableManualAlerts != nil {
		p.EnableManualAlerts = *pp.EnableManualAlerts
	}
	if pp.EnableLiveAlerts != nil {
		p.EnableLiveAlerts = *pp.EnableLiveAlerts
	}
	if pp.CriticalOnly != nil {
		p.CriticalOnly = *pp.CriticalOnly
	}
	if pp.AutoRefresh != nil {
		p.AutoRefresh = *pp.AutoRefresh
	}
	if len(pp.SectionsExpanded) > 0 && p.SectionsExpanded == nil {
		p.SectionsExpanded = make(map[Category]bool, len(pp.SectionsExpanded))
	}
	for k, v := range pp.SectionsExpanded {
		p.SectionsExpanded[k] = v
	}
}

// Bool returns a pointer to v, for building patches.
func Bool(v bool) *bool {
	return &v
}

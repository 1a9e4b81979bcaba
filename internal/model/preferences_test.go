package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// IDSet Tests
// =============================================================================

func TestIDSet_AddIsIdempotent(t *testing.T) {
	s := NewIDSet()

	assert.True(t, s.Add("manual:2"))
	assert.False(t, s.Add("manual:2"))
	assert.False(t, s.Add("  "))
	assert.True(t, s.Add("sensor:temperature:1"))

	assert.Equal(t, []string{"manual:2", "sensor:temperature:1"}, s.IDs())
	assert.True(t, s.Contains("manual:2"))
	assert.False(t, s.Contains("manual:3"))
}

func TestIDSet_Reset(t *testing.T) {
	s := NewIDSet("a", "b")
	assert.True(t, s.Reset())
	assert.False(t, s.Reset())
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Add("a"))
}

func TestIDSet_JSON(t *testing.T) {
	var s IDSet
	require.NoError(t, json.Unmarshal([]byte(`["a", 3, "b", "a"]`), &s))
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	out, err := json.Marshal(NewIDSet())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))
}

// =============================================================================
// Preferences Tests
// =============================================================================

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()

	assert.True(t, p.EnableSensorAlerts)
	assert.True(t, p.EnableManualAlerts)
	assert.True(t, p.EnableLiveAlerts)
	assert.False(t, p.CriticalOnly)
	assert.Equal(t, 0, p.DismissedAlerts.Len())
	assert.Equal(t, 0, p.ReadAlerts.Len())
	for _, c := range Categories {
		assert.True(t, p.SectionsExpanded[c], string(c))
	}
}

func TestDecodePreferences_MergesOverDefaults(t *testing.T) {
	p, err := DecodePreferences([]byte(`{
		"enableLiveAlerts": false,
		"dismissedAlerts": ["manual:2"],
		"sectionsExpanded": {"sensor": false}
	}`))
	require.NoError(t, err)

	assert.False(t, p.EnableLiveAlerts)
	assert.True(t, p.EnableSensorAlerts, "missing field keeps default")
	assert.True(t, p.DismissedAlerts.Contains("manual:2"))
	assert.Equal(t, 0, p.ReadAlerts.Len())
	assert.False(t, p.SectionsExpanded[CategorySensor])
	assert.True(t, p.SectionsExpanded[CategoryManual])
	assert.True(t, p.SectionsExpanded[CategoryLive])
}

func TestDecodePreferences_NullSets(t *testing.T) {
	p, err := DecodePreferences([]byte(`{"dismissedAlerts": null, "readAlerts": null}`))
	require.NoError(t, err)
	assert.NotNil(t, p.DismissedAlerts)
	assert.NotNil(t, p.ReadAlerts)
}

func TestDecodePreferences_Corrupt(t *testing.T) {
	_, err := DecodePreferences([]byte(`{not json`))
	assert.Error(t, err)
}

func TestPreferences_CloneIsDeep(t *testing.T) {
	p := DefaultPreferences()
	c := p.Clone()

	c.DismissedAlerts.Add("x")
	c.SectionsExpanded[CategoryLive] = false

	assert.False(t, p.DismissedAlerts.Contains("x"))
	assert.True(t, p.SectionsExpanded[CategoryLive])
	assert.False(t, p.Equal(c))
}

func TestPreferences_EqualIgnoresLastUpdate(t *testing.T) {
	a := DefaultPreferences()
	b := DefaultPreferences()
	b.LastUpdate = 12345
	assert.True(t, a.Equal(b))
}

func TestPreferencesPatch_Apply(t *testing.T) {
	p := DefaultPreferences()
	patch := PreferencesPatch{
		CriticalOnly:     Bool(true),
		SectionsExpanded: map[Category]bool{CategoryManual: false},
	}
	require.False(t, patch.IsEmpty())

	patch.Apply(p)

	assert.True(t, p.CriticalOnly)
	assert.True(t, p.EnableSensorAlerts)
	assert.False(t, p.SectionsExpanded[CategoryManual])
	assert.True(t, p.SectionsExpanded[CategorySensor], "other sections untouched")
	assert.True(t, PreferencesPatch{}.IsEmpty())
}

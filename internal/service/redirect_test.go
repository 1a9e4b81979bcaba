package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-alerts/internal/model"
)

func TestRedirectResolver_Resolve(t *testing.T) {
	r := NewRedirectResolver()

	tests := []struct {
		name     string
		alert    model.Alert
		path     string
		hasState bool
	}{
		{"sensor", model.Alert{ID: "sensor:temperature:1", Category: model.CategorySensor}, PathDashboard, false},
		{"manual", model.Alert{ID: "manual:2", Category: model.CategoryManual}, PathDetection, false},
		{"live", model.Alert{ID: "live:h1", Category: model.CategoryLive}, PathDetection, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.alert)
			require.NoError(t, err)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, tt.hasState, got.State != nil)
		})
	}
}

func TestRedirectResolver_LiveState(t *testing.T) {
	got, err := NewRedirectResolver().Resolve(model.Alert{ID: "live:h1", Category: model.CategoryLive})
	require.NoError(t, err)

	assert.Equal(t, 1, got.State["tab"])
	assert.Equal(t, true, got.State["fromAlert"])
	assert.Equal(t, "live:h1", got.State["alertId"])
}

func TestRedirectResolver_UnknownCategory(t *testing.T) {
	_, err := NewRedirectResolver().Resolve(model.Alert{ID: "x", Category: "weather"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

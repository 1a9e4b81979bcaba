package sensor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-alerts/internal/config"
	"farm-alerts/internal/model"
)

const envLogsBody = `{
	"-Nx1": {"soil": 41, "temp": 29.5, "hum": 55, "lux": 800, "battV": 12.1, "rain": 0, "active": 1, "time": "17-06-2025 18:33:51"},
	"-Nx2": {"soil": "38", "temp": "36.2", "hum": "88", "lux": "150", "battV": "9.2", "rain": "0.4", "active": "2", "time": "26-06-2025 13:40:21"},
	"-Nx3": {"soil": 50, "temp": 20, "hum": 50, "lux": 900, "battV": 13, "rain": 0, "active": 1, "time": "5-6-2025 9:1:2"}
}`

// fastRetry keeps retry tests quick.
var fastRetry = &config.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}

func newTestClient(url string) *Client {
	return NewClient(&config.SensorConfig{Endpoint: url, Path: "envLogs"}, fastRetry, time.UTC, zerolog.Nop())
}

func TestNewClient(t *testing.T) {
	t.Run("with_default_values", func(t *testing.T) {
		client := NewClient(&config.SensorConfig{Endpoint: "http://localhost:9000"}, nil, nil, zerolog.Nop())

		require.NotNil(t, client)
		assert.Equal(t, "http://localhost:9000", client.endpoint)
		assert.Equal(t, "envLogs", client.path)
		assert.Equal(t, 10*time.Second, client.timeout)
		assert.Equal(t, 3, client.retry.MaxRetries)
		assert.Equal(t, time.UTC, client.location)
	})

	t.Run("with_custom_values", func(t *testing.T) {
		client := NewClient(&config.SensorConfig{
			Endpoint: "http://localhost:9000",
			Path:     "/farms/a1/envLogs/",
			Timeout:  time.Minute,
		}, &config.RetryConfig{MaxRetries: 5, BaseDelay: 2 * time.Second}, nil, zerolog.Nop())

		assert.Equal(t, "farms/a1/envLogs", client.path)
		assert.Equal(t, time.Minute, client.timeout)
		assert.Equal(t, 5, client.retry.MaxRetries)
		assert.Equal(t, 2*time.Second, client.retry.BaseDelay)
	})
}

func TestClient_Latest_PicksNewest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/envLogs.json", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("auth"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(envLogsBody))
	}))
	defer server.Close()

	snap, err := newTestClient(server.URL).Latest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "26-06-2025 13:40:21", snap.Timestamp)

	temp, ok := snap.Get(model.MetricTemperature)
	require.True(t, ok)
	v, ok := temp.Float()
	require.True(t, ok)
	assert.Equal(t, 36.2, v)
	assert.Equal(t, "°C", temp.Unit)

	for metric, unit := range map[string]string{
		model.MetricSoilMoisture:   "%",
		model.MetricHumidity:       "%",
		model.MetricLightIntensity: "Lux",
		model.MetricBatteryVoltage: "V",
		model.MetricRainSensor:     "%",
	} {
		r, ok := snap.Get(metric)
		require.True(t, ok, metric)
		assert.Equal(t, unit, r.Unit, metric)
	}

	active, ok := snap.Get(ActiveBatteryMetric)
	require.True(t, ok)
	assert.Equal(t, "2", active.Raw)
}

func TestClient_Logs_SendsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("auth"))
		w.Write([]byte(envLogsBody)) // no content type, as some proxies strip it
	}))
	defer server.Close()

	client := NewClient(&config.SensorConfig{Endpoint: server.URL, Token: "secret"}, fastRetry, time.UTC, zerolog.Nop())
	logs, err := client.Logs(context.Background())
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestClient_Latest_NoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

// =============================================================================
// Error Handling Tests
// =============================================================================

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(envLogsBody))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "Permission denied"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Latest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envLogsBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).Latest(ctx)
	assert.Error(t, err)
}

// =============================================================================
// Newest Tests
// =============================================================================

func TestNewest(t *testing.T) {
	tests := []struct {
		name    string
		logs    map[string]EnvLog
		wantKey string
		found   bool
	}{
		{"empty", nil, "", false},
		{"single", map[string]EnvLog{"a": {Time: "1-1-2025 0:0:0"}}, "a", true},
		{
			"day before month",
			map[string]EnvLog{
				"a": {Time: "12-01-2025 10:00:00"},
				"b": {Time: "01-12-2025 10:00:00"},
			},
			"b", true,
		},
		{
			"unparseable sorts oldest",
			map[string]EnvLog{
				"a": {Time: "garbage"},
				"b": {Time: "01-01-2020 00:00:00"},
				"c": {},
			},
			"b", true,
		},
		{
			"tie goes to greater key",
			map[string]EnvLog{
				"-Na": {Time: "01-01-2025 00:00:00"},
				"-Nb": {Time: "01-01-2025 00:00:00"},
			},
			"-Nb", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, _, found := Newest(tt.logs, time.UTC)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

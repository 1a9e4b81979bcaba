// Package sensor provides a client for the field controller's realtime database.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"farm-alerts/internal/config"
	"farm-alerts/internal/model"
)

// ErrNoData is returned when the env-log path holds no records.
var ErrNoData = errors.New("no sensor data found")

// Client reads env-log records over the realtime database REST API.
type Client struct {
	endpoint   string             // Database base URL
	path       string             // Env-log path without leading slash
	token      string             // Optional auth token
	timeout    time.Duration      // Request timeout
	retry      config.RetryConfig // Retry configuration
	location   *time.Location     // Zone of record timestamps
	httpClient *resty.Client      // HTTP client
	logger     zerolog.Logger     // Logger
}

// NewClient creates a new sensor database client. loc is the zone the
// controller writes timestamps in; nil means UTC.
func NewClient(cfg *config.SensorConfig, retryCfg *config.RetryConfig, loc *time.Location, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	retry := config.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
	}
	if retryCfg != nil {
		retry = *retryCfg
	}

	if loc == nil {
		loc = time.UTC
	}

	path := strings.Trim(cfg.Path, "/")
	if path == "" {
		path = "envLogs"
	}

	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retry.MaxRetries).
		SetRetryWaitTime(retry.BaseDelay).
		SetRetryMaxWaitTime(retry.BaseDelay * 8). // Max wait time for exponential backoff
		AddRetryCondition(retryCondition)

	return &Client{
		endpoint:   cfg.Endpoint,
		path:       path,
		token:      cfg.Token,
		timeout:    timeout,
		retry:      retry,
		location:   loc,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "sensor-client").Logger(),
	}
}

// retryCondition determines whether a request should be retried.
// Only retry on timeout, 5xx errors, or connection failures.
func retryCondition(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && resp.StatusCode() >= 500
}

// Logs fetches every env-log record keyed by its push key.
func (c *Client) Logs(ctx context.Context) (map[string]EnvLog, error) {
	var logs map[string]EnvLog

	req := c.httpClient.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&logs)
	if c.token != "" {
		req.SetQueryParam("auth", c.token)
	}

	resp, err := req.Get("/" + c.path + ".json")
	if err != nil {
		c.logger.Error().Err(err).Str("path", c.path).Msg("failed to fetch env logs")
		return nil, fmt.Errorf("failed to fetch env logs: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Error().
			Int("status_code", resp.StatusCode()).
			Str("body", string(resp.Body())).
			Str("path", c.path).
			Msg("sensor database returned non-200 status")
		return nil, fmt.Errorf("sensor database returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	c.logger.Debug().
		Int("record_count", len(logs)).
		Msg("env logs fetched")

	return logs, nil
}

// Latest fetches all env-log records and returns the newest as a snapshot.
func (c *Client) Latest(ctx context.Context) (*model.SensorSnapshot, error) {
	logs, err := c.Logs(ctx)
	if err != nil {
		return nil, err
	}

	key, log, ok := Newest(logs, c.location)
	if !ok {
		return nil, ErrNoData
	}

	c.logger.Debug().
		Str("key", key).
		Str("time", log.Time.String()).
		Msg("latest env log selected")

	return log.Snapshot(), nil
}

// Package api exposes the alert engine to collaborators over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"farm-alerts/internal/metrics"
	"farm-alerts/internal/model"
	"farm-alerts/internal/service"
)

const defaultShutdownTimeout = 10 * time.Second

// AlertView is the part of service.Monitor the API reads and drives.
type AlertView interface {
	Current() *service.Result
	Recompute(ctx context.Context) (*service.Result, error)
	Refresh(ctx context.Context) (*service.Result, error)
}

// PreferenceManager is the part of preference.Store the API mutates.
type PreferenceManager interface {
	Snapshot() *model.Preferences
	Update(patch model.PreferencesPatch) *model.Preferences
	MarkRead(id string) bool
	Dismiss(id string) bool
	Clear(kind model.ClearKind) error
	PersistFailing() bool
}

// Options configures a Server.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
	Metrics         *metrics.Metrics // /metrics is not served when nil
}

// Server is the HTTP API.
type Server struct {
	echo     *echo.Echo
	alerts   AlertView
	prefs    PreferenceManager
	redirect *service.RedirectResolver
	opts     Options
	logger   zerolog.Logger
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewServer creates a Server and registers its routes.
func NewServer(alerts AlertView, prefs PreferenceManager, opts Options, logger zerolog.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		alerts:   alerts,
		prefs:    prefs,
		redirect: service.NewRedirectResolver(),
		opts:     opts,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.logger.Debug()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = s.logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	s.echo.GET("/health", s.Health)
	if s.opts.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")

	v1.GET("/alerts", s.ListAlerts)
	v1.GET("/alerts/summary", s.GetSummary)
	v1.POST("/alerts/:id/read", s.MarkRead)
	v1.POST("/alerts/:id/dismiss", s.Dismiss)
	v1.GET("/alerts/:id/redirect", s.Redirect)

	v1.GET("/preferences", s.GetPreferences)
	v1.PATCH("/preferences", s.UpdatePreferences)
	v1.DELETE("/preferences/:kind", s.ClearPreferences)

	v1.POST("/refresh", s.Refresh)
	v1.GET("/health", s.Health)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("API server listening")
		errCh <- s.echo.Start(s.opts.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("shutting down API server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// handleError logs the failure and writes an ErrorResponse.
func (s *Server) handleError(c echo.Context, err error, message string, code int) error {
	resp := ErrorResponse{Message: message, Code: code}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Error = message
	}

	ev := s.logger.Debug()
	if code >= http.StatusInternalServerError {
		ev = s.logger.Error()
	}
	ev.Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Int("code", code).
		Msg(message)

	return c.JSON(code, resp)
}

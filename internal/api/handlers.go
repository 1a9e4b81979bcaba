package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"farm-alerts/internal/identity"
	"farm-alerts/internal/model"
	"farm-alerts/internal/preference"
	"farm-alerts/internal/service"
)

// AlertsResponse is the body of GET /api/v1/alerts.
type AlertsResponse struct {
	View             service.View            `json:"view"`
	Category         model.Category          `json:"category,omitempty"`
	Alerts           []model.Alert           `json:"alerts"`
	Summary          *model.AlertSummary     `json:"summary"`
	SectionsExpanded map[model.Category]bool `json:"sections_expanded"`
	ComputedAt       time.Time               `json:"computed_at"`
}

// ActionResponse is the body of the alert mutation endpoints.
type ActionResponse struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Changed bool   `json:"changed"`
}

// PreferencesResponse wraps the preferences with the persistence state.
type PreferencesResponse struct {
	Preferences    *model.Preferences `json:"preferences"`
	PersistFailing bool               `json:"persist_failing"`
}

// RefreshResponse is the body of POST /api/v1/refresh.
type RefreshResponse struct {
	Summary    *model.AlertSummary `json:"summary"`
	ComputedAt time.Time           `json:"computed_at"`
	Warning    string              `json:"warning,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string     `json:"status"`
	PersistFailing bool       `json:"persist_failing"`
	ComputedAt     *time.Time `json:"computed_at,omitempty"`
}

// current returns the last result, computing one if none exists yet.
func (s *Server) current(c echo.Context) (*service.Result, error) {
	if r := s.alerts.Current(); r != nil {
		return r, nil
	}
	return s.alerts.Recompute(c.Request().Context())
}

// ListAlerts handles GET /api/v1/alerts?view=all|unread|critical|warning&category=sensor|manual|live
func (s *Server) ListAlerts(c echo.Context) error {
	view, err := service.ParseView(c.QueryParam("view"))
	if err != nil {
		return s.handleError(c, err, "Invalid view", http.StatusBadRequest)
	}
	category := model.Category(c.QueryParam("category"))
	if category != "" && !category.IsValid() {
		return s.handleError(c, nil, fmt.Sprintf("Unknown category %q", category), http.StatusBadRequest)
	}

	result, err := s.current(c)
	if err != nil {
		return s.handleError(c, err, "Failed to compute alerts", http.StatusInternalServerError)
	}

	listed := result
	if category != "" {
		listed = &service.Result{Alerts: result.ByCategory(category)}
	}

	return c.JSON(http.StatusOK, AlertsResponse{
		View:             view,
		Category:         category,
		Alerts:           listed.Filter(view),
		Summary:          result.Summary,
		SectionsExpanded: result.SectionsExpanded,
		ComputedAt:       result.ComputedAt,
	})
}

// GetSummary handles GET /api/v1/alerts/summary
func (s *Server) GetSummary(c echo.Context) error {
	result, err := s.current(c)
	if err != nil {
		return s.handleError(c, err, "Failed to compute alerts", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, result.Summary)
}

// MarkRead handles POST /api/v1/alerts/:id/read
func (s *Server) MarkRead(c echo.Context) error {
	return s.mutateAlert(c, "read", s.prefs.MarkRead)
}

// Dismiss handles POST /api/v1/alerts/:id/dismiss
func (s *Server) Dismiss(c echo.Context) error {
	return s.mutateAlert(c, "dismiss", s.prefs.Dismiss)
}

// mutateAlert applies fn to the alert id and recomputes so the next read sees
// the change. Ids must carry a known category prefix; ids of alerts not in the
// current view are accepted. Both operations are idempotent.
func (s *Server) mutateAlert(c echo.Context, action string, fn func(string) bool) error {
	id, err := alertID(c)
	if err != nil {
		return s.handleError(c, err, "Invalid alert id", http.StatusBadRequest)
	}
	if _, ok := identity.CategoryOf(id); !ok {
		return s.handleError(c, nil, fmt.Sprintf("Alert id %q has no known category", id), http.StatusBadRequest)
	}

	changed := fn(id)
	if changed {
		if _, err := s.alerts.Recompute(c.Request().Context()); err != nil {
			return s.handleError(c, err, "Failed to recompute alerts", http.StatusInternalServerError)
		}
	}

	return c.JSON(http.StatusOK, ActionResponse{ID: id, Action: action, Changed: changed})
}

// Redirect handles GET /api/v1/alerts/:id/redirect
func (s *Server) Redirect(c echo.Context) error {
	id, err := alertID(c)
	if err != nil {
		return s.handleError(c, err, "Invalid alert id", http.StatusBadRequest)
	}

	result, err := s.current(c)
	if err != nil {
		return s.handleError(c, err, "Failed to compute alerts", http.StatusInternalServerError)
	}

	alert, ok := result.Find(id)
	if !ok {
		return s.handleError(c, nil, fmt.Sprintf("Alert %q not found", id), http.StatusNotFound)
	}

	redirect, err := s.redirect.Resolve(alert)
	if err != nil {
		return s.handleError(c, err, "Cannot resolve redirect", http.StatusUnprocessableEntity)
	}
	return c.JSON(http.StatusOK, redirect)
}

// GetPreferences handles GET /api/v1/preferences
func (s *Server) GetPreferences(c echo.Context) error {
	return c.JSON(http.StatusOK, PreferencesResponse{
		Preferences:    s.prefs.Snapshot(),
		PersistFailing: s.prefs.PersistFailing(),
	})
}

// UpdatePreferences handles PATCH /api/v1/preferences
func (s *Server) UpdatePreferences(c echo.Context) error {
	var patch model.PreferencesPatch
	if err := c.Bind(&patch); err != nil {
		return s.handleError(c, err, "Invalid preferences body", http.StatusBadRequest)
	}
	if patch.IsEmpty() {
		return s.handleError(c, nil, "Preferences patch is empty", http.StatusBadRequest)
	}
	for cat := range patch.SectionsExpanded {
		if !cat.IsValid() {
			return s.handleError(c, nil, fmt.Sprintf("Unknown section %q", cat), http.StatusBadRequest)
		}
	}

	prefs := s.prefs.Update(patch)
	if _, err := s.alerts.Recompute(c.Request().Context()); err != nil {
		return s.handleError(c, err, "Failed to recompute alerts", http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, PreferencesResponse{
		Preferences:    prefs,
		PersistFailing: s.prefs.PersistFailing(),
	})
}

// ClearPreferences handles DELETE /api/v1/preferences/:kind
func (s *Server) ClearPreferences(c echo.Context) error {
	kind, err := preference.ParseClearKind(c.Param("kind"))
	if err != nil {
		return s.handleError(c, err, "Invalid clear kind, expected dismissed or read", http.StatusBadRequest)
	}
	if err := s.prefs.Clear(kind); err != nil {
		if errors.Is(err, preference.ErrUnknownClearKind) {
			return s.handleError(c, err, "Invalid clear kind", http.StatusBadRequest)
		}
		return s.handleError(c, err, "Failed to clear preferences", http.StatusInternalServerError)
	}

	if _, err := s.alerts.Recompute(c.Request().Context()); err != nil {
		return s.handleError(c, err, "Failed to recompute alerts", http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh handles POST /api/v1/refresh. A failed sensor fetch still returns
// the recomputed view, with a warning.
func (s *Server) Refresh(c echo.Context) error {
	result, err := s.alerts.Refresh(c.Request().Context())
	if result == nil {
		return s.handleError(c, err, "Refresh failed", http.StatusInternalServerError)
	}

	resp := RefreshResponse{Summary: result.Summary, ComputedAt: result.ComputedAt}
	if err != nil {
		resp.Warning = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// Health handles GET /health and GET /api/v1/health
func (s *Server) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok", PersistFailing: s.prefs.PersistFailing()}
	if r := s.alerts.Current(); r != nil {
		at := r.ComputedAt
		resp.ComputedAt = &at
	}
	if resp.PersistFailing {
		resp.Status = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}

func alertID(c echo.Context) (string, error) {
	id, err := url.PathUnescape(c.Param("id"))
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("alert id is empty")
	}
	return id, nil
}

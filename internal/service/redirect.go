package service

import (
	"errors"
	"fmt"

	"farm-alerts/internal/model"
)

// ErrUnknownCategory is returned for alerts whose category has no route.
var ErrUnknownCategory = errors.New("unknown alert category")

// Navigation targets of the UI shell.
const (
	PathDashboard = "/dashboard"
	PathDetection = "/detection"

	liveMonitoringTab = 1
)

// RedirectResolver maps an alert to the view that explains it.
type RedirectResolver struct{}

// NewRedirectResolver creates a RedirectResolver.
func NewRedirectResolver() *RedirectResolver {
	return &RedirectResolver{}
}

// Resolve returns the navigation target for alert. Live alerts carry a state
// hint that selects the live-monitoring tab and names the triggering alert.
func (r *RedirectResolver) Resolve(alert model.Alert) (model.Redirect, error) {
	switch alert.Category {
	case model.CategorySensor:
		return model.Redirect{Path: PathDashboard}, nil
	case model.CategoryManual:
		return model.Redirect{Path: PathDetection}, nil
	case model.CategoryLive:
		return model.Redirect{
			Path: PathDetection,
			State: map[string]any{
				"tab":       liveMonitoringTab,
				"fromAlert": true,
				"alertId":   alert.ID,
			},
		}, nil
	}
	return model.Redirect{}, fmt.Errorf("%w: %q", ErrUnknownCategory, alert.Category)
}

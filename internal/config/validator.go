// Package config provides configuration management for the farm alert engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error with user-friendly message.
type ValidationError struct {
	Field   string      // Field path (e.g., "sensor.endpoint")
	Tag     string      // Validation tag that failed (e.g., "required", "url")
	Value   interface{} // Actual value that failed validation
	Message string      // User-friendly error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// validate is the package-level validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("timezone", validateTimezone)
}

// Validate validates the configuration and returns user-friendly error messages.
func Validate(cfg *Config) error {
	var validationErrors ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, &ValidationError{
					Field:   formatFieldName(fe.Namespace()),
					Tag:     fe.Tag(),
					Value:   fe.Value(),
					Message: translateError(fe),
				})
			}
		}
	}

	validationErrors = append(validationErrors, validateSensorSource(cfg)...)
	validationErrors = append(validationErrors, validateStorageQuota(cfg)...)
	validationErrors = append(validationErrors, validateIntervals(cfg)...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// validateTimezone is a custom validator for timezone strings.
func validateTimezone(fl validator.FieldLevel) bool {
	tz := fl.Field().String()
	if tz == "" {
		return true // Empty is allowed, UTC is used
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// validateSensorSource rejects configs naming both a remote and a file source.
func validateSensorSource(cfg *Config) ValidationErrors {
	if cfg.Sensor.Endpoint != "" && cfg.Sensor.File != "" {
		return ValidationErrors{{
			Field:   "sensor",
			Tag:     "exclusive",
			Value:   fmt.Sprintf("endpoint=%s, file=%s", cfg.Sensor.Endpoint, cfg.Sensor.File),
			Message: "endpoint and file are mutually exclusive",
		}}
	}
	return nil
}

// validateStorageQuota validates that the storage quota is positive.
func validateStorageQuota(cfg *Config) ValidationErrors {
	if cfg.Storage.Quota <= 0 {
		return ValidationErrors{{
			Field:   "storage.quota",
			Tag:     "gt",
			Value:   cfg.Storage.Quota,
			Message: fmt.Sprintf("quota must be greater than 0, got %d", cfg.Storage.Quota),
		}}
	}
	return nil
}

// validateIntervals checks that durations are positive and that preference
// writes settle well inside one poll cycle.
func validateIntervals(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"preferences.debounce_window", cfg.Preferences.DebounceWindow},
		{"monitor.poll_interval", cfg.Monitor.PollInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, &ValidationError{
				Field:   d.name,
				Tag:     "gt",
				Value:   d.value,
				Message: fmt.Sprintf("duration must be greater than 0, got %s", d.value),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if cfg.Preferences.DebounceWindow >= cfg.Monitor.PollInterval {
		errs = append(errs, &ValidationError{
			Field:   "preferences.debounce_window",
			Tag:     "interval_order",
			Value:   fmt.Sprintf("debounce=%s, poll=%s", cfg.Preferences.DebounceWindow, cfg.Monitor.PollInterval),
			Message: fmt.Sprintf("debounce window (%s) must be less than poll interval (%s)", cfg.Preferences.DebounceWindow, cfg.Monitor.PollInterval),
		})
	}
	return errs
}

// formatFieldName converts the validator field namespace to a user-friendly format.
// Example: "Config.Storage.ManualHistoryLimit" -> "storage.manualhistorylimit"
func formatFieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:] // Remove "Config"
	}

	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}

	return strings.Join(parts, ".")
}

// translateError converts a validator.FieldError to a user-friendly message.
func translateError(fe validator.FieldError) string {
	field := formatFieldName(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "url":
		return fmt.Sprintf("invalid URL format: %v", fe.Value())
	case "gte":
		return fmt.Sprintf("value must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	case "timezone":
		return fmt.Sprintf("invalid timezone: %v", fe.Value())
	default:
		return fmt.Sprintf("validation failed on '%s' tag for field '%s'", fe.Tag(), field)
	}
}

package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "bucket.capacity").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects all field errors found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the configuration, returning a ValidationError listing
// every failed rule, or nil when valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	switch cfg.Store.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, FieldError{"store.backend", fmt.Sprintf("must be sqlite or memory, got %q", cfg.Store.Backend)})
	}
	if cfg.Store.Backend == "sqlite" && cfg.Store.Path == "" {
		errs = append(errs, FieldError{"store.path", "required for the sqlite backend"})
	}

	if cfg.Bucket.Capacity <= 0 {
		errs = append(errs, FieldError{"bucket.capacity", fmt.Sprintf("must be positive, got %v", cfg.Bucket.Capacity)})
	}
	if cfg.Bucket.RefillRate <= 0 {
		errs = append(errs, FieldError{"bucket.refill_rate", fmt.Sprintf("must be positive, got %v", cfg.Bucket.RefillRate)})
	}

	if cfg.Quota.DailyLimit <= 0 {
		errs = append(errs, FieldError{"quota.daily_limit", fmt.Sprintf("must be positive, got %d", cfg.Quota.DailyLimit)})
	}

	switch cfg.Identity.Mode {
	case "auto", "device", "token":
	default:
		errs = append(errs, FieldError{"identity.mode", fmt.Sprintf("must be auto, device, or token, got %q", cfg.Identity.Mode)})
	}
	if cfg.Identity.Mode == "token" && cfg.Identity.TokenEnv == "" {
		errs = append(errs, FieldError{"identity.token_env", "required when identity.mode is token"})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{"retention.days", "must not be negative"})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{"retention.schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"logging.level", fmt.Sprintf("must be debug, info, warn, or error, got %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"logging.format", fmt.Sprintf("must be json or text, got %q", cfg.Logging.Format)})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limits.daily_limit").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
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

// Validate validates the entire configuration. All validation errors are
// collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateStorage("ledger", cfg.Ledger.Backend, cfg.Ledger.DBPath)...)
	errs = append(errs, validateStorage("state", cfg.State.Backend, cfg.State.DBPath)...)
	errs = append(errs, validateLimits(cfg)...)
	errs = append(errs, validateIngest(&cfg.Ingest)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)
	errs = append(errs, validateRetention(cfg)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateEngine(engine *EngineConfig) []FieldError {
	var errs []FieldError

	if _, err := time.LoadLocation(engine.Timezone); err != nil {
		errs = append(errs, FieldError{
			Field:   "engine.timezone",
			Message: fmt.Sprintf("unknown timezone %q", engine.Timezone),
		})
	}
	if _, err := cron.ParseStandard(engine.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "engine.schedule",
			Message: fmt.Sprintf("invalid cron expression %q", engine.Schedule),
		})
	}
	if engine.MilestoneIncrement < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.milestone_increment",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateStorage(section, backend, dbPath string) []FieldError {
	var errs []FieldError

	switch backend {
	case "sqlite":
		if dbPath == "" {
			errs = append(errs, FieldError{
				Field:   section + ".db_path",
				Message: "required for the sqlite backend",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   section + ".backend",
			Message: fmt.Sprintf("unknown backend %q (expected \"sqlite\" or \"memory\")", backend),
		})
	}

	return errs
}

func validateLimits(cfg *Config) []FieldError {
	var errs []FieldError
	l := cfg.Limits

	if l.DailyLimit < 0 || l.WeeklyLimit < 0 || l.MonthlyLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "limits",
			Message: "limits must not be negative",
		})
	}
	if l.WarningFraction <= 0 || l.WarningFraction > 1 {
		errs = append(errs, FieldError{
			Field:   "limits.warning_fraction",
			Message: "must be in (0, 1]",
		})
	}
	if l.CriticalFraction <= 0 || l.CriticalFraction > 1 {
		errs = append(errs, FieldError{
			Field:   "limits.critical_fraction",
			Message: "must be in (0, 1]",
		})
	}
	if l.WarningFraction > 0 && l.CriticalFraction > 0 && l.WarningFraction >= l.CriticalFraction {
		errs = append(errs, FieldError{
			Field:   "limits.warning_fraction",
			Message: "must be below critical_fraction",
		})
	}

	return errs
}

func validateIngest(ingest *IngestConfig) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(ingest.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "ingest.schedule",
			Message: fmt.Sprintf("invalid cron expression %q", ingest.Schedule),
		})
	}

	return errs
}

func validateNotify(n *NotifyConfig) []FieldError {
	var errs []FieldError

	if n.Webhook.URL != "" {
		u, err := url.Parse(n.Webhook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, FieldError{
				Field:   "notify.webhook.url",
				Message: fmt.Sprintf("invalid URL %q", n.Webhook.URL),
			})
		}
	}
	if n.Command.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "notify.command.timeout",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateRetention(cfg *Config) []FieldError {
	var errs []FieldError
	r := cfg.Retention

	if r.Schedule != "" {
		if _, err := cron.ParseStandard(r.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.schedule",
				Message: fmt.Sprintf("invalid cron expression %q", r.Schedule),
			})
		}
	}
	if r.MaxSessionsKept < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.max_sessions_kept",
			Message: "must not be negative",
		})
	}
	if r.ContextKeepMessages < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.context_keep_messages",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateMetrics(m *MetricsConfig) []FieldError {
	var errs []FieldError

	if m.Enabled && m.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "metrics.listen_address",
			Message: "required when metrics are enabled",
		})
	}

	return errs
}

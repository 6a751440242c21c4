package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies SATURN_SECTION_FIELD environment variable overrides (e.g.
// SATURN_LIMITS_DAILY_LIMIT). Environment variables take precedence over
// file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies SATURN_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Engine overrides
	if val := os.Getenv("SATURN_ENGINE_TIMEZONE"); val != "" {
		cfg.Engine.Timezone = val
	}
	if val := os.Getenv("SATURN_ENGINE_SCHEDULE"); val != "" {
		cfg.Engine.Schedule = val
	}
	if val := os.Getenv("SATURN_ENGINE_MILESTONE_INCREMENT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Engine.MilestoneIncrement = f
		}
	}

	// Storage overrides
	if val := os.Getenv("SATURN_LEDGER_BACKEND"); val != "" {
		cfg.Ledger.Backend = val
	}
	if val := os.Getenv("SATURN_LEDGER_DB_PATH"); val != "" {
		cfg.Ledger.DBPath = val
	}
	if val := os.Getenv("SATURN_STATE_BACKEND"); val != "" {
		cfg.State.Backend = val
	}
	if val := os.Getenv("SATURN_STATE_DB_PATH"); val != "" {
		cfg.State.DBPath = val
	}

	// Pricing overrides
	if val := os.Getenv("SATURN_PRICING_TABLE_PATH"); val != "" {
		cfg.Pricing.TablePath = val
	}
	if val := os.Getenv("SATURN_PRICING_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Pricing.Watch = b
		}
	}

	// Limit overrides
	if val := os.Getenv("SATURN_LIMITS_DAILY_LIMIT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Limits.DailyLimit = f
		}
	}
	if val := os.Getenv("SATURN_LIMITS_WEEKLY_LIMIT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Limits.WeeklyLimit = f
		}
	}
	if val := os.Getenv("SATURN_LIMITS_MONTHLY_LIMIT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Limits.MonthlyLimit = f
		}
	}

	// Notify overrides
	if val := os.Getenv("SATURN_NOTIFY_COMMAND"); val != "" {
		cfg.Notify.Command.Command = val
	}
	if val := os.Getenv("SATURN_NOTIFY_TARGET"); val != "" {
		cfg.Notify.Command.Target = val
	}
	if val := os.Getenv("SATURN_NOTIFY_WEBHOOK_URL"); val != "" {
		cfg.Notify.Webhook.URL = val
	}

	// Retention overrides
	if val := os.Getenv("SATURN_RETENTION_SCHEDULE"); val != "" {
		cfg.Retention.Schedule = val
	}
	if val := os.Getenv("SATURN_RETENTION_SESSION_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retention.SessionMaxAge = d
		}
	}

	// Logging overrides
	if val := os.Getenv("SATURN_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("SATURN_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Metrics overrides
	if val := os.Getenv("SATURN_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("SATURN_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}
}

package config

import (
	"time"

	"spendwatch-hq/saturn/pkg/alerting"
	"spendwatch-hq/saturn/pkg/limits"
	"spendwatch-hq/saturn/pkg/retention"
)

// Default values applied to unset fields.
const (
	DefaultEngineSchedule  = "*/5 * * * *"
	DefaultIngestSchedule  = "* * * * *"
	DefaultTimezone        = "UTC"
	DefaultLedgerBackend   = "sqlite"
	DefaultLedgerDBPath    = "data/ledger.db"
	DefaultStateBackend    = "sqlite"
	DefaultStateDBPath     = "data/state.db"
	DefaultBusyTimeout     = 5 * time.Second
	DefaultPricingPath     = "prices.yaml"
	DefaultDebounceDelay   = 500 * time.Millisecond
	DefaultListenAddress   = ":9464"
)

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.Timezone == "" {
		cfg.Engine.Timezone = DefaultTimezone
	}
	if cfg.Engine.Schedule == "" {
		cfg.Engine.Schedule = DefaultEngineSchedule
	}
	if cfg.Engine.MilestoneIncrement == 0 {
		cfg.Engine.MilestoneIncrement = alerting.DefaultMilestoneIncrement
	}

	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = DefaultLedgerBackend
	}
	if cfg.Ledger.DBPath == "" {
		cfg.Ledger.DBPath = DefaultLedgerDBPath
	}
	if cfg.Ledger.BusyTimeout == 0 {
		cfg.Ledger.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.State.Backend == "" {
		cfg.State.Backend = DefaultStateBackend
	}
	if cfg.State.DBPath == "" {
		cfg.State.DBPath = DefaultStateDBPath
	}
	if cfg.State.BusyTimeout == 0 {
		cfg.State.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Pricing.TablePath == "" {
		cfg.Pricing.TablePath = DefaultPricingPath
	}
	if cfg.Pricing.DebounceDelay == 0 {
		cfg.Pricing.DebounceDelay = DefaultDebounceDelay
	}

	if cfg.Limits == (limits.Config{}) {
		cfg.Limits = limits.DefaultConfig()
	}
	if cfg.Limits.WarningFraction == 0 {
		cfg.Limits.WarningFraction = limits.DefaultWarningFraction
	}
	if cfg.Limits.CriticalFraction == 0 {
		cfg.Limits.CriticalFraction = limits.DefaultCriticalFraction
	}

	if cfg.Ingest.Schedule == "" {
		cfg.Ingest.Schedule = DefaultIngestSchedule
	}

	defaults := retention.DefaultPolicy()
	if cfg.Retention.SessionMaxAge == 0 {
		cfg.Retention.SessionMaxAge = defaults.SessionMaxAge
	}
	if cfg.Retention.MaxSessionsKept == 0 {
		cfg.Retention.MaxSessionsKept = defaults.MaxSessionsKept
	}
	if cfg.Retention.ContextKeepMessages == 0 {
		cfg.Retention.ContextKeepMessages = defaults.ContextKeepMessages
	}
	if cfg.Retention.AuditLogMaxAge == 0 {
		cfg.Retention.AuditLogMaxAge = defaults.AuditLogMaxAge
	}
	if cfg.Retention.MemoryMaxAge == 0 {
		cfg.Retention.MemoryMaxAge = defaults.MemoryMaxAge
	}
	if cfg.Retention.LedgerMaxAge == 0 {
		cfg.Retention.LedgerMaxAge = defaults.LedgerMaxAge
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = defaults.Schedule
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultListenAddress
	}
}

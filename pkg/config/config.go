package config

import (
	"time"

	"spendwatch-hq/saturn/pkg/limits"
	"spendwatch-hq/saturn/pkg/notify"
	"spendwatch-hq/saturn/pkg/retention"
	"spendwatch-hq/saturn/pkg/telemetry/logging"
)

// Config is the root configuration for the saturn daemon.
type Config struct {
	// Engine configures evaluation passes.
	Engine EngineConfig `yaml:"engine"`

	// Ledger configures usage event storage.
	Ledger LedgerConfig `yaml:"ledger"`

	// State configures governance state storage.
	State StateConfig `yaml:"state"`

	// Pricing configures the model price table.
	Pricing PricingConfig `yaml:"pricing"`

	// Limits is the initial limit configuration. Once the state store holds
	// a snapshot, the persisted limits win; this section only seeds a fresh
	// store.
	Limits limits.Config `yaml:"limits"`

	// Ingest configures session log ingestion.
	Ingest IngestConfig `yaml:"ingest"`

	// Notify configures alert delivery.
	Notify NotifyConfig `yaml:"notify"`

	// Retention configures the pruning policy.
	Retention retention.Policy `yaml:"retention"`

	// Logging configures the structured logger.
	Logging logging.Config `yaml:"logging"`

	// Metrics configures the observability endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig configures evaluation passes.
type EngineConfig struct {
	// Timezone is the reference timezone for period boundaries, as an IANA
	// name. Default: "UTC".
	Timezone string `yaml:"timezone"`

	// Schedule is the cron expression for evaluation passes.
	// Default: every 5 minutes.
	Schedule string `yaml:"schedule"`

	// MilestoneIncrement is the cumulative spend step between milestone
	// alerts in USD.
	MilestoneIncrement float64 `yaml:"milestone_increment"`
}

// LedgerConfig configures usage event storage.
type LedgerConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// DBPath is the SQLite database file for the sqlite backend.
	DBPath string `yaml:"db_path"`

	// BusyTimeout is how long to wait for SQLite locks.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// StateConfig configures governance state storage.
type StateConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// DBPath is the SQLite database file for the sqlite backend.
	DBPath string `yaml:"db_path"`

	// BusyTimeout is how long to wait for SQLite locks.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// PricingConfig configures the model price table.
type PricingConfig struct {
	// TablePath is the YAML price table file.
	TablePath string `yaml:"table_path"`

	// Watch reloads the table when the file changes.
	Watch bool `yaml:"watch"`

	// DebounceDelay coalesces bursts of file events before reloading.
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// IngestConfig configures session log ingestion.
type IngestConfig struct {
	// Globs are the session log patterns to ingest, e.g.
	// "~/.openclaw/agents/main/sessions/*.jsonl".
	Globs []string `yaml:"globs"`

	// Schedule is the cron expression for ingest passes. Default: every
	// minute.
	Schedule string `yaml:"schedule"`
}

// NotifyConfig configures alert delivery.
type NotifyConfig struct {
	// Command configures delivery through an external command. An empty
	// command disables it.
	Command notify.CommandConfig `yaml:"command"`

	// Webhook configures delivery through an HTTP endpoint. An empty URL
	// disables it.
	Webhook notify.WebhookConfig `yaml:"webhook"`
}

// MetricsConfig configures the observability endpoint.
type MetricsConfig struct {
	// Enabled turns the HTTP listener on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for /metrics and /healthz.
	ListenAddress string `yaml:"listen_address"`
}

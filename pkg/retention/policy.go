package retention

import "time"

// Default retention settings.
const (
	DefaultSessionMaxAge       = 30 * 24 * time.Hour
	DefaultMaxSessionsKept     = 10
	DefaultContextKeepMessages = 50
	DefaultAuditLogMaxAge      = 7 * 24 * time.Hour
	DefaultMemoryMaxAge        = 30 * 24 * time.Hour
	DefaultLedgerMaxAge        = 90 * 24 * time.Hour
)

// Policy configures what the pruner removes.
type Policy struct {
	// SessionDir holds per-session JSONL logs.
	SessionDir string `yaml:"session_dir"`

	// SessionMaxAge expires session logs not modified for this long.
	SessionMaxAge time.Duration `yaml:"session_max_age"`

	// MaxSessionsKept caps how many session logs survive, newest first.
	MaxSessionsKept int `yaml:"max_sessions_kept"`

	// ContextKeepMessages truncates surviving session logs to the first
	// line (session metadata) plus this many trailing messages.
	ContextKeepMessages int `yaml:"context_keep_messages"`

	// AuditLogDir holds audit JSONL logs.
	AuditLogDir string `yaml:"audit_log_dir"`

	// AuditLogMaxAge expires audit logs not modified for this long.
	AuditLogMaxAge time.Duration `yaml:"audit_log_max_age"`

	// MemoryDir holds daily memory notes (YYYY-MM-DD.md files).
	MemoryDir string `yaml:"memory_dir"`

	// MemoryMaxAge consolidates daily memory files older than this.
	MemoryMaxAge time.Duration `yaml:"memory_max_age"`

	// MemoryArchivePath, when set, receives the content of consolidated
	// memory files. Empty means expired files are dropped.
	MemoryArchivePath string `yaml:"memory_archive_path"`

	// LedgerMaxAge prunes usage events past this horizon. The milestone
	// tracker's persisted marker keeps cumulative alerts from replaying.
	LedgerMaxAge time.Duration `yaml:"ledger_max_age"`

	// LockPath is the lock file taken for the duration of a pass.
	LockPath string `yaml:"lock_path"`

	// Schedule is the cron expression for automatic passes. Empty disables
	// the scheduler.
	Schedule string `yaml:"schedule"`
}

// DefaultPolicy returns the default retention policy. Directory paths are
// left empty; steps without a configured directory are skipped.
func DefaultPolicy() Policy {
	return Policy{
		SessionMaxAge:       DefaultSessionMaxAge,
		MaxSessionsKept:     DefaultMaxSessionsKept,
		ContextKeepMessages: DefaultContextKeepMessages,
		AuditLogMaxAge:      DefaultAuditLogMaxAge,
		MemoryMaxAge:        DefaultMemoryMaxAge,
		LedgerMaxAge:        DefaultLedgerMaxAge,
		Schedule:            "0 3 * * *",
	}
}

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"spendwatch-hq/saturn/pkg/periods"
)

// SQLiteStore implements Store using SQLite for durable usage history.
//
// The store uses a write-ahead log (WAL) for better concurrent performance
// and keeps a single writer connection, which is all SQLite supports anyway.
// Timestamps are stored as UTC nanoseconds so window queries are simple
// integer comparisons.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	mu        sync.RWMutex
	closeOnce sync.Once

	appendStmt *sql.Stmt
	sliceStmt  *sql.Stmt
	allStmt    *sql.Stmt
	pruneStmt  *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite ledger store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite ledger store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a new SQLite ledger store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_events (
		id TEXT PRIMARY KEY,
		timestamp_ns INTEGER NOT NULL,
		model TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		cache_read_tokens INTEGER NOT NULL DEFAULT 0,
		cache_write_tokens INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_events(timestamp_ns);
	CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_events(model);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	// OR IGNORE makes appends idempotent per event ID, so re-ingesting a
	// session log cannot double-count.
	s.appendStmt, err = s.db.Prepare(`
		INSERT OR IGNORE INTO usage_events (id, timestamp_ns, model, input_tokens, output_tokens, cache_read_tokens, cache_write_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	s.sliceStmt, err = s.db.Prepare(`
		SELECT id, timestamp_ns, model, input_tokens, output_tokens, cache_read_tokens, cache_write_tokens
		FROM usage_events
		WHERE timestamp_ns >= ? AND timestamp_ns < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare slice statement: %w", err)
	}

	s.allStmt, err = s.db.Prepare(`
		SELECT id, timestamp_ns, model, input_tokens, output_tokens, cache_read_tokens, cache_write_tokens
		FROM usage_events
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare all statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM usage_events WHERE timestamp_ns < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Append adds one event to the ledger.
func (s *SQLiteStore) Append(ctx context.Context, event UsageEvent) error {
	if event.ID == "" {
		return fmt.Errorf("event id cannot be empty")
	}
	if event.Model == "" {
		return fmt.Errorf("event model cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.appendStmt.ExecContext(ctx,
		event.ID,
		event.Timestamp.UTC().UnixNano(),
		event.Model,
		int64(event.InputTokens),
		int64(event.OutputTokens),
		int64(event.CacheReadTokens),
		int64(event.CacheWriteTokens),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Slice returns all events whose timestamp falls within the window.
func (s *SQLiteStore) Slice(ctx context.Context, window periods.Window) ([]UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.sliceStmt.QueryContext(ctx, window.Start.UTC().UnixNano(), window.End.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query window: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// All returns every event in the ledger.
func (s *SQLiteStore) All(ctx context.Context) ([]UsageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.allStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// PruneBefore removes events older than the cutoff.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.pruneStmt.ExecContext(ctx, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}

// Close releases resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		if s.appendStmt != nil {
			s.appendStmt.Close()
		}
		if s.sliceStmt != nil {
			s.sliceStmt.Close()
		}
		if s.allStmt != nil {
			s.allStmt.Close()
		}
		if s.pruneStmt != nil {
			s.pruneStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

func scanEvents(rows *sql.Rows) ([]UsageEvent, error) {
	var events []UsageEvent
	for rows.Next() {
		var (
			ev          UsageEvent
			timestampNS int64
			inTok       int64
			outTok      int64
			cacheRead   int64
			cacheWrite  int64
		)
		if err := rows.Scan(&ev.ID, &timestampNS, &ev.Model, &inTok, &outTok, &cacheRead, &cacheWrite); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ev.Timestamp = time.Unix(0, timestampNS).UTC()
		ev.InputTokens = uint64(inTok)
		ev.OutputTokens = uint64(outTok)
		ev.CacheReadTokens = uint64(cacheRead)
		ev.CacheWriteTokens = uint64(cacheWrite)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return events, nil
}

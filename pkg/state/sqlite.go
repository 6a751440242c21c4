package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteConfig contains configuration for the SQLite state backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/state.db",
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStore implements Store using SQLite. The snapshot lives in a single
// versioned row; the version check and bump happen inside one transaction,
// which gives compare-and-set semantics across processes sharing the file.
type SQLiteStore struct {
	db        *sql.DB
	config    *SQLiteConfig
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteStore creates a new SQLite state store.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, NewPersistenceError("sqlite", "open", errors.New("path cannot be empty"))
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "state.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, NewPersistenceError("sqlite", "open", err)
	}

	// Single connection keeps transactions serialized; SQLite only supports
	// one writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite state store initialized", "path", config.Path)
	return s, nil
}

// initialize enables WAL mode and creates the schema.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return NewPersistenceError("sqlite", "enable_wal", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewPersistenceError("sqlite", "set_busy_timeout", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS engine_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		payload TEXT NOT NULL,
		updated_at_ns INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return NewPersistenceError("sqlite", "create_schema", err)
	}
	return nil
}

// Load returns the current snapshot, or a fresh default snapshot at version
// 0 if nothing was ever saved.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var (
		version int64
		payload string
	)
	err := s.db.QueryRowContext(ctx, "SELECT version, payload FROM engine_state WHERE id = 1").
		Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return NewSnapshot(), nil
	}
	if err != nil {
		return Snapshot{}, NewPersistenceError("sqlite", "load", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return Snapshot{}, NewPersistenceError("sqlite", "decode", err)
	}
	snap.Version = version
	return snap, nil
}

// Save persists the snapshot if the stored version still matches.
func (s *SQLiteStore) Save(ctx context.Context, snapshot Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewPersistenceError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, "SELECT version FROM engine_state WHERE id = 1").Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NewPersistenceError("sqlite", "save", err)
	}

	if current != snapshot.Version {
		return &ConflictError{Expected: snapshot.Version, Found: current}
	}

	snapshot.Version = current + 1
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return NewPersistenceError("sqlite", "encode", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO engine_state (id, version, payload, updated_at_ns)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at_ns = excluded.updated_at_ns
	`, snapshot.Version, string(payload), time.Now().UnixNano())
	if err != nil {
		return NewPersistenceError("sqlite", "save", err)
	}

	if err := tx.Commit(); err != nil {
		return NewPersistenceError("sqlite", "commit", err)
	}

	s.logger.Debug("State saved", "version", snapshot.Version)
	return nil
}

// Close releases the database connection.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		closeErr = s.db.Close()
	})
	return closeErr
}

package decisionlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// schema contains the SQL statements to create the decision log schema.
const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    eval_time TIMESTAMP NOT NULL,
    query TEXT NOT NULL,
    defined BOOLEAN NOT NULL,
    value TEXT,
    error TEXT,
    duration_us INTEGER NOT NULL,
    policy_version TEXT
);

CREATE INDEX IF NOT EXISTS idx_decisions_eval_time ON decisions(eval_time);
CREATE INDEX IF NOT EXISTS idx_decisions_query ON decisions(query);
`

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/decisions.db",
		BusyTimeout: 5 * time.Second,
		WALMode:     true,
	}
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a SQLite storage backend, initializing the
// schema on first use.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Operation: "open", Cause: err}
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "decisionlog.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("decision log storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// initialize sets pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return &StorageError{Backend: "sqlite", Operation: "enable_wal", Cause: err}
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return &StorageError{Backend: "sqlite", Operation: "set_busy_timeout", Cause: err}
	}

	if _, err := s.db.Exec(schema); err != nil {
		return &StorageError{Backend: "sqlite", Operation: "create_schema", Cause: err}
	}
	return nil
}

// Store persists one record.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, eval_time, query, defined, value, error, duration_us, policy_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Time.UTC(),
		record.Query,
		record.Defined,
		record.Value,
		record.Error,
		record.Duration.Microseconds(),
		record.PolicyVersion,
	)
	if err != nil {
		return &StorageError{Backend: "sqlite", Operation: "store", Cause: err}
	}
	return nil
}

// Query returns records matching the filter, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, filter *Filter) ([]*Record, error) {
	if filter == nil {
		filter = &Filter{}
	}

	var conditions []string
	var args []any

	if !filter.Since.IsZero() {
		conditions = append(conditions, "eval_time >= ?")
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, "eval_time < ?")
		args = append(args, filter.Until.UTC())
	}

	query := "SELECT id, eval_time, query, defined, value, error, duration_us, policy_version FROM decisions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY eval_time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Operation: "query", Cause: err}
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var record Record
		var durationUs int64
		if err := rows.Scan(
			&record.ID,
			&record.Time,
			&record.Query,
			&record.Defined,
			&record.Value,
			&record.Error,
			&durationUs,
			&record.PolicyVersion,
		); err != nil {
			return nil, &StorageError{Backend: "sqlite", Operation: "scan", Cause: err}
		}
		record.Duration = time.Duration(durationUs) * time.Microsecond
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Backend: "sqlite", Operation: "query", Cause: err}
	}
	return records, nil
}

// Count returns the total number of records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decisions").Scan(&count)
	if err != nil {
		return 0, &StorageError{Backend: "sqlite", Operation: "count", Cause: err}
	}
	return count, nil
}

// DeleteBefore removes records older than cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM decisions WHERE eval_time < ?", cutoff.UTC())
	if err != nil {
		return 0, &StorageError{Backend: "sqlite", Operation: "delete_before", Cause: err}
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Backend: "sqlite", Operation: "rows_affected", Cause: err}
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return &StorageError{Backend: "sqlite", Operation: "close", Cause: err}
	}
	return nil
}

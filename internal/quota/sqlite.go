package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

var _ autotask.QuotaStore = (*SQLiteStore)(nil)

const createCountersTable = `
CREATE TABLE IF NOT EXISTS autotask_quota (
	key        TEXT PRIMARY KEY,
	count      INTEGER NOT NULL DEFAULT 0,
	expires_at INTEGER NOT NULL
)`

// SQLiteStore persists counters in a SQLite database so that several
// processes on one host share usage. Use ":memory:" for a private database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening quota database: %w", err)
	}

	// An in-memory database is per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(createCountersTable)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating quota table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Increment adds one to the counter for key, starting over once it expired.
func (s *SQLiteStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning quota transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()

	var (
		count     int64
		expiresAt int64
	)

	err = tx.QueryRowContext(ctx,
		`SELECT count, expires_at FROM autotask_quota WHERE key = ?`, key,
	).Scan(&count, &expiresAt)

	switch {
	case errors.Is(err, sql.ErrNoRows) || (err == nil && expiresAt <= now.UnixMilli()):
		count = 1
		expiresAt = now.Add(ttl).UnixMilli()
	case err != nil:
		return 0, fmt.Errorf("reading quota counter: %w", err)
	default:
		count++
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO autotask_quota (key, count, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET count = excluded.count, expires_at = excluded.expires_at`,
		key, count, expiresAt,
	)
	if err != nil {
		return 0, fmt.Errorf("writing quota counter: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("committing quota counter: %w", err)
	}

	return count, nil
}

// Get returns the counter for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (int64, error) {
	var count int64

	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM autotask_quota WHERE key = ? AND expires_at > ?`, key, s.now().UnixMilli(),
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading quota counter: %w", err)
	}

	return count, nil
}

// Set overwrites the counter for key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO autotask_quota (key, count, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET count = excluded.count, expires_at = excluded.expires_at`,
		key, value, s.now().Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing quota counter: %w", err)
	}

	return nil
}

// Purge removes expired counters.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM autotask_quota WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging quota counters: %w", err)
	}

	return result.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

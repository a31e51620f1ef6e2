package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/gitpeek/internal/storage"
)

// sqliteStore implements the Store interface for SQLite
type sqliteStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// NewSQLiteStore creates a new SQLite store backed by table in the database at dbPath
func NewSQLiteStore(dbPath, table string, opts ...storage.Option) (storage.Store, error) {
	if err := storage.ValidateTable(table); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStore{db: db, table: table, now: storage.ApplyOptions(opts...).Now}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStore) Migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_expires_at ON %[1]s(expires_at);
	`, s.table)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.table, err)
	}
	return nil
}

// Get returns the live value stored under key
func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`
		SELECT value FROM %s
		WHERE key = ? AND (expires_at = 0 OR expires_at > ?)
	`, s.table)

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key, s.now().UnixMilli()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key
func (s *sqliteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query, key, value, storage.ExpiresAt(s.now(), ttl)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// ClearExpired removes expired entries
func (s *sqliteStore) ClearExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at != 0 AND expires_at <= ?`, s.table)
	result, err := s.db.ExecContext(ctx, query, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired entries from %s: %w", s.table, err)
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/atenas/admin-console/internal/core/ports"
)

const createSessionEntries = `
CREATE TABLE IF NOT EXISTS session_entries (
  namespace TEXT NOT NULL,
  key       TEXT NOT NULL,
  value     TEXT NOT NULL,
  PRIMARY KEY (namespace, key)
);`

// SQLite is a SessionStorage kept in a SQLite file, so a remembered session
// survives a restart. Keys are scoped by namespace.
type SQLite struct {
	db        *sql.DB
	namespace string
}

var _ ports.SessionStorage = (*SQLite)(nil)

// OpenSQLite opens, creating when needed, the session database at path.
func OpenSQLite(ctx context.Context, path, namespace string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createSessionEntries); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &SQLite{db: db, namespace: namespace}, nil
}

// DefaultSQLitePath is session.db under the user's config directory.
func DefaultSQLitePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "atenas", "session.db"), nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_entries WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session[%s]: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_entries (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value
	`, s.namespace, key, value)
	if err != nil {
		return fmt.Errorf("set session[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	)
	if err != nil {
		return fmt.Errorf("remove session[%s]: %w", key, err)
	}
	return nil
}

// Ping checks the database file is still usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

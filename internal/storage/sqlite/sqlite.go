package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rossyflor/pos-admin/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_storage (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	PRIMARY KEY (namespace, key)
);`

// SQLiteStorage is a file-backed storage.Store for single-host deployments.
type SQLiteStorage struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*SQLiteStorage, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return "", false, storage.ErrEmptyNamespace
	}

	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM client_storage WHERE namespace = ? AND key = ?`, namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, namespace, key, value string) error {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_storage (namespace, key, value, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, namespace, key string) error {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM client_storage WHERE namespace = ? AND key = ?`, namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

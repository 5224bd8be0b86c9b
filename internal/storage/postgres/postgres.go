package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rossyflor/pos-admin/internal/storage"
)

// PostgresStorage is a storage.Store backed by the client_storage table
// (created by the goose migrations in /migrations).
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool}, nil
}

func (p *PostgresStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return "", false, storage.ErrEmptyNamespace
	}

	query := `
		SELECT value
		FROM client_storage
		WHERE namespace = $1 AND key = $2
	`

	var value string
	err := p.pool.QueryRow(ctx, query, namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

func (p *PostgresStorage) Set(ctx context.Context, namespace, key, value string) error {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}

	query := `
		INSERT INTO client_storage (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := p.pool.Exec(ctx, query, namespace, key, value); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (p *PostgresStorage) Delete(ctx context.Context, namespace, key string) error {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}

	query := `DELETE FROM client_storage WHERE namespace = $1 AND key = $2`

	if _, err := p.pool.Exec(ctx, query, namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

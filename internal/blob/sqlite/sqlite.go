// Package sqlite implements blob.Store on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Fau-Caudullo/happyapp/internal/blob"
	"github.com/Fau-Caudullo/happyapp/internal/platform/sqlitedb"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	k          TEXT PRIMARY KEY,
	v          BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*sql.DB, error) { return sqlitedb.Open(path) }

// Store is a blob.Store backed by a single kv table.
type Store struct{ db *sql.DB }

// New creates the kv table if needed and returns the store.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Store{db: db}, nil
}

var _ blob.Store = (*Store)(nil)
var _ blob.Batcher = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, upsert, key, value)
	return err
}

const upsert = `INSERT INTO kv (k, v, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`

// SetMany writes all values in one transaction.
func (s *Store) SetMany(ctx context.Context, values map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, upsert, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
	return err
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	// substr comparison avoids LIKE wildcards in prefixes containing '_'
	rows, err := s.db.QueryContext(ctx,
		`SELECT k FROM kv WHERE substr(k, 1, length(?1)) = ?1 ORDER BY k`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

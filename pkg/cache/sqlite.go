package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore is a file-backed Store for single-node deployments without
// a Redis. Entries carry an expires column and are collected lazily.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file at path and
// prepares the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single-writer workload; WAL keeps lookups readable during writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(
		"CREATE TABLE IF NOT EXISTS edge_cache (key TEXT PRIMARY KEY, expires INTEGER, entry BLOB)",
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(
		"CREATE INDEX IF NOT EXISTS edge_cache_expires_idx ON edge_cache (expires)",
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Lookup returns the entry stored under key, or ErrMiss when absent or
// expired. Expired rows are removed on the way.
func (s *SQLiteStore) Lookup(ctx context.Context, key Key) (*Entry, error) {
	k := key.String()

	var expires int64
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT expires, entry FROM edge_cache WHERE key = ?", k,
	).Scan(&expires, &data)
	if err == sql.ErrNoRows {
		Misses.Inc()
		return nil, ErrMiss
	}
	if err != nil {
		Errors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("sqlite select: %w", err)
	}

	if time.Now().After(time.Unix(expires, 0)) {
		_, _ = s.Delete(ctx, key)
		Misses.Inc()
		return nil, ErrMiss
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		Errors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	Hits.WithLabelValues("sqlite").Inc()
	return &entry, nil
}

// Put stores an entry with the given lifetime.
func (s *SQLiteStore) Put(ctx context.Context, key Key, entry *Entry, ttl time.Duration) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	expires := time.Now().Add(ttl).Unix()
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO edge_cache (key, expires, entry) VALUES (?, ?, ?)",
		key.String(), expires, data,
	); err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("sqlite insert: %w", err)
	}

	StoredBytes.WithLabelValues("sqlite").Add(float64(len(data)))
	return nil
}

// Delete removes an entry and reports whether one was present.
func (s *SQLiteStore) Delete(ctx context.Context, key Key) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM edge_cache WHERE key = ?", key.String())
	if err != nil {
		Errors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("sqlite delete: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite rows affected: %w", err)
	}
	return removed > 0, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

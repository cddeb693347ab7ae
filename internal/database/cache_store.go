package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pdgupta/website/internal/cache"
)

// CacheStore is a cache.Store backed by the cache_entries table.
type CacheStore struct {
	db *DB
}

func NewCacheStore(db *DB) *CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) Get(ctx context.Context, key string) (*cache.Entry, error) {
	var e cache.Entry
	err := s.db.GetContext(ctx, &e, `SELECT key, body, fetched_at FROM cache_entries WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return &e, nil
}

func (s *CacheStore) Set(ctx context.Context, e *cache.Entry) error {
	// Timestamps are stored in UTC so Purge can compare them as text.
	row := *e
	row.FetchedAt = row.FetchedAt.UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO cache_entries (key, body, fetched_at)
		VALUES (:key, :body, :fetched_at)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at
	`, row)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries fetched before cutoff.
func (s *CacheStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	return res.RowsAffected()
}

// PurgeOlderThan deletes entries older than the given number of days.
func (s *CacheStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	return s.Purge(ctx, time.Now().AddDate(0, 0, -days))
}

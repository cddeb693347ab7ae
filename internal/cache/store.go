// Package cache implements the revalidation layer in front of outbound
// WordPress requests: entries are keyed by request URL and served
// stale-while-revalidate once their window has elapsed.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by a Store when no entry exists for a key.
var ErrMiss = errors.New("cache: miss")

// Entry is a cached response body.
type Entry struct {
	Key       string    `db:"key"`
	Body      []byte    `db:"body"`
	FetchedAt time.Time `db:"fetched_at"`
}

// Fresh reports whether the entry is younger than window at now.
func (e *Entry) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(e.FetchedAt) < window
}

// Store persists cache entries.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, entry *Entry) error
	// Purge removes entries fetched before cutoff and returns how many
	// were removed.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return &e, nil
}

func (m *MemoryStore) Set(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entry.Key] = *entry
	return nil
}

func (m *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k, e := range m.entries {
		if e.FetchedAt.Before(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

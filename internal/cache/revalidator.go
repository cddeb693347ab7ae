package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"pdgupta/website/internal/metrics"
)

// LoadFunc fetches the current body for a key.
type LoadFunc func(ctx context.Context) ([]byte, error)

// Revalidator serves bodies from a Store under a revalidation window.
//
// A fresh entry is returned as is. A stale entry is returned immediately
// while a single background load refreshes it. A missing entry is loaded
// synchronously. Concurrent loads for the same key are collapsed and load
// errors are never stored, so a stale entry survives a failed refresh.
type Revalidator struct {
	store  Store
	group  singleflight.Group
	logger zerolog.Logger
	now    func() time.Time

	// background refreshes in flight, used by tests to wait
	inflight chan struct{}
}

// NewRevalidator creates a Revalidator over store.
func NewRevalidator(store Store, logger zerolog.Logger) *Revalidator {
	return &Revalidator{
		store:  store,
		logger: logger.With().Str("component", "revalidator").Logger(),
		now:    time.Now,
	}
}

// Get returns the body for key. With window <= 0 every call loads and
// nothing is stored.
func (r *Revalidator) Get(ctx context.Context, key string, window time.Duration, load LoadFunc) ([]byte, error) {
	if window <= 0 {
		metrics.CacheRequests.WithLabelValues("bypass").Inc()
		return load(ctx)
	}

	entry, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		if entry.Fresh(r.now(), window) {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return entry.Body, nil
		}
		metrics.CacheRequests.WithLabelValues("stale").Inc()
		r.refresh(ctx, key, load)
		return entry.Body, nil
	case errors.Is(err, ErrMiss):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	default:
		// A broken store degrades to uncached loads.
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		metrics.CacheRequests.WithLabelValues("error").Inc()
	}

	// The shared load must not fail for every waiter when the caller
	// that started it goes away.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.loadAndStore(shared, key, load)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh reloads key in the background. The request context only
// contributes its values; the refresh outlives the request.
func (r *Revalidator) refresh(ctx context.Context, key string, load LoadFunc) {
	bg := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.loadAndStore(bg, key, load)
	})
	go func() {
		res := <-ch
		if res.Err != nil {
			r.logger.Warn().Err(res.Err).Str("key", key).Msg("Background revalidation failed, keeping stale entry")
		}
		if r.inflight != nil {
			r.inflight <- struct{}{}
		}
	}()
}

func (r *Revalidator) loadAndStore(ctx context.Context, key string, load LoadFunc) ([]byte, error) {
	body, err := load(ctx)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Key: key, Body: body, FetchedAt: r.now()}
	if err := r.store.Set(ctx, entry); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return body, nil
}

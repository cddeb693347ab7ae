package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PurgeLoop removes entries older than maxAge from store immediately and
// then every interval until ctx is done.
func PurgeLoop(ctx context.Context, store Store, maxAge, interval time.Duration, logger zerolog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		n, err := store.Purge(ctx, time.Now().Add(-maxAge))
		if err != nil {
			logger.Error().Err(err).Msg("Failed to purge old cache entries")
		} else if n > 0 {
			logger.Info().Int64("purged_count", n).Msg("Purged old cache entries")
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

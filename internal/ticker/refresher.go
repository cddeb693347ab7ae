package ticker

import (
	"context"
	"time"

	"pdgupta/website/internal/models"
)

// RefreshInterval is how often the widget reloads its items.
const RefreshInterval = 60 * time.Second

// Feed loads the current ticker items.
type Feed interface {
	Latest(ctx context.Context) ([]models.TickerItem, error)
}

// Refresher reloads a Feed immediately and then on every interval until
// its context is cancelled.
type Refresher struct {
	feed     Feed
	interval time.Duration
}

func NewRefresher(feed Feed, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = RefreshInterval
	}
	return &Refresher{feed: feed, interval: interval}
}

// Run blocks until ctx is done. begin is called before each load and done
// with its result; both run on the Run goroutine.
func (r *Refresher) Run(ctx context.Context, begin func(), done func([]models.TickerItem, error)) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		begin()
		items, err := r.feed.Latest(ctx)
		if ctx.Err() != nil {
			return
		}
		done(items, err)

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

package ticker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"pdgupta/website/internal/models"
)

// LatestPath is the JSON endpoint serving ticker items.
const LatestPath = "/api/latest-updates"

// FeedClient reads ticker items from a running website.
type FeedClient struct {
	http *resty.Client
	url  string
}

// NewFeedClient creates a client for the site at baseURL.
func NewFeedClient(baseURL string, timeout time.Duration) *FeedClient {
	rc := resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-store")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &FeedClient{
		http: rc,
		url:  strings.TrimRight(baseURL, "/") + LatestPath,
	}
}

func (c *FeedClient) Latest(ctx context.Context) ([]models.TickerItem, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s returned status %d", c.url, resp.StatusCode())
	}

	var items []models.TickerItem
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.url, err)
	}
	return items, nil
}

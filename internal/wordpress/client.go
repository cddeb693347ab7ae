// Package wordpress reads posts from the public WordPress REST API of the
// monitored sources. Only the three read endpoints the site mirrors are
// supported; there is no authentication and no pagination beyond the
// requested page size.
package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"pdgupta/website/internal/cache"
	"pdgupta/website/internal/metrics"
	"pdgupta/website/internal/models"
)

const postsPath = "/wp-json/wp/v2/posts"

// ErrNotFound is returned when a source has no post for a slug or ID.
var ErrNotFound = errors.New("wordpress: post not found")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wordpress: %s returned status %d body: %s", e.URL, e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request. Zero keeps the transport default.
	Timeout   time.Duration
	UserAgent string
	// Window is the revalidation window applied to responses. Zero
	// disables caching.
	Window time.Duration
	Cache  *cache.Revalidator
	Logger zerolog.Logger
}

// Client fetches posts from any configured source.
type Client struct {
	http   *resty.Client
	cache  *cache.Revalidator
	window time.Duration
	logger zerolog.Logger
}

// NewClient creates a Client with its own resty client.
func NewClient(opts Options) *Client {
	rc := resty.New().
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	return NewClientWithResty(rc, opts)
}

// NewClientWithResty creates a Client over an existing resty client.
func NewClientWithResty(rc *resty.Client, opts Options) *Client {
	return &Client{
		http:   rc,
		cache:  opts.Cache,
		window: opts.Window,
		logger: opts.Logger.With().Str("component", "wordpress").Logger(),
	}
}

// WithWindow returns a copy of c that uses a different revalidation window.
func (c *Client) WithWindow(window time.Duration) *Client {
	cp := *c
	cp.window = window
	return &cp
}

// ListURL is the endpoint for the newest perPage posts of src.
func ListURL(src models.Source, perPage int) string {
	return fmt.Sprintf("%s%s?_embed&per_page=%d&orderby=date&order=desc", src.BaseURL, postsPath, perPage)
}

// SlugURL is the endpoint that looks a post up by slug.
func SlugURL(src models.Source, slug string) string {
	return fmt.Sprintf("%s%s?slug=%s&_embed", src.BaseURL, postsPath, url.QueryEscape(slug))
}

// IDURL is the endpoint for a single post by numeric ID.
func IDURL(src models.Source, id int64) string {
	return fmt.Sprintf("%s%s/%d?_embed", src.BaseURL, postsPath, id)
}

// Posts returns the newest perPage posts of src.
func (c *Client) Posts(ctx context.Context, src models.Source, perPage int) ([]models.WPPost, error) {
	body, err := c.get(ctx, src, ListURL(src, perPage), nil)
	if err != nil {
		return nil, err
	}

	var posts []models.WPPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("decode posts from %s: %w", src, err)
	}
	return posts, nil
}

// PostBySlug returns the post of src with the given slug.
func (c *Client) PostBySlug(ctx context.Context, src models.Source, slug string) (*models.WPPost, error) {
	body, err := c.get(ctx, src, SlugURL(src, slug), requireMatch)
	if err != nil {
		return nil, err
	}

	var posts []models.WPPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("decode slug lookup from %s: %w", src, err)
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return &posts[0], nil
}

// PostByID returns the post of src with the given ID.
func (c *Client) PostByID(ctx context.Context, src models.Source, id int64) (*models.WPPost, error) {
	body, err := c.get(ctx, src, IDURL(src, id), nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusGone) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var post models.WPPost
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("decode post %d from %s: %w", id, src, err)
	}
	if post.Slug == "" {
		return nil, ErrNotFound
	}
	return &post, nil
}

// requireMatch turns an empty slug lookup into ErrNotFound, which keeps
// unknown slugs out of the cache.
func requireMatch(body []byte) error {
	var posts []json.RawMessage
	if err := json.Unmarshal(body, &posts); err != nil {
		return fmt.Errorf("decode slug lookup: %w", err)
	}
	if len(posts) == 0 {
		return ErrNotFound
	}
	return nil
}

// get fetches endpoint through the revalidation cache. Only 2xx bodies that
// pass check (when set) are cached.
func (c *Client) get(ctx context.Context, src models.Source, endpoint string, check func([]byte) error) ([]byte, error) {
	load := func(ctx context.Context) ([]byte, error) {
		body, err := c.fetch(ctx, src, endpoint)
		if err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(body); err != nil {
				return nil, err
			}
		}
		return body, nil
	}
	if c.cache == nil {
		return load(ctx)
	}
	return c.cache.Get(ctx, endpoint, c.window, load)
}

func (c *Client) fetch(ctx context.Context, src models.Source, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(endpoint)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordSourceFetch(src.Host(), "error", elapsed)
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	metrics.RecordSourceFetch(src.Host(), strconv.Itoa(resp.StatusCode()), elapsed)
	c.logger.Debug().
		Str("url", endpoint).
		Int("status", resp.StatusCode()).
		Dur("elapsed", resp.Time()).
		Msg("WordPress request")

	if !resp.IsSuccess() {
		return nil, &StatusError{Code: resp.StatusCode(), URL: endpoint, Body: responseSnippet(resp.Body())}
	}
	return resp.Body(), nil
}

func responseSnippet(body []byte) string {
	const maxLen = 256
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

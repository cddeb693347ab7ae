// Package aggregate merges posts from every monitored WordPress source into
// one newest-first list and resolves single posts by slug or numeric ID.
package aggregate

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pdgupta/website/internal/config"
	"pdgupta/website/internal/content"
	"pdgupta/website/internal/metrics"
	"pdgupta/website/internal/models"
	"pdgupta/website/internal/wordpress"
)

// PostSource is the read side of a WordPress client.
type PostSource interface {
	Posts(ctx context.Context, src models.Source, perPage int) ([]models.WPPost, error)
	PostBySlug(ctx context.Context, src models.Source, slug string) (*models.WPPost, error)
	PostByID(ctx context.Context, src models.Source, id int64) (*models.WPPost, error)
}

// Options configures an Aggregator.
type Options struct {
	Sites     config.Sites
	PerSource int
	Client    PostSource
	// LatestClient serves the live ticker feed. Nil means Client.
	LatestClient PostSource
	Logger       zerolog.Logger
}

// Aggregator fans out to every source and joins the results. It holds no
// post data between calls; caching lives in the client.
type Aggregator struct {
	sites     config.Sites
	perSource int
	client    PostSource
	latest    PostSource
	logger    zerolog.Logger

	fetched atomic.Int64
	failed  atomic.Int64
}

func New(opts Options) *Aggregator {
	latest := opts.LatestClient
	if latest == nil {
		latest = opts.Client
	}
	perSource := opts.PerSource
	if perSource <= 0 {
		perSource = config.DefaultPerSource
	}
	return &Aggregator{
		sites:     opts.Sites,
		perSource: perSource,
		client:    opts.Client,
		latest:    latest,
		logger:    opts.Logger.With().Str("component", "aggregator").Logger(),
	}
}

// Sources returns the configured sources in order.
func (a *Aggregator) Sources() []models.Source {
	return a.sites.Sources
}

// Stats returns the number of successful and failed source fetches so far.
func (a *Aggregator) Stats() (fetched, failed int64) {
	return a.fetched.Load(), a.failed.Load()
}

// Fetch requests perSource posts from every source concurrently and waits
// for all of them. A failing source contributes nothing. The result is
// sorted newest first; equal dates keep source order.
func (a *Aggregator) Fetch(ctx context.Context, sources []models.Source, perSource int) []models.PostCard {
	return a.fetch(ctx, a.client, sources, perSource)
}

// FetchAll is Fetch over every configured source.
func (a *Aggregator) FetchAll(ctx context.Context) []models.PostCard {
	return a.Fetch(ctx, a.sites.Sources, a.perSource)
}

// Primary returns the newest perPage posts of the first configured source.
func (a *Aggregator) Primary(ctx context.Context, perPage int) []models.PostCard {
	if len(a.sites.Sources) == 0 {
		return nil
	}
	return a.Fetch(ctx, a.sites.Sources[:1], perPage)
}

// Latest returns the live ticker feed across all sources.
func (a *Aggregator) Latest(ctx context.Context) []models.TickerItem {
	cards := a.fetch(ctx, a.latest, a.sites.Sources, a.perSource)
	items := make([]models.TickerItem, len(cards))
	for i, c := range cards {
		items[i] = c.Ticker()
	}
	return items
}

func (a *Aggregator) fetch(ctx context.Context, client PostSource, sources []models.Source, perSource int) []models.PostCard {
	results := make([][]models.PostCard, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			posts, err := client.Posts(ctx, src, perSource)
			if err != nil {
				a.failed.Add(1)
				a.logger.Warn().Err(err).Str("source", src.BaseURL).Msg("Source fetch failed, skipping")
				return nil
			}
			a.fetched.Add(1)

			cards := make([]models.PostCard, len(posts))
			for j := range posts {
				cards[j] = MapPostToCard(&posts[j], src)
			}
			results[i] = cards
			return nil
		})
	}
	g.Wait()

	var all []models.PostCard
	for _, cards := range results {
		all = append(all, cards...)
	}
	SortNewestFirst(all)
	metrics.AggregatedPosts.Observe(float64(len(all)))
	return all
}

// GetBySlug asks each source in order and returns the first match.
func (a *Aggregator) GetBySlug(ctx context.Context, slug string) (*models.PostCard, bool) {
	if slug == "" {
		return nil, false
	}
	for _, src := range a.sites.Sources {
		post, err := a.client.PostBySlug(ctx, src, slug)
		if err != nil {
			a.logLookupError(err, src, "slug", slug)
			continue
		}
		card := MapPostToCard(post, src)
		return &card, true
	}
	return nil, false
}

// GetByID looks up a post by numeric ID on exactly one source.
func (a *Aggregator) GetByID(ctx context.Context, src models.Source, id int64) (*models.PostCard, bool) {
	if id <= 0 {
		return nil, false
	}
	post, err := a.client.PostByID(ctx, src, id)
	if err != nil {
		a.logLookupError(err, src, "id", id)
		return nil, false
	}
	card := MapPostToCard(post, src)
	return &card, true
}

// ResolveID returns the slug of the first source that knows id. Each
// source is asked at most once.
func (a *Aggregator) ResolveID(ctx context.Context, id int64) (string, bool) {
	for _, src := range a.sites.Sources {
		if card, ok := a.GetByID(ctx, src, id); ok && card.Slug != "" {
			return card.Slug, true
		}
	}
	return "", false
}

func (a *Aggregator) logLookupError(err error, src models.Source, key string, value any) {
	ev := a.logger.Warn()
	if errors.Is(err, wordpress.ErrNotFound) {
		ev = a.logger.Debug()
	}
	ev.Err(err).Str("source", src.BaseURL).Interface(key, value).Msg("Post lookup missed")
}

// MapPostToCard normalizes a raw WordPress post.
func MapPostToCard(p *models.WPPost, src models.Source) models.PostCard {
	return models.PostCard{
		ID:            p.ID,
		Slug:          p.Slug,
		Title:         content.PlainText(p.Title.Rendered),
		Date:          p.Date,
		Excerpt:       p.Excerpt.Rendered,
		FeaturedImage: p.FeaturedImage(),
		Author:        p.AuthorName(),
		Site:          src.BaseURL,
		TitleHTML:     p.Title.Rendered,
		Content:       p.Content.Rendered,
		PublishedAt:   models.ParseDate(p.Date),
	}
}

// SortNewestFirst orders cards by publish date descending. The sort is
// stable and undated cards go last.
func SortNewestFirst(cards []models.PostCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].PublishedAt.After(cards[j].PublishedAt)
	})
}

// Package storage defines the read side the HTTP handlers depend on.
package storage

import (
	"context"

	"pdgupta/website/internal/models"
)

// PostRepository defines operations for reading mirrored posts. The
// aggregator implements it; handlers never talk to WordPress directly.
type PostRepository interface {
	// FetchAll returns posts from every source, newest first.
	FetchAll(ctx context.Context) []models.PostCard
	// GetBySlug returns the first source's post with slug.
	GetBySlug(ctx context.Context, slug string) (*models.PostCard, bool)
	// ResolveID returns the slug for a numeric WordPress post ID.
	ResolveID(ctx context.Context, id int64) (string, bool)
	// Latest returns the live ticker feed, newest first.
	Latest(ctx context.Context) []models.TickerItem
}

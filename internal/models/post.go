package models

import (
	"strings"
	"time"
)

// DefaultAuthor is shown when a post carries no embedded author.
const DefaultAuthor = "Admin"

// WPPost is a post as returned by the WordPress REST API with _embed.
// Every HTML field is untrusted.
type WPPost struct {
	ID       int64       `json:"id"`
	Slug     string      `json:"slug"`
	Date     string      `json:"date"`
	Title    Rendered    `json:"title"`
	Excerpt  Rendered    `json:"excerpt"`
	Content  Rendered    `json:"content"`
	Embedded *WPEmbedded `json:"_embedded,omitempty"`
}

// Rendered wraps the {"rendered": "..."} shape WordPress uses for HTML fields.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// WPEmbedded holds the _embed expansions this site consumes.
type WPEmbedded struct {
	Author        []WPAuthor `json:"author,omitempty"`
	FeaturedMedia []WPMedia  `json:"wp:featuredmedia,omitempty"`
}

type WPAuthor struct {
	Name string `json:"name"`
}

type WPMedia struct {
	SourceURL string `json:"source_url"`
}

// AuthorName returns the first embedded author name or DefaultAuthor.
func (p *WPPost) AuthorName() string {
	if p.Embedded != nil && len(p.Embedded.Author) > 0 && p.Embedded.Author[0].Name != "" {
		return p.Embedded.Author[0].Name
	}
	return DefaultAuthor
}

// FeaturedImage returns the first embedded featured media URL, or nil.
func (p *WPPost) FeaturedImage() *string {
	if p.Embedded == nil || len(p.Embedded.FeaturedMedia) == 0 {
		return nil
	}
	src := p.Embedded.FeaturedMedia[0].SourceURL
	if src == "" {
		return nil
	}
	return &src
}

// PostCard is the normalized post used for listings and detail pages.
// It is derived from a WPPost on every fetch and never persisted.
type PostCard struct {
	ID            int64     `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"` // entity-decoded plain text
	Date          string    `json:"date"`  // as published, ISO 8601
	Excerpt       string    `json:"excerpt"`
	FeaturedImage *string   `json:"featuredImage"`
	Author        string    `json:"author"`
	Site          string    `json:"site"`
	TitleHTML     string    `json:"-"`
	Content       string    `json:"-"`
	PublishedAt   time.Time `json:"-"`
}

// Ticker projects the card onto the live ticker shape.
func (c PostCard) Ticker() TickerItem {
	return TickerItem{ID: c.ID, Slug: c.Slug, Title: c.TitleHTML, Date: c.Date}
}

// TickerItem is the minimal projection served to the live ticker.
// Title is kept as rendered by WordPress and decoded for display.
type TickerItem struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// wpDateLayouts lists the formats WordPress emits for "date". The REST API
// uses the site-local time without an offset.
var wpDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a WordPress date. Unparsable dates yield the zero time,
// which sorts after every real date.
func ParseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range wpDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Package content rewrites and sanitizes mirrored WordPress HTML.
package content

import "net/url"

// Internal routes that mirrored content links point at.
const (
	PostIndexRoute = "/post"
	WPIDParam      = "wpid"
)

// PostRoute returns the canonical internal route for a slug.
func PostRoute(slug string) string {
	return PostIndexRoute + "/" + slug
}

// WPIDRoute returns the internal route that resolves a numeric WordPress
// post ID at request time.
func WPIDRoute(id string) string {
	return PostIndexRoute + "?" + WPIDParam + "=" + url.QueryEscape(id)
}

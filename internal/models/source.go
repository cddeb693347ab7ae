package models

import (
	"net/url"
	"strings"
)

// Source is an external WordPress site whose posts are mirrored.
type Source struct {
	BaseURL string // scheme and host, no trailing slash
}

// Host returns the lower-cased host name of the source, or "" when the
// base URL cannot be parsed.
func (s Source) Host() string {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func (s Source) String() string {
	return s.BaseURL
}

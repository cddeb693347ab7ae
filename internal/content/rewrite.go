package content

import (
	"regexp"
	"sort"
	"strings"

	"pdgupta/website/internal/slug"
)

var wpidQuery = regexp.MustCompile(`^/?\?p=(\d+)`)

// LinkRewriter replaces absolute URLs on monitored domains with internal
// routes. It works on raw text, not on a parsed DOM: this is adequate for
// the regular markup WordPress renders but is not robust against crafted
// attribute quoting. Sanitization runs afterwards either way.
type LinkRewriter struct {
	pattern *regexp.Regexp
}

// NewLinkRewriter builds a rewriter for the given host names. With no
// domains the rewriter leaves input unchanged.
func NewLinkRewriter(domains []string) *LinkRewriter {
	alts := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			alts = append(alts, regexp.QuoteMeta(d))
		}
	}
	if len(alts) == 0 {
		return &LinkRewriter{}
	}

	// Longest first so "example.info" is not shadowed by "example.in".
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })

	pattern := `(?i)https?://(?:` + strings.Join(alts, "|") + `)(/[^"'\s>)<]*)?`
	return &LinkRewriter{pattern: regexp.MustCompile(pattern)}
}

// Rewrite returns html with every monitored-domain URL replaced by its
// internal route.
func (r *LinkRewriter) Rewrite(html string) string {
	if r == nil || r.pattern == nil || html == "" {
		return html
	}

	matches := r.pattern.FindAllStringSubmatchIndex(html, -1)
	if len(matches) == 0 {
		return html
	}

	var b strings.Builder
	b.Grow(len(html))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		var path string
		if m[2] >= 0 {
			path = html[m[2]:m[3]]
		}
		// Without a path the host must end here, otherwise this is a longer
		// host that merely starts with a monitored domain.
		if path == "" && continuesHost(html[end:]) {
			continue
		}
		b.WriteString(html[last:start])
		b.WriteString(InternalRoute(path))
		last = end
	}
	b.WriteString(html[last:])
	return b.String()
}

// InternalRoute maps the path (and query) of a monitored URL to an internal
// route: "?p=<id>" permalinks to the ID resolver, clean paths to the slug
// route and anything else to the post index.
func InternalRoute(path string) string {
	if m := wpidQuery.FindStringSubmatch(path); m != nil {
		return WPIDRoute(m[1])
	}
	if s, ok := slug.Resolve(path); ok {
		return PostRoute(s)
	}
	return PostIndexRoute
}

func continuesHost(rest string) bool {
	if rest == "" {
		return false
	}
	c := rest[0]
	if isHostChar(c) {
		return true
	}
	if (c == '.' || c == '-') && len(rest) > 1 && isHostChar(rest[1]) {
		return true
	}
	return false
}

func isHostChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

package content

import (
	"errors"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AllowedTags is the element allow-list for mirrored post content.
var AllowedTags = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"p", "br", "hr",
	"a", "strong", "b", "em", "i", "u", "s", "del", "ins", "mark",
	"ul", "ol", "li", "dl", "dt", "dd",
	"blockquote", "pre", "code", "kbd", "var", "samp",
	"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
	"figure", "figcaption", "img",
	"div", "span", "section", "article", "aside", "header", "footer", "main",
	"details", "summary",
	"sub", "sup", "abbr", "cite", "q", "time",
}

// AllowedSchemes lists the URL schemes permitted in href and src.
var AllowedSchemes = []string{"http", "https", "mailto", "tel"}

// NewPolicy returns the bluemonday policy applied to post content.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)

	p.AllowAttrs("href", "title", "rel", "target", "aria-label").OnElements("a")
	p.AllowAttrs("src", "alt", "width", "height", "loading", "class").OnElements("img")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("scope").OnElements("th")
	p.AllowAttrs("datetime").OnElements("time")
	p.AllowAttrs("class", "id").Globally()

	p.AllowURLSchemes(AllowedSchemes...)
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	return p
}

// Sanitizer turns untrusted WordPress HTML into markup safe to embed in a
// page: monitored links are rewritten, everything outside the allow-list
// is dropped and external links open in a new browsing context.
type Sanitizer struct {
	rewriter *LinkRewriter
	policy   *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer that rewrites links with rewriter.
func NewSanitizer(rewriter *LinkRewriter) *Sanitizer {
	return &Sanitizer{
		rewriter: rewriter,
		policy:   NewPolicy(),
	}
}

// Sanitize never fails; malformed markup is repaired or dropped by the
// HTML parser's error recovery.
func (s *Sanitizer) Sanitize(raw string) string {
	rewritten := s.rewriter.Rewrite(raw)
	clean := s.policy.Sanitize(rewritten)
	return forceExternalTargets(clean)
}

// IsInternalHref reports whether href stays on this site. Protocol-relative
// URLs ("//host/...") leave the site and are not internal.
func IsInternalHref(href string) bool {
	if strings.HasPrefix(href, "#") {
		return true
	}
	return strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}

// forceExternalTargets sets target="_blank" rel="noopener noreferrer" on
// every anchor that is not internal. Only anchor start tags are rewritten;
// every other token is copied through byte for byte.
func forceExternalTargets(fragment string) string {
	if !strings.Contains(fragment, "<a") {
		return fragment
	}

	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	b.Grow(len(fragment) + 64)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return b.String()
			}
			return fragment
		}

		raw := z.Raw()
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.Write(raw)
			continue
		}

		raw = append([]byte(nil), raw...)
		tok := z.Token()
		if tok.DataAtom != atom.A || IsInternalHref(attrValue(tok.Attr, "href")) {
			b.Write(raw)
			continue
		}

		tok.Attr = setAttr(tok.Attr, "target", "_blank")
		tok.Attr = setAttr(tok.Attr, "rel", "noopener noreferrer")
		b.WriteString(tok.String())
	}
}

func attrValue(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: val})
}

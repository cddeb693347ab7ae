package ticker

import (
	"regexp"
	"strings"

	"pdgupta/website/internal/models"
)

// DateLayout is how ticker dates are displayed, e.g. "05 Mar 2024".
const DateLayout = "02 Jan 2006"

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// titleEntities are decoded in order; WordPress emits only these in titles.
var titleEntities = [][2]string{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#8217;", "’"},
	{"&#8216;", "‘"},
	{"&#8220;", "“"},
	{"&#8221;", "”"},
	{"&#8211;", "–"},
	{"&#8212;", "—"},
}

// DecodeTitle turns a rendered WordPress title into display text.
func DecodeTitle(rendered string) string {
	s := rendered
	for _, e := range titleEntities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return tagPattern.ReplaceAllString(s, "")
}

// FormatDate formats an ISO date for display, falling back to its first
// ten characters when it cannot be parsed.
func FormatDate(raw string) string {
	t := models.ParseDate(raw)
	if t.IsZero() {
		if len(raw) > 10 {
			return raw[:10]
		}
		return raw
	}
	return t.Format(DateLayout)
}

package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from an HTML fragment, decodes entities and
// collapses whitespace.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	return collapseSpace(doc.Text())
}

// Summary returns at most max characters of the plain text of fragment,
// used for meta descriptions.
func Summary(fragment string, max int) string {
	text := PlainText(fragment)
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max]))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package slug derives stable post identifiers from WordPress URL paths.
package slug

import (
	"regexp"
	"strings"
)

// DefaultIDSuffixDigits is the minimum length of a trailing "-<digits>"
// suffix treated as a WordPress numeric ID and stripped. Shorter suffixes
// are kept so slugs such as "budget-2024" or "top-10" survive. The value is
// a heuristic, not a documented WordPress boundary.
const DefaultIDSuffixDigits = 5

var (
	queryOrAnchor = regexp.MustCompile(`^/?(\?[^#]|#)`)
	htmlExt       = regexp.MustCompile(`\.html?$`)
	dateSegment   = regexp.MustCompile(`^\d{1,4}$`)
)

// Resolve returns the slug for a WordPress URL path using
// DefaultIDSuffixDigits. The boolean is false when no slug can be derived.
func Resolve(path string) (string, bool) {
	return ResolveWith(path, DefaultIDSuffixDigits)
}

// ResolveWith is Resolve with an explicit ID-suffix threshold.
func ResolveWith(path string, idSuffixDigits int) (string, bool) {
	if path == "" || queryOrAnchor.MatchString(path) {
		return "", false
	}

	// A query string or fragment after a real path never names the post.
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	cleaned := htmlExt.ReplaceAllString(path, "")
	cleaned = strings.TrimRight(cleaned, "/")

	var segments []string
	for _, seg := range strings.Split(cleaned, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "", false
	}

	chosen := segments[len(segments)-1]
	for i := len(segments) - 1; i >= 0; i-- {
		if !dateSegment.MatchString(segments[i]) {
			chosen = segments[i]
			break
		}
	}

	return stripIDSuffix(chosen, idSuffixDigits), true
}

// stripIDSuffix removes a trailing "-<n+ digits>" from s.
func stripIDSuffix(s string, minDigits int) string {
	if minDigits <= 0 {
		return s
	}
	dash := strings.LastIndexByte(s, '-')
	if dash < 0 {
		return s
	}
	digits := s[dash+1:]
	if len(digits) < minDigits {
		return s
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return s
		}
	}
	return s[:dash]
}

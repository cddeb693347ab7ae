package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{"html extension", "/my-post.html", "my-post", true},
		{"htm extension", "/my-post.htm", "my-post", true},
		{"date segments", "/2024/01/headline/", "headline", true},
		{"category and id suffix", "/category/sub/headline-123456/", "headline", true},
		{"plain slug", "/negative-gst-ledger-balances/", "negative-gst-ledger-balances", true},
		{"short numeric suffix kept", "/budget-2024/", "budget-2024", true},
		{"four digit suffix kept", "/top-1234", "top-1234", true},
		{"query id", "/?p=12", "", false},
		{"bare query", "?p=12", "", false},
		{"anchor", "/#top", "", false},
		{"bare anchor", "#top", "", false},
		{"empty", "", "", false},
		{"root", "/", "", false},
		{"all numeric falls back to last", "/42", "42", true},
		{"all numeric date path", "/2024/01/", "01", true},
		{"multiple trailing slashes", "/headline///", "headline", true},
		{"trailing query ignored", "/my-post/?utm_source=x", "my-post", true},
		{"trailing fragment ignored", "/my-post/#comments", "my-post", true},
		{"long numeric segment not a date", "/12345/", "12345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveWith_Threshold(t *testing.T) {
	got, ok := ResolveWith("/headline-1234", 4)
	assert.True(t, ok)
	assert.Equal(t, "headline", got)

	got, ok = ResolveWith("/headline-123456", 0)
	assert.True(t, ok)
	assert.Equal(t, "headline-123456", got)
}

func TestResolve_Idempotent(t *testing.T) {
	paths := []string{
		"/my-post.html",
		"/2024/01/headline/",
		"/category/sub/headline-123456/",
		"/negative-gst-ledger-balances/",
		"/42",
		"/budget-2024/",
	}

	for _, p := range paths {
		first, ok := Resolve(p)
		if !assert.True(t, ok, p) {
			continue
		}
		second, ok := Resolve("/" + first)
		assert.True(t, ok, p)
		assert.Equal(t, first, second, p)
	}
}

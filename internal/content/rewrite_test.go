package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testDomains = []string{"studycafe.in", "www.studycafe.in"}

func TestLinkRewriter_Rewrite(t *testing.T) {
	r := NewLinkRewriter(testDomains)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean path",
			in:   `<a href="https://studycafe.in/my-post/">x</a>`,
			want: `<a href="/post/my-post">x</a>`,
		},
		{
			name: "www host and http scheme",
			in:   `<a href="http://www.studycafe.in/2024/01/headline/">x</a>`,
			want: `<a href="/post/headline">x</a>`,
		},
		{
			name: "numeric id query",
			in:   `<a href="https://studycafe.in/?p=12345">x</a>`,
			want: `<a href="/post?wpid=12345">x</a>`,
		},
		{
			name: "bare root",
			in:   `<a href="https://studycafe.in">home</a>`,
			want: `<a href="/post">home</a>`,
		},
		{
			name: "bare root with slash",
			in:   `<a href='https://studycafe.in/'>home</a>`,
			want: `<a href='/post'>home</a>`,
		},
		{
			name: "case insensitive",
			in:   `<a href="HTTPS://StudyCafe.IN/My-Post.html">x</a>`,
			want: `<a href="/post/My-Post">x</a>`,
		},
		{
			name: "other domain untouched",
			in:   `<a href="https://other.com/my-post/">x</a>`,
			want: `<a href="https://other.com/my-post/">x</a>`,
		},
		{
			name: "longer host sharing a prefix untouched",
			in:   `<a href="https://studycafe.in.example.com/x">x</a> https://studycafe.info`,
			want: `<a href="https://studycafe.in.example.com/x">x</a> https://studycafe.info`,
		},
		{
			name: "url in text before a full stop",
			in:   `<p>Read https://studycafe.in.</p>`,
			want: `<p>Read /post.</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Rewrite(tt.in))
		})
	}
}

func TestLinkRewriter_NoDomains(t *testing.T) {
	r := NewLinkRewriter(nil)
	in := `<a href="https://studycafe.in/my-post/">x</a>`
	assert.Equal(t, in, r.Rewrite(in))

	var nilRewriter *LinkRewriter
	assert.Equal(t, in, nilRewriter.Rewrite(in))
}

func TestLinkRewriter_AllOccurrencesRewritten(t *testing.T) {
	r := NewLinkRewriter(testDomains)
	in := `<p><a href="https://studycafe.in/a/">a</a> and <a href="https://www.studycafe.in/?p=9">b</a>
<img src="https://studycafe.in/wp-content/uploads/2024/01/chart.png"> see https://studycafe.in</p>`

	out := r.Rewrite(in)

	for _, d := range testDomains {
		assert.NotContains(t, strings.ToLower(out), d)
	}
	assert.Equal(t, 4, strings.Count(out, PostIndexRoute))
}

func TestInternalRoute(t *testing.T) {
	assert.Equal(t, "/post?wpid=42", InternalRoute("/?p=42"))
	assert.Equal(t, "/post?wpid=42", InternalRoute("?p=42"))
	assert.Equal(t, "/post/headline", InternalRoute("/category/headline-998877/"))
	assert.Equal(t, "/post", InternalRoute(""))
	assert.Equal(t, "/post", InternalRoute("/#top"))
}

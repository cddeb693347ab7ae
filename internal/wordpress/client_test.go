package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdgupta/website/internal/cache"
	"pdgupta/website/internal/models"
)

const listBody = `[
  {"id": 11, "slug": "gst-update", "date": "2024-05-02T10:00:00",
   "title": {"rendered": "GST &amp; You"}, "excerpt": {"rendered": "<p>short</p>"},
   "content": {"rendered": "<p>body</p>"},
   "_embedded": {"author": [{"name": "CA Gupta"}], "wp:featuredmedia": [{"source_url": "https://cdn.example/gst.png"}]}}
]`

func newTestServer(t *testing.T, handler http.HandlerFunc) models.Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return models.Source{BaseURL: srv.URL}
}

func TestClient_Posts(t *testing.T) {
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		q := r.URL.Query()
		assert.True(t, q.Has("_embed"))
		assert.Equal(t, "50", q.Get("per_page"))
		assert.Equal(t, "date", q.Get("orderby"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "TestAgent", r.Header.Get("User-Agent"))
		w.Write([]byte(listBody))
	})

	c := NewClient(Options{UserAgent: "TestAgent", Logger: zerolog.Nop()})
	posts, err := c.Posts(context.Background(), src, 50)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	p := posts[0]
	assert.EqualValues(t, 11, p.ID)
	assert.Equal(t, "gst-update", p.Slug)
	assert.Equal(t, "GST &amp; You", p.Title.Rendered)
	assert.Equal(t, "CA Gupta", p.AuthorName())
	require.NotNil(t, p.FeaturedImage())
	assert.Equal(t, "https://cdn.example/gst.png", *p.FeaturedImage())
}

func TestClient_StatusError(t *testing.T) {
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	c := NewClient(Options{Logger: zerolog.Nop()})
	_, err := c.Posts(context.Background(), src, 10)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Contains(t, se.Error(), "maintenance")
}

func TestClient_PostBySlug(t *testing.T) {
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, r.URL.Query().Has("_embed"))
		if r.URL.Query().Get("slug") == "gst-update" {
			w.Write([]byte(listBody))
			return
		}
		w.Write([]byte(`[]`))
	})

	c := NewClient(Options{Logger: zerolog.Nop()})

	p, err := c.PostBySlug(context.Background(), src, "gst-update")
	require.NoError(t, err)
	assert.EqualValues(t, 11, p.ID)

	_, err = c.PostBySlug(context.Background(), src, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_PostByID(t *testing.T) {
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/posts/11":
			w.Write([]byte(`{"id": 11, "slug": "gst-update", "date": "2024-05-02T10:00:00", "title": {"rendered": "GST"}}`))
		case "/wp-json/wp/v2/posts/12":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"rest_post_invalid_id"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	c := NewClient(Options{Logger: zerolog.Nop()})

	p, err := c.PostByID(context.Background(), src, 11)
	require.NoError(t, err)
	assert.Equal(t, "gst-update", p.Slug)
	assert.Equal(t, models.DefaultAuthor, p.AuthorName())
	assert.Nil(t, p.FeaturedImage())

	_, err = c.PostByID(context.Background(), src, 12)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.PostByID(context.Background(), src, 13)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_CachesByRequestURL(t *testing.T) {
	var hits int32
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(listBody))
	})

	reval := cache.NewRevalidator(cache.NewMemoryStore(), zerolog.Nop())
	c := NewClient(Options{Cache: reval, Window: time.Hour, Logger: zerolog.Nop()})

	for i := 0; i < 3; i++ {
		_, err := c.Posts(context.Background(), src, 50)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	_, err := c.Posts(context.Background(), src, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits), "different URL is a different key")

	fresh := c.WithWindow(0)
	_, err = fresh.Posts(context.Background(), src, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestClient_ErrorsAreNotCached(t *testing.T) {
	var hits int32
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(listBody))
	})

	reval := cache.NewRevalidator(cache.NewMemoryStore(), zerolog.Nop())
	c := NewClient(Options{Cache: reval, Window: time.Hour, Logger: zerolog.Nop()})

	_, err := c.Posts(context.Background(), src, 50)
	require.Error(t, err)

	posts, err := c.Posts(context.Background(), src, 50)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestClient_UnknownSlugsAreNotCached(t *testing.T) {
	var hits int32
	src := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("slug") == "gst-update" {
			w.Write([]byte(listBody))
			return
		}
		w.Write([]byte("[]"))
	})

	store := cache.NewMemoryStore()
	c := NewClient(Options{Cache: cache.NewRevalidator(store, zerolog.Nop()), Window: time.Hour, Logger: zerolog.Nop()})

	for i := 0; i < 200; i++ {
		_, err := c.PostBySlug(context.Background(), src, fmt.Sprintf("no-such-post-%d", i))
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 0, store.Len())

	for i := 0; i < 2; i++ {
		post, err := c.PostBySlug(context.Background(), src, "gst-update")
		require.NoError(t, err)
		assert.Equal(t, "gst-update", post.Slug)
	}
	assert.Equal(t, 1, store.Len())
	assert.EqualValues(t, 201, atomic.LoadInt32(&hits))
}

func TestURLs(t *testing.T) {
	src := models.Source{BaseURL: "https://studycafe.in"}
	assert.Equal(t, "https://studycafe.in/wp-json/wp/v2/posts?_embed&per_page=50&orderby=date&order=desc", ListURL(src, 50))
	assert.Equal(t, "https://studycafe.in/wp-json/wp/v2/posts?slug=my-post&_embed", SlugURL(src, "my-post"))
	assert.Equal(t, "https://studycafe.in/wp-json/wp/v2/posts/42?_embed", IDURL(src, 42))
}

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"pdgupta/website/internal/content"
	"pdgupta/website/internal/models"
	"pdgupta/website/internal/server/api"
	"pdgupta/website/internal/server/pages"
)

type fakeRepo struct{}

func (fakeRepo) FetchAll(context.Context) []models.PostCard {
	return []models.PostCard{{ID: 1, Slug: "gst", Title: "GST", Date: "2024-03-01T00:00:00"}}
}

func (fakeRepo) GetBySlug(_ context.Context, slug string) (*models.PostCard, bool) {
	if slug != "gst" {
		return nil, false
	}
	return &models.PostCard{ID: 1, Slug: "gst", Title: "GST", Date: "2024-03-01T00:00:00", Content: "<p>body</p>"}, true
}

func (fakeRepo) ResolveID(_ context.Context, id int64) (string, bool) {
	if id == 1 {
		return "gst", true
	}
	return "", false
}

func (fakeRepo) Latest(context.Context) []models.TickerItem {
	return []models.TickerItem{{ID: 1, Slug: "gst", Title: "GST", Date: "2024-03-01T00:00:00"}}
}

type okSubmitter struct{}

func (okSubmitter) Submit(context.Context, []byte) error { return nil }

func newTestHandler(t *testing.T, limiter *RateLimiter, token string) http.Handler {
	t.Helper()

	p, err := pages.New(fakeRepo{}, content.NewSanitizer(content.NewLinkRewriter([]string{"studycafe.in"})))
	require.NoError(t, err)

	return NewHandler(Handlers{
		Pages:        p,
		Latest:       api.NewLatestHandler(fakeRepo{}, true),
		Forms:        api.NewFormHandler(okSubmitter{}),
		FormLimiter:  limiter,
		MetricsToken: token,
	}, zerolog.Nop())
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(t, nil, "")

	tests := []struct {
		method   string
		path     string
		wantCode int
		contains string
	}{
		{http.MethodGet, "/", http.StatusOK, "GST"},
		{http.MethodGet, "/post/gst", http.StatusOK, "body"},
		{http.MethodGet, "/post/missing", http.StatusNotFound, "Post Not Found"},
		{http.MethodGet, "/post?wpid=1", http.StatusTemporaryRedirect, ""},
		{http.MethodGet, "/api/latest-updates", http.StatusOK, `"slug":"gst"`},
		{http.MethodPost, "/api/form-submit", http.StatusOK, `"success":true`},
		{http.MethodGet, "/health", http.StatusOK, "OK"},
		{http.MethodGet, "/about", http.StatusNotFound, "Post Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestRoutes_FormIsPostOnly(t *testing.T) {
	h := newTestHandler(t, nil, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/form-submit", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "success")
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestHandler(t, nil, "")

	for _, path := range []string{"/", "/api/latest-updates", "/nope"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"), path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), path)
		assert.Equal(t, "origin-when-cross-origin", rec.Header().Get("Referrer-Policy"), path)
		assert.NotEmpty(t, rec.Header().Get("Request-Id"), path)
	}
}

func TestMetricsToken(t *testing.T) {
	h := newTestHandler(t, nil, "s3cret")

	tests := []struct {
		name     string
		header   string
		value    string
		wantCode int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "X-API-Key", "nope", http.StatusUnauthorized},
		{"api key", "X-API-Key", "s3cret", http.StatusOK},
		{"bearer", "Authorization", "Bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestFormRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newTestHandler(t, NewRateLimiter(ctx, rate.Limit(0.001), 2), "")

	post := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/form-submit", strings.NewReader("{}"))
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, post("203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, post("203.0.113.7").Code)

	rec := post("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, post("198.51.100.1").Code, "other clients are unaffected")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

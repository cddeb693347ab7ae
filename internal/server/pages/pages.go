// Package pages renders the server-side HTML pages backed by mirrored
// WordPress content.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"pdgupta/website/internal/content"
	"pdgupta/website/internal/models"
	"pdgupta/website/internal/server/storage"
	"pdgupta/website/internal/ticker"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	siteName        = "PD Gupta & CO"
	homeTitle       = "Home - PD Gupta & CO | Chartered Accountants"
	homeDescription = "Expert CA services for tax planning, GST compliance, audit, and financial consulting."
	homePostCount   = 6
	descriptionLen  = 160
	publishLayout   = "02 January 2006"
)

// Pages holds the parsed templates and the post repository.
type Pages struct {
	repo      storage.PostRepository
	sanitizer *content.Sanitizer
	home      *template.Template
	post      *template.Template
	notFound  *template.Template
}

// New parses the embedded templates.
func New(repo storage.PostRepository, sanitizer *content.Sanitizer) (*Pages, error) {
	funcs := template.FuncMap{
		"postRoute":   content.PostRoute,
		"tickerDate":  ticker.FormatDate,
		"tickerTitle": ticker.DecodeTitle,
		"excerpt": func(html string) string {
			return content.Summary(html, descriptionLen)
		},
	}

	parse := func(page string) (*template.Template, error) {
		t, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		return t, nil
	}

	p := &Pages{repo: repo, sanitizer: sanitizer}
	var err error
	if p.home, err = parse("home.html"); err != nil {
		return nil, err
	}
	if p.post, err = parse("post.html"); err != nil {
		return nil, err
	}
	if p.notFound, err = parse("notfound.html"); err != nil {
		return nil, err
	}
	return p, nil
}

type pageData struct {
	Title       string
	Description string
	OpenGraph   bool
	OGTitle     string

	Posts  []models.PostCard
	Ticker []models.TickerItem

	Post        *models.PostCard
	PublishDate string
	Body        template.HTML
}

// Home renders the latest posts and the initial ticker.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	cards := p.repo.FetchAll(r.Context())

	items := make([]models.TickerItem, len(cards))
	for i, c := range cards {
		items[i] = c.Ticker()
	}

	p.render(w, r, p.home, http.StatusOK, pageData{
		Title:       homeTitle,
		Description: homeDescription,
		Posts:       cards[:min(homePostCount, len(cards))],
		Ticker:      ticker.New(items).Sorted(),
	})
}

// Post renders GET /post/{slug}. Unknown slugs get the 404 page.
func (p *Pages) Post(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	card, ok := p.repo.GetBySlug(r.Context(), slug)
	if !ok {
		hlog.FromRequest(r).Debug().Str("slug", slug).Msg("Post not found")
		p.NotFound(w, r)
		return
	}

	p.render(w, r, p.post, http.StatusOK, pageData{
		Title:       card.Title + " | " + siteName,
		Description: content.Summary(card.Excerpt, descriptionLen),
		OpenGraph:   true,
		OGTitle:     card.Title,
		Post:        card,
		PublishDate: formatPublishDate(card),
		Body:        template.HTML(p.sanitizer.Sanitize(card.Content)),
	})
}

// PostIndex handles GET /post?wpid={id}: the first source that knows the
// ID decides the redirect target. Anything unresolvable goes home.
func (p *Pages) PostIndex(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	target := "/"

	raw := strings.TrimSpace(r.URL.Query().Get(content.WPIDParam))
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		if slug, ok := p.repo.ResolveID(r.Context(), id); ok {
			target = content.PostRoute(slug)
		} else {
			log.Debug().Int64("wpid", id).Msg("WordPress ID not resolved")
		}
	} else if raw != "" {
		log.Debug().Str("wpid", raw).Msg("Malformed WordPress ID")
	}

	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// NotFound renders the 404 page.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, p.notFound, http.StatusNotFound, pageData{Title: "Post Not Found"})
}

// render executes into a buffer so a template error can still become a 500.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, t *template.Template, status int, data pageData) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Error rendering page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Error writing page")
	}
}

func formatPublishDate(card *models.PostCard) string {
	if card.PublishedAt.IsZero() {
		return card.Date
	}
	return card.PublishedAt.Format(publishLayout)
}

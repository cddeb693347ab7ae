package api

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"pdgupta/website/internal/models"
	"pdgupta/website/internal/server/storage"
)

// LatestHandler serves the live ticker feed.
type LatestHandler struct {
	repo  storage.PostRepository
	fresh bool
}

// NewLatestHandler creates the handler. With fresh set the response is
// marked uncacheable.
func NewLatestHandler(repo storage.PostRepository, fresh bool) *LatestHandler {
	return &LatestHandler{repo: repo, fresh: fresh}
}

// GetLatest responds with [{id, slug, title, date}] newest first. Source
// failures only shrink the list.
func (h *LatestHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	items := h.repo.Latest(r.Context())
	if items == nil {
		items = []models.TickerItem{}
	}
	log.Debug().Int("count", len(items)).Msg("Serving latest updates")

	if h.fresh {
		w.Header().Set("Cache-Control", "no-store")
	}
	writeJSON(w, r, http.StatusOK, items)
}

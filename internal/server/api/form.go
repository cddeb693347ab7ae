package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"pdgupta/website/internal/form"
)

const maxFormBody = 64 << 10

// FormSubmitter processes a raw form body.
type FormSubmitter interface {
	Submit(ctx context.Context, body []byte) error
}

// FormHandler accepts website form submissions.
type FormHandler struct {
	forms FormSubmitter
}

func NewFormHandler(forms FormSubmitter) *FormHandler {
	return &FormHandler{forms: forms}
}

// SuccessResponse is returned when the submission was mailed.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// PostForm handles POST /api/form-submit. Validation problems are 400 with
// a visitor-facing message; anything else is logged and answered with a
// generic 500.
func (h *FormHandler) PostForm(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "Request too large.")
			return
		}
		log.Warn().Err(err).Msg("Failed to read form body")
		WriteError(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err = h.forms.Submit(r.Context(), body)
	var ve *form.ValidationError
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, SuccessResponse{Success: true})
	case errors.As(err, &ve):
		log.Info().Str("reason", ve.Message).Msg("Form submission rejected")
		WriteError(w, r, http.StatusBadRequest, ve.Message)
	default:
		log.Error().Err(err).Msg("Form submit error")
		WriteError(w, r, http.StatusInternalServerError, GenericServerError)
	}
}

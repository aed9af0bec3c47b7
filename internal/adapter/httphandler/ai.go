package httphandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/pkg/prompts"
)

// AIHandler renders prompt templates. No model is called.
type AIHandler struct {
	responder
}

func RegisterAI(r chi.Router, rs responder, mw middlewares) {
	h := AIHandler{rs}
	r.Route("/api/ai", func(r chi.Router) {
		r.Use(mw.auth.Authenticate)
		r.Get("/prompts", h.Catalog)
		r.With(AllowJSON).Post("/prompts/{kind}", h.Render)
	})
}

func (h AIHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	const op = "AIHandler.Catalog"
	log := slog.With("op", op)

	h.json(w, log, http.StatusOK, struct {
		Prompts []prompts.Prompt `json:"prompts"`
	}{prompts.Catalog()})
}

func (h AIHandler) Render(w http.ResponseWriter, r *http.Request) {
	const op = "AIHandler.Render"
	log := slog.With("op", op)

	args := make(map[string]any)
	if err := decodeJSON(r, &args); err != nil {
		h.fail(w, log, err)
		return
	}

	kind := chi.URLParam(r, "kind")
	text, err := prompts.Render(kind, args)
	if err != nil {
		if errors.Is(err, prompts.ErrUnknownKind) ||
			errors.Is(err, prompts.ErrMissingArgument) ||
			errors.Is(err, prompts.ErrInvalidArgument) {
			err = domain.Invalid("%s", err.Error())
		}
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, PromptResponse{Kind: kind, Prompt: text})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/docsauthor/internal/authoring"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *authoring.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Redirects.
	r.Post("/redirects", h.GenerateRedirects)
	r.Get("/redirects/manifest", h.Manifest)
	r.Get("/redirects/history", h.History)
	r.Get("/redirects/history/{id}", h.Run)
	r.Get("/redirects/documents", h.DocumentHistory)

	// Snippets.
	r.Get("/snippets/targets", h.LinkTargets)
	r.Post("/snippets/{kind}", h.BuildSnippet)

	// Templates.
	r.Post("/templates/download", h.DownloadTemplates)
	r.Post("/templates/clean", h.CleanTemplates)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

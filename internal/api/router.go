package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/attach"
	"github.com/starford/ansuz/internal/catalog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// attachStore serves source attachments by node ID. convertFn, if non-nil,
// enables POST /convert.
func NewRouter(svc *catalog.Service, authEnabled bool, token string, sseHandler http.Handler, attachStore *attach.Store, convertFn ConvertFunc) chi.Router {
	h := NewHandler(svc, convertFn)
	ah := NewAttachmentHandler(attachStore)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog reads.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Get("/notes/{id}/backlinks", h.Backlinks)

	// Search.
	r.Get("/search", h.Search)

	// Graph and link hygiene.
	r.Get("/graph", h.Graph)
	r.Get("/dangling", h.Dangling)

	// Source attachments by node ID.
	r.Get("/attachments/{id}/{name}", ah.ServeFile)

	// Remote conversion trigger.
	if convertFn != nil {
		r.Post("/convert", h.Convert)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

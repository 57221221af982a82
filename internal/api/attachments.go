package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/attach"
)

// AttachmentHandler serves source-vault attachments through the bucket/leaf
// sharding convention, so clients address them by node ID and name without
// knowing the bucket layout.
type AttachmentHandler struct {
	store *attach.Store
}

// NewAttachmentHandler creates a handler over the sharded attachments store.
func NewAttachmentHandler(store *attach.Store) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// ServeFile handles GET /attachments/{id}/{name}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	abs, err := h.store.Resolve(id, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		// Resolve also fails on unsafe names.
		http.Error(w, "invalid attachment reference", http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, abs)
}

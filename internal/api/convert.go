package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/convert"
)

// ConvertFunc runs a conversion pass over the source vault and returns its
// summary. Wired in serve mode so clients can trigger conversion remotely.
type ConvertFunc func(ctx context.Context) (*convert.Result, error)

// Convert handles POST /api/convert.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	if h.convertFn == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody("conversion not configured"))
		return
	}
	res, err := h.convertFn(r.Context())
	if err != nil {
		slog.Error("convert failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if res.MissingAttachments == nil {
		res.MissingAttachments = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}

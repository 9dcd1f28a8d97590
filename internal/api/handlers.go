package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
	"github.com/Leocrydis/SENomexLayers/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *Service
	events *sse.Broker // nil when serve mode runs without SSE
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service, events *sse.Broker) *Handler {
	return &Handler{svc: svc, events: events}
}

// Resolve handles POST /api/resolve: runs a batch and returns matches plus
// per-identifier diagnostics. Per-file failures never fail the request.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Identifiers) == 0 {
		writeError(w, http.StatusBadRequest, "identifiers is required")
		return
	}

	res, err := h.svc.Resolve(r.Context(), req.Identifiers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.events != nil {
		h.events.PublishBatchResolved(len(res.Matches), len(res.Diagnostics))
	}

	lines := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		lines = append(lines, m.Line())
	}
	writeJSON(w, http.StatusOK, ResolveResponse{
		Matches:     res.Matches,
		Diagnostics: res.Diagnostics,
		Lines:       lines,
	})
}

// ListParts handles GET /api/parts.
func (h *Handler) ListParts(w http.ResponseWriter, _ *http.Request) {
	parts, err := h.svc.ListParts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PartListResponse{Parts: parts, Total: len(parts)})
}

// PartProperties handles GET /api/parts/{identifier}/properties.
func (h *Handler) PartProperties(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "identifier")

	props, err := h.svc.PartProperties(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	items := make([]PropertyItem, 0, len(props))
	for _, p := range props {
		items = append(items, PropertyItem{Name: p.Name, Value: p.Text()})
	}
	writeJSON(w, http.StatusOK, PropertiesResponse{Identifier: id, Properties: items})
}

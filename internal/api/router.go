package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/Leocrydis/SENomexLayers/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group and
// receives a batch.resolved event after each successful resolve.
func NewRouter(svc *Service, authEnabled bool, token string, events *sse.Broker) chi.Router {
	h := NewHandler(svc, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Batch resolve.
	r.Post("/resolve", h.Resolve)

	// Part inventory.
	r.Get("/parts", h.ListParts)
	r.Get("/parts/{identifier}/properties", h.PartProperties)

	// SSE endpoint (protected by the same auth middleware).
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashgrove/hauntmap/internal/sse"
	"github.com/ashgrove/hauntmap/internal/view"
)

// NewRouter creates a chi router with all API routes mounted. The read
// surface is always open; authEnabled controls Bearer auth on submissions.
// events, if non-nil, is mounted at GET /events and fed sighting.created
// notifications.
func NewRouter(session *view.Session, authEnabled bool, token string, events *sse.Broker) chi.Router {
	h := NewHandler(session, events)

	r := chi.NewRouter()

	// Read surface for the map and table widgets.
	r.Get("/stats", h.GetStats)
	r.Get("/table", h.GetTable)
	r.Get("/markers", h.GetMarkers)
	r.Get("/sightings", h.GetSightings)

	// Submissions, token-protected when auth is enabled.
	r.Group(func(gr chi.Router) {
		gr.Use(AuthMiddleware(authEnabled, token))
		gr.Post("/sightings", h.CreateSighting)
	})

	if events != nil {
		r.Method(http.MethodGet, "/events", events)
	}

	return r
}

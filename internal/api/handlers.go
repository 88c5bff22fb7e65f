package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ashgrove/hauntmap/internal/apperr"
	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/sse"
	"github.com/ashgrove/hauntmap/internal/table"
	"github.com/ashgrove/hauntmap/internal/view"
)

// requiredFields is the submission contract, checked in this order so the
// first missing field names the 400 response.
var requiredFields = []string{"date", "latitude", "longitude", "city", "state", "notes", "timeOfDay", "apparitionTag"}

// Handler holds API route handlers.
type Handler struct {
	session *view.Session
	events  *sse.Broker
}

// NewHandler creates a new Handler. events may be nil when no broker is
// wired (tests, import tooling).
func NewHandler(session *view.Session, events *sse.Broker) *Handler {
	return &Handler{session: session, events: events}
}

// CreateSighting handles POST /sightings.
func (h *Handler) CreateSighting(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	for _, name := range requiredFields {
		if fieldMissing(body[name]) {
			writeJSON(w, http.StatusBadRequest, errorBody("Missing required field: "+name))
			return
		}
	}

	form, err := formFromBody(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	saved, err := h.session.Submit(r.Context(), form)
	if err != nil {
		var verr *apperr.ValidationError
		var ozzo validation.Errors
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errorBody(verr.Error()))
		case errors.As(err, &ozzo):
			writeJSON(w, http.StatusBadRequest, errorBody(ozzo.Error()))
		default:
			slog.Error("add sighting failed", slog.String("city", form.City), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "failed to add sighting",
				"details": err.Error(),
			})
		}
		return
	}

	if h.events != nil {
		h.events.PublishSightingEvent("created", saved.ID, saved.City, saved.State)
	}
	writeJSON(w, http.StatusCreated, saved)
}

// GetSightings handles GET /sightings. Bulk reads go through the store
// adapter at load time, not this route; the method is advisory-only.
func (h *Handler) GetSightings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, advisoryResponse{Message: "Use POST to add a new sighting"})
}

// GetStats handles GET /stats.
func (h *Handler) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Stats(time.Now()))
}

// GetTable handles GET /table with optional filter and page parameters.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := table.Criteria{
		City:          q.Get("city"),
		State:         q.Get("state"),
		ApparitionTag: q.Get("tag"),
		TimeOfDay:     q.Get("timeOfDay"),
	}
	page, _ := strconv.Atoi(q.Get("page"))

	writeJSON(w, http.StatusOK, TableResponse{
		Result:  h.session.Table(criteria, page),
		Filters: h.session.FilterOptions(),
	})
}

// GetMarkers handles GET /markers.
func (h *Handler) GetMarkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MarkersResponse{Markers: h.session.Markers()})
}

// fieldMissing mirrors the submission contract's presence check: absent,
// null, empty-string, and zero-number values are all missing. A zero
// coordinate is rejected rather than accepted as unlocated.
func fieldMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	default:
		return false
	}
}

// formFromBody builds the form data, tolerating numeric fields sent as
// strings.
func formFromBody(body map[string]any) (models.FormData, error) {
	date, err := models.ParseDate(str(body["date"]))
	if err != nil {
		return models.FormData{}, &apperr.ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}
	lat, ok := num(body["latitude"])
	if !ok {
		return models.FormData{}, &apperr.ValidationError{Field: "latitude", Reason: "must be a number"}
	}
	lng, ok := num(body["longitude"])
	if !ok {
		return models.FormData{}, &apperr.ValidationError{Field: "longitude", Reason: "must be a number"}
	}
	return models.FormData{
		Date:          date,
		Time:          str(body["time"]),
		Latitude:      lat,
		Longitude:     lng,
		City:          str(body["city"]),
		State:         str(body["state"]),
		Notes:         str(body["notes"]),
		TimeOfDay:     str(body["timeOfDay"]),
		ApparitionTag: str(body["apparitionTag"]),
		ImageLink:     str(body["imageLink"]),
	}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

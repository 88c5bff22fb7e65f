// Package view composes the live working set of sightings with its derived
// map, table, and stats views.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/stats"
	"github.com/ashgrove/hauntmap/internal/store"
	"github.com/ashgrove/hauntmap/internal/table"
)

// Confirmation marks whether a working-set record has been acknowledged by
// the store. Pending records carry a locally generated id until the store
// assigns the real one.
type Confirmation string

// Confirmation states.
const (
	Confirmed Confirmation = "confirmed"
	Pending   Confirmation = "pending"
)

// Record is a working-set entry: the sighting plus its confirmation tag.
type Record struct {
	models.Sighting
	Status Confirmation `json:"status"`
}

// FormState is the submission form lifecycle: Closed → Open (add trigger or
// map click) → Submitting → Closed. Reopening while open is a no-op; there
// is no cancellation state distinct from Closed.
type FormState int

// Form states.
const (
	FormClosed FormState = iota
	FormOpen
	FormSubmitting
)

// Coordinate is a map click location used to pre-fill the form.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Marker is a map pin for one located record.
type Marker struct {
	ID            string  `json:"id"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	ApparitionTag string  `json:"apparitionTag"`
}

// FilterOptions are the selector values derived from the unfiltered set.
type FilterOptions struct {
	Tags       []string `json:"tags"`
	TimesOfDay []string `json:"timesOfDay"`
}

// Session owns the authoritative in-memory working set for a rendered view.
// Every derived value (stats, table page, markers, filter options) is a
// pure function of a snapshot plus the current criteria, recomputed on
// demand and never cached across mutations.
type Session struct {
	store store.Store

	mu      sync.Mutex
	records []Record
	pager   *table.Pager
	form    FormState
	prefill *Coordinate
}

// NewSession creates an empty session backed by the given store.
func NewSession(st store.Store) *Session {
	return &Session{store: st, pager: table.NewPager()}
}

// Load replaces the working set from the store, applying the location
// policy once at load time. The fetch is all-or-nothing; on error the
// working set is left untouched.
func (s *Session) Load(ctx context.Context, policy models.LocationPolicy) error {
	all, err := s.store.FetchAll(ctx)
	if err != nil {
		return err
	}
	kept := policy.Apply(all)
	records := make([]Record, len(kept))
	for i, rec := range kept {
		records[i] = Record{Sighting: rec, Status: Confirmed}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the working-set sightings in insertion order.
func (s *Session) Snapshot() []models.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() []models.Sighting {
	out := make([]models.Sighting, len(s.records))
	for i, r := range s.records {
		out[i] = r.Sighting
	}
	return out
}

// Records returns the working-set entries with their confirmation tags.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Stats derives summary statistics at the given reference time.
func (s *Session) Stats(now time.Time) stats.Stats {
	return stats.Compute(s.Snapshot(), now)
}

// Markers returns map pins for the located records. Retained unlocated
// records stay in the table and stats but never reach the map.
func (s *Session) Markers() []Marker {
	snap := s.Snapshot()
	out := make([]Marker, 0, len(snap))
	for _, rec := range snap {
		if !rec.HasLocation() {
			continue
		}
		out = append(out, Marker{ID: rec.ID, Lat: rec.Latitude, Lng: rec.Longitude, ApparitionTag: rec.ApparitionTag})
	}
	return out
}

// FilterOptions derives the selector values from the unfiltered set.
func (s *Session) FilterOptions() FilterOptions {
	snap := s.Snapshot()
	return FilterOptions{
		Tags:       table.DistinctTags(snap),
		TimesOfDay: table.DistinctTimesOfDay(snap),
	}
}

// Table applies the criteria (resetting the page whenever they change),
// navigates to the requested page when positive, and renders the result.
// Passing page 0 stays on the current page.
func (s *Session) Table(c table.Criteria, page int) table.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pager.SetCriteria(c)
	if page <= 0 {
		page = s.pager.Page()
	}
	res := table.Run(s.snapshotLocked(), c, page)
	s.pager.GoTo(res.Page, res.TotalPages)
	return res
}

// OpenForm opens the submission form pre-filled from a map click.
// Reopening while the form is already open is an idempotent no-op that
// keeps the original prefill.
func (s *Session) OpenForm(lat, lng float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != FormClosed {
		return
	}
	s.form = FormOpen
	s.prefill = &Coordinate{Lat: lat, Lng: lng}
}

// Form returns the current form state and prefill coordinate, if any.
func (s *Session) Form() (FormState, *Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form, s.prefill
}

// CloseForm dismisses the form from any state.
func (s *Session) CloseForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = FormClosed
	s.prefill = nil
}

// Submit validates the form, optimistically appends a pending record,
// persists it through the store, and swaps in the confirmed record carrying
// the store-assigned id. If the store rejects the insert the pending record
// is rolled back and the error surfaces to the caller, so the visible
// working set never diverges from persisted state.
func (s *Session) Submit(ctx context.Context, form models.FormData) (models.Sighting, error) {
	if err := form.Validate(); err != nil {
		return models.Sighting{}, err
	}

	pending := form.Sighting()
	pending.ID = "pending-" + uuid.NewString()

	s.mu.Lock()
	if s.form == FormOpen {
		s.form = FormSubmitting
	}
	s.records = append(s.records, Record{Sighting: pending, Status: Pending})
	s.mu.Unlock()

	saved, err := s.store.Insert(ctx, form.Sighting())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == FormSubmitting {
		s.form = FormClosed
		s.prefill = nil
	}
	if err != nil {
		s.removeLocked(pending.ID)
		return models.Sighting{}, err
	}
	s.replaceLocked(pending.ID, Record{Sighting: saved, Status: Confirmed})
	return saved, nil
}

func (s *Session) removeLocked(id string) {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return
		}
	}
}

func (s *Session) replaceLocked(id string, rec Record) {
	for i, r := range s.records {
		if r.ID == id {
			s.records[i] = rec
			return
		}
	}
	// Pending record vanished (concurrent load); keep the confirmed copy.
	s.records = append(s.records, rec)
}

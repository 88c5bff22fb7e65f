package store

import (
	"encoding/json"
	"fmt"

	"github.com/ashgrove/hauntmap/internal/models"
)

// sightingRow mirrors the store schema, whose column names are lowercase
// and whose image link is nullable. The row⇄model transform is a pure
// field renaming in both directions.
type sightingRow struct {
	ID            rowID       `json:"id,omitempty"`
	Date          models.Date `json:"date"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	Notes         string      `json:"notes"`
	TimeOfDay     string      `json:"timeofday"`
	ApparitionTag string      `json:"apparitiontag"`
	ImageLink     *string     `json:"imagelink"`
}

// rowID tolerates both string and numeric ids; hosted stores assign UUIDs
// or bigserial values depending on the table definition.
type rowID string

func (id *rowID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("store: id must be a string or number: %w", err)
	}
	*id = rowID(n.String())
	return nil
}

func toRow(s models.Sighting) sightingRow {
	row := sightingRow{
		ID:            rowID(s.ID),
		Date:          s.Date,
		Latitude:      s.Latitude,
		Longitude:     s.Longitude,
		City:          s.City,
		State:         s.State,
		Notes:         s.Notes,
		TimeOfDay:     s.TimeOfDay,
		ApparitionTag: s.ApparitionTag,
	}
	if s.ImageLink != "" {
		link := s.ImageLink
		row.ImageLink = &link
	}
	return row
}

func fromRow(r sightingRow) models.Sighting {
	s := models.Sighting{
		ID:            string(r.ID),
		Date:          r.Date,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		City:          r.City,
		State:         r.State,
		Notes:         r.Notes,
		TimeOfDay:     r.TimeOfDay,
		ApparitionTag: r.ApparitionTag,
	}
	if r.ImageLink != nil {
		s.ImageLink = *r.ImageLink
	}
	return s
}

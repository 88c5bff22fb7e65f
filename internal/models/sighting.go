// Package models defines the domain types for hauntmap.
package models

import (
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/ashgrove/hauntmap/internal/apperr"
)

// TimesOfDay is the fixed set of accepted time-of-day labels. The label is
// enforced at submission time only; records loaded from the store are not
// re-validated.
var TimesOfDay = []string{"Dawn", "Morning", "Afternoon", "Evening", "Night", "Midnight"}

const dateLayout = "2006-01-02"

// Date is a calendar date (no clock component) marshaled as YYYY-MM-DD.
// It is the date of the reported event, distinct from record creation time.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD date, falling back to RFC 3339 for stores
// that return full timestamps.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("models: parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD or RFC 3339 string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("models: date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Sighting is a single reported apparition event. Records are immutable once
// created; there is no edit or delete path.
type Sighting struct {
	ID            string  `json:"id"`
	Date          Date    `json:"date"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Notes         string  `json:"notes"`
	TimeOfDay     string  `json:"timeOfDay"`
	ApparitionTag string  `json:"apparitionTag"`
	ImageLink     string  `json:"imageLink,omitempty"`
}

// HasLocation reports whether the record carries usable coordinates.
// A coordinate of exactly 0 on either axis marks the record as unlocated.
func (s Sighting) HasLocation() bool {
	return s.Latitude != 0 && s.Longitude != 0
}

// CityKey returns the "{city}, {state}" aggregation key.
func (s Sighting) CityKey() string {
	return s.City + ", " + s.State
}

// FormData is the pre-submission shape of a sighting. Time captures the
// clock time entered on the form; the store schema is date-only, so it is
// accepted and discarded before persistence.
type FormData struct {
	Date          Date    `json:"date"`
	Time          string  `json:"time,omitempty"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Notes         string  `json:"notes"`
	TimeOfDay     string  `json:"timeOfDay"`
	ApparitionTag string  `json:"apparitionTag"`
	ImageLink     string  `json:"imageLink,omitempty"`
}

// Validate checks required fields in submission order, then the time-of-day
// enumeration and the image link shape. A zero coordinate counts as
// missing: such a record could never enter the default working set.
func (f FormData) Validate() error {
	for _, field := range []struct {
		name    string
		missing bool
	}{
		{"date", f.Date.IsZero()},
		{"latitude", f.Latitude == 0},
		{"longitude", f.Longitude == 0},
		{"city", f.City == ""},
		{"state", f.State == ""},
		{"notes", f.Notes == ""},
		{"timeOfDay", f.TimeOfDay == ""},
		{"apparitionTag", f.ApparitionTag == ""},
	} {
		if field.missing {
			return &apperr.ValidationError{Field: field.name}
		}
	}
	return validation.ValidateStruct(&f,
		validation.Field(&f.TimeOfDay, validation.In(anySlice(TimesOfDay)...)),
		validation.Field(&f.ImageLink, is.URL),
	)
}

// Sighting returns the persistable record. The id is left empty; it is
// assigned by the store on insert.
func (f FormData) Sighting() Sighting {
	return Sighting{
		Date:          f.Date,
		Latitude:      f.Latitude,
		Longitude:     f.Longitude,
		City:          f.City,
		State:         f.State,
		Notes:         f.Notes,
		TimeOfDay:     f.TimeOfDay,
		ApparitionTag: f.ApparitionTag,
		ImageLink:     f.ImageLink,
	}
}

func anySlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

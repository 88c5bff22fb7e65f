// Package testutil provides shared test helpers for setting up stores and
// seeded working sets.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/store"
)

// TestStore creates a temporary SQLite-backed store that is automatically
// cleaned up.
func TestStore(t *testing.T) store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "hauntmap-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Seed inserts the given records and returns the stored copies with ids.
func Seed(t *testing.T, st store.Store, in ...models.Sighting) []models.Sighting {
	t.Helper()
	out := make([]models.Sighting, len(in))
	for i, rec := range in {
		saved, err := st.Insert(context.Background(), rec)
		if err != nil {
			t.Fatalf("seed insert: %v", err)
		}
		out[i] = saved
	}
	return out
}

// Date parses a YYYY-MM-DD date or fails the test.
func Date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// Sighting builds a located record with sensible defaults.
func Sighting(t *testing.T, date, city, state string) models.Sighting {
	t.Helper()
	return models.Sighting{
		Date:          Date(t, date),
		Latitude:      30.27,
		Longitude:     -97.74,
		City:          city,
		State:         state,
		Notes:         "saw a shape",
		TimeOfDay:     "Night",
		ApparitionTag: "Shadow Figure",
	}
}

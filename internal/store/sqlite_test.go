package store

import (
	"context"
	"os"
	"testing"

	"github.com/ashgrove/hauntmap/internal/models"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "hauntmap-store-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sighting(t *testing.T, date, city string) models.Sighting {
	t.Helper()
	d, err := models.ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	return models.Sighting{
		Date: d, Latitude: 30.27, Longitude: -97.74,
		City: city, State: "TX", Notes: "saw a shape",
		TimeOfDay: "Night", ApparitionTag: "Shadow Figure",
	}
}

func TestSQLiteInsertAssignsIDs(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	first, err := st.Insert(ctx, sighting(t, "2024-01-01", "Austin"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second, err := st.Insert(ctx, sighting(t, "2024-01-02", "Salem"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if first.ID != "1" || second.ID != "2" {
		t.Errorf("ids = %q, %q, want 1, 2", first.ID, second.ID)
	}
}

func TestSQLiteFetchAllOrdersByDateDesc(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	for _, rec := range []models.Sighting{
		sighting(t, "2024-01-05", "Austin"),
		sighting(t, "2024-01-20", "Salem"),
		sighting(t, "2024-01-10", "Savannah"),
	} {
		if _, err := st.Insert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := st.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("fetched %d records, want 3", len(got))
	}
	if got[0].City != "Salem" || got[1].City != "Savannah" || got[2].City != "Austin" {
		t.Errorf("order = %s, %s, %s", got[0].City, got[1].City, got[2].City)
	}
}

func TestSQLiteNullImageLink(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	plain := sighting(t, "2024-01-01", "Austin")
	linked := sighting(t, "2024-01-02", "Salem")
	linked.ImageLink = "https://example.com/orb.jpg"
	if _, err := st.Insert(ctx, plain); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Insert(ctx, linked); err != nil {
		t.Fatal(err)
	}

	got, err := st.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got[0].ImageLink != "https://example.com/orb.jpg" {
		t.Errorf("imageLink = %q", got[0].ImageLink)
	}
	if got[1].ImageLink != "" {
		t.Errorf("imageLink = %q, want empty", got[1].ImageLink)
	}
}

func TestSQLiteInsertBatch(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	batch := []models.Sighting{
		sighting(t, "2024-01-01", "Austin"),
		sighting(t, "2024-01-02", "Salem"),
		sighting(t, "2024-01-03", "Savannah"),
	}
	n, err := st.InsertBatch(ctx, batch)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}

	got, err := st.FetchAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("fetched %d records, want 3", len(got))
	}
}

package stats

import (
	"testing"
	"time"

	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/testutil"
)

func TestComputeEmpty(t *testing.T) {
	st := Compute(nil, time.Now())
	if st.Total != 0 {
		t.Errorf("total = %d, want 0", st.Total)
	}
	if st.MostRecent != nil {
		t.Errorf("mostRecent = %v, want nil", st.MostRecent)
	}
	if st.DaysAgo != 0 {
		t.Errorf("daysAgo = %d, want 0", st.DaysAgo)
	}
	if st.MostGhostlyCity != NoCity {
		t.Errorf("mostGhostlyCity = %q, want %q", st.MostGhostlyCity, NoCity)
	}
}

func TestComputeMostRecentAndDaysAgo(t *testing.T) {
	in := []models.Sighting{
		testutil.Sighting(t, "2024-01-03", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-10", "Salem", "MA"),
		testutil.Sighting(t, "2023-12-25", "Savannah", "GA"),
	}
	// 10.5 days after the newest record: the fraction floors away.
	now := testutil.Date(t, "2024-01-10").Add(10*24*time.Hour + 12*time.Hour)

	st := Compute(in, now)
	if st.Total != 3 {
		t.Errorf("total = %d, want 3", st.Total)
	}
	if st.MostRecent == nil || st.MostRecent.City != "Salem" {
		t.Errorf("mostRecent = %+v, want Salem", st.MostRecent)
	}
	if st.DaysAgo != 10 {
		t.Errorf("daysAgo = %d, want 10", st.DaysAgo)
	}
}

func TestComputeFutureDateClampsDaysAgo(t *testing.T) {
	in := []models.Sighting{testutil.Sighting(t, "2024-06-01", "Austin", "TX")}
	now := testutil.Date(t, "2024-01-10").Time

	st := Compute(in, now)
	if st.DaysAgo != 0 {
		t.Errorf("daysAgo = %d for a future-dated report, want 0", st.DaysAgo)
	}
}

func TestComputeMostRecentTieKeepsInputOrder(t *testing.T) {
	first := testutil.Sighting(t, "2024-01-10", "Austin", "TX")
	second := testutil.Sighting(t, "2024-01-10", "Salem", "MA")

	st := Compute([]models.Sighting{first, second}, time.Now())
	if st.MostRecent.City != "Austin" {
		t.Errorf("mostRecent tie went to %q, want Austin", st.MostRecent.City)
	}
}

func TestComputeMostGhostlyCity(t *testing.T) {
	in := []models.Sighting{
		testutil.Sighting(t, "2024-01-01", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-02", "Salem", "MA"),
		testutil.Sighting(t, "2024-01-03", "Salem", "MA"),
		testutil.Sighting(t, "2024-01-04", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-05", "Salem", "MA"),
	}

	st := Compute(in, time.Now())
	if st.MostGhostlyCity != "Salem, MA" {
		t.Errorf("mostGhostlyCity = %q, want %q", st.MostGhostlyCity, "Salem, MA")
	}
}

func TestComputeCityTieKeepsInputOrder(t *testing.T) {
	in := []models.Sighting{
		testutil.Sighting(t, "2024-01-01", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-02", "Salem", "MA"),
		testutil.Sighting(t, "2024-01-03", "Salem", "MA"),
		testutil.Sighting(t, "2024-01-04", "Austin", "TX"),
	}

	st := Compute(in, time.Now())
	if st.MostGhostlyCity != "Austin, TX" {
		t.Errorf("tie went to %q, want the city seen first", st.MostGhostlyCity)
	}
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	in := []models.Sighting{
		testutil.Sighting(t, "2024-01-01", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-10", "Salem", "MA"),
	}

	Compute(in, time.Now())
	if in[0].City != "Austin" || in[1].City != "Salem" {
		t.Errorf("input reordered: %v", in)
	}
}

// Package stats derives summary statistics from a sighting collection.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/ashgrove/hauntmap/internal/models"
)

// NoCity is the MostGhostlyCity sentinel for an empty collection.
const NoCity = "N/A"

// Stats is a derived value, recomputed in full from the working set on
// every change. Nothing here is cached or persisted.
type Stats struct {
	Total           int              `json:"total"`
	MostRecent      *models.Sighting `json:"mostRecent,omitempty"`
	DaysAgo         int              `json:"daysAgo"`
	MostGhostlyCity string           `json:"mostGhostlyCity"`
}

// Compute derives Stats from sightings at the given reference time. The
// caller supplies now so the computation stays pure; the serving layer
// re-invokes it hourly to keep the displayed age current.
//
// Input order is a tie-break guarantee, not an accident: when dates tie,
// the earlier record in the input wins MostRecent, and when city counts
// tie, the city appearing earliest in the input wins MostGhostlyCity.
func Compute(sightings []models.Sighting, now time.Time) Stats {
	st := Stats{Total: len(sightings), MostGhostlyCity: NoCity}
	if len(sightings) == 0 {
		return st
	}

	byDate := make([]models.Sighting, len(sightings))
	copy(byDate, sightings)
	sort.SliceStable(byDate, func(i, j int) bool {
		return byDate[i].Date.After(byDate[j].Date.Time)
	})
	mostRecent := byDate[0]
	st.MostRecent = &mostRecent
	st.DaysAgo = int(math.Floor(now.Sub(mostRecent.Date.Time).Hours() / 24))
	// Submissions accept any parseable date; a future-dated report reads as
	// "0 days ago" rather than a negative age.
	if st.DaysAgo < 0 {
		st.DaysAgo = 0
	}

	counts := make(map[string]int, len(sightings))
	var order []string
	for _, s := range sightings {
		key := s.CityKey()
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	best := 0
	for _, key := range order {
		if counts[key] > best {
			best = counts[key]
			st.MostGhostlyCity = key
		}
	}
	return st
}

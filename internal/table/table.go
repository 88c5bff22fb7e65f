// Package table implements the filter, pagination, and page-window engine
// behind the sightings table. Everything operates on the in-memory working
// set; this is deliberately not a query engine.
package table

import (
	"strings"

	"github.com/ashgrove/hauntmap/internal/models"
)

// PageSize is the fixed number of rows per table page.
const PageSize = 50

// Criteria is the four-field table filter. Empty fields are unconstrained;
// non-empty fields match as case-insensitive substrings, and all four
// conditions are conjunctive.
type Criteria struct {
	City          string `json:"city"`
	State         string `json:"state"`
	ApparitionTag string `json:"apparitionTag"`
	TimeOfDay     string `json:"timeOfDay"`
}

// Matches reports whether a record passes every criterion.
func (c Criteria) Matches(s models.Sighting) bool {
	return contains(s.City, c.City) &&
		contains(s.State, c.State) &&
		contains(s.ApparitionTag, c.ApparitionTag) &&
		contains(s.TimeOfDay, c.TimeOfDay)
}

func contains(value, pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

// Filter returns the records passing the criteria, preserving input order.
// Identical criteria over an unchanged collection always yield the same
// sequence in the same order.
func Filter(records []models.Sighting, c Criteria) []models.Sighting {
	out := make([]models.Sighting, 0, len(records))
	for _, s := range records {
		if c.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// DistinctTags returns the non-empty apparition tags present in the
// unfiltered collection, in first-occurrence order. Consumers must treat
// the result as a set; the order is not part of the contract.
func DistinctTags(records []models.Sighting) []string {
	return distinct(records, func(s models.Sighting) string { return s.ApparitionTag })
}

// DistinctTimesOfDay returns the non-empty time-of-day values present in
// the unfiltered collection, in first-occurrence order.
func DistinctTimesOfDay(records []models.Sighting) []string {
	return distinct(records, func(s models.Sighting) string { return s.TimeOfDay })
}

func distinct(records []models.Sighting, field func(models.Sighting) string) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, s := range records {
		v := field(s)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// TotalPages returns ceil(n/PageSize). An empty result has zero pages, not
// one empty page; the table renders its empty-state message instead.
func TotalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}

// ClampPage clamps page into [1, totalPages]. When totalPages is zero the
// page pins to 1 so navigation state stays well-formed over an empty result.
func ClampPage(page, totalPages int) int {
	if page < 1 || totalPages == 0 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Page returns the rows on the given page of the (already filtered) records.
// The page number is clamped before slicing.
func Page(records []models.Sighting, page int) []models.Sighting {
	page = ClampPage(page, TotalPages(len(records)))
	start := (page - 1) * PageSize
	if start >= len(records) {
		return nil
	}
	end := start + PageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// Window returns the visible page buttons for a compact control strip of
// five. With five or fewer pages every page is shown; near either edge the
// window sticks to that edge; otherwise it centers on the current page.
func Window(totalPages, current int) []int {
	switch {
	case totalPages <= 0:
		return nil
	case totalPages <= 5:
		return pageRange(1, totalPages)
	case current <= 3:
		return pageRange(1, 5)
	case current >= totalPages-2:
		return pageRange(totalPages-4, totalPages)
	default:
		return pageRange(current-2, current+2)
	}
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, p)
	}
	return out
}

// Result is one rendered table page.
type Result struct {
	Records    []models.Sighting `json:"records"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Window     []int             `json:"window"`
}

// Run filters the collection and renders the requested page.
func Run(records []models.Sighting, c Criteria, page int) Result {
	filtered := Filter(records, c)
	totalPages := TotalPages(len(filtered))
	page = ClampPage(page, totalPages)
	return Result{
		Records:    Page(filtered, page),
		Total:      len(filtered),
		Page:       page,
		TotalPages: totalPages,
		Window:     Window(totalPages, page),
	}
}

// Pager tracks the criteria and current page for one table view. Changing
// any criterion resets the page to 1; an out-of-range page is never
// silently preserved.
type Pager struct {
	criteria Criteria
	page     int
}

// NewPager starts on page 1 with no criteria.
func NewPager() *Pager {
	return &Pager{page: 1}
}

// Criteria returns the active criteria.
func (p *Pager) Criteria() Criteria { return p.criteria }

// Page returns the current page number.
func (p *Pager) Page() int { return p.page }

// SetCriteria replaces the criteria, resetting to page 1 on any change.
func (p *Pager) SetCriteria(c Criteria) {
	if c != p.criteria {
		p.criteria = c
		p.page = 1
	}
}

// GoTo navigates to a page, clamped against the given page count.
func (p *Pager) GoTo(page, totalPages int) {
	p.page = ClampPage(page, totalPages)
}

package api

import (
	"github.com/ashgrove/hauntmap/internal/table"
	"github.com/ashgrove/hauntmap/internal/view"
)

// TableResponse is the rendered table page plus the selector options
// derived from the unfiltered working set.
type TableResponse struct {
	table.Result
	Filters view.FilterOptions `json:"filters"`
}

// MarkersResponse wraps the map pins.
type MarkersResponse struct {
	Markers []view.Marker `json:"markers"`
}

// advisoryResponse is returned for unsupported read paths.
type advisoryResponse struct {
	Message string `json:"message"`
}

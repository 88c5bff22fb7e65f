// Package importer bulk-loads sighting records from a CSV export into the
// store. Parsing is strict and all-or-nothing; inserts are batched and
// partial success is reported, not rolled back.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashgrove/hauntmap/internal/apperr"
	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/store"
)

// columns is the exact header contract of the CSV export.
var columns = []string{
	"Date of Sighting",
	"Latitude of Sighting",
	"Longitude of Sighting",
	"Nearest Approximate City",
	"US State",
	"Notes about the sighting",
	"Time of Day",
	"Tag of Apparition",
	"Image Link",
}

// BatchResult records the outcome of one insert batch.
type BatchResult struct {
	Batch    int
	Size     int
	Inserted int
	Err      error
}

// Summary reports the whole import run.
type Summary struct {
	Parsed   int
	Inserted int
	Failed   int
	Batches  []BatchResult
}

// Runner performs bulk imports. The zero values for BatchSize and Delay
// fall back to the store batch contract (1000 rows, 100ms between batches).
type Runner struct {
	Store     store.Store
	BatchSize int
	Delay     time.Duration
	Logger    *slog.Logger
}

// NewRunner creates a Runner with the default batch contract.
func NewRunner(st store.Store, logger *slog.Logger) *Runner {
	return &Runner{Store: st, BatchSize: store.BatchSize, Delay: 100 * time.Millisecond, Logger: logger}
}

// Parse reads and validates the whole file before any insert is attempted.
// Any malformed row aborts with *apperr.ParseError.
func Parse(r io.Reader) ([]models.Sighting, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, &apperr.ParseError{Line: 1, Err: fmt.Errorf("read header: %w", err)}
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range columns {
		if _, ok := idx[name]; !ok {
			return nil, &apperr.ParseError{Line: 1, Err: fmt.Errorf("missing column %q", name)}
		}
	}

	var out []models.Sighting
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &apperr.ParseError{Line: line, Err: err}
		}

		field := func(name string) string { return strings.TrimSpace(row[idx[name]]) }

		date, err := models.ParseDate(field("Date of Sighting"))
		if err != nil {
			return nil, &apperr.ParseError{Line: line, Err: err}
		}
		lat, err := strconv.ParseFloat(field("Latitude of Sighting"), 64)
		if err != nil {
			return nil, &apperr.ParseError{Line: line, Err: fmt.Errorf("latitude: %w", err)}
		}
		lng, err := strconv.ParseFloat(field("Longitude of Sighting"), 64)
		if err != nil {
			return nil, &apperr.ParseError{Line: line, Err: fmt.Errorf("longitude: %w", err)}
		}

		out = append(out, models.Sighting{
			Date:          date,
			Latitude:      lat,
			Longitude:     lng,
			City:          field("Nearest Approximate City"),
			State:         field("US State"),
			Notes:         field("Notes about the sighting"),
			TimeOfDay:     field("Time of Day"),
			ApparitionTag: field("Tag of Apparition"),
			ImageLink:     field("Image Link"),
		})
	}
	return out, nil
}

// Run parses the file and inserts the records in batches with a short delay
// between batches. A failed batch is counted and skipped; earlier batches
// stay persisted.
func (r *Runner) Run(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importer: open %s: %w", path, err)
	}
	defer f.Close()

	sightings, err := Parse(f)
	if err != nil {
		return nil, err
	}

	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = store.BatchSize
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sum := &Summary{Parsed: len(sightings)}
	totalBatches := (len(sightings) + batchSize - 1) / batchSize

	for i := 0; i < len(sightings); i += batchSize {
		end := i + batchSize
		if end > len(sightings) {
			end = len(sightings)
		}
		batch := sightings[i:end]
		batchNo := i/batchSize + 1

		logger.Info("inserting batch",
			slog.Int("batch", batchNo),
			slog.Int("total_batches", totalBatches),
			slog.Int("size", len(batch)))

		res := BatchResult{Batch: batchNo, Size: len(batch)}
		n, err := r.Store.InsertBatch(ctx, batch)
		if err != nil {
			res.Err = err
			sum.Failed += len(batch)
			logger.Error("batch insert failed",
				slog.Int("batch", batchNo),
				slog.String("error", err.Error()))
		} else {
			res.Inserted = n
			sum.Inserted += n
		}
		sum.Batches = append(sum.Batches, res)

		if end < len(sightings) && r.Delay > 0 {
			select {
			case <-time.After(r.Delay):
			case <-ctx.Done():
				return sum, ctx.Err()
			}
		}
	}

	logger.Info("import finished",
		slog.Int("parsed", sum.Parsed),
		slog.Int("inserted", sum.Inserted),
		slog.Int("failed", sum.Failed))
	return sum, nil
}

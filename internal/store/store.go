// Package store provides the sighting repository drivers.
package store

import (
	"context"

	"github.com/ashgrove/hauntmap/internal/models"
)

// BatchSize is the fixed page size used when reading from or writing bulk
// data to the backing store.
const BatchSize = 1000

// Store is the repository contract for sighting persistence.
//
// FetchAll returns every record ordered by date descending. Implementations
// page through the backing store in BatchSize batches, strictly
// sequentially, until a batch comes back short or empty; a failure in any
// batch discards prior batches and returns an *apperr.StoreError
// (all-or-nothing).
//
// Insert persists a record whose id is empty and returns the stored record
// carrying its store-assigned id. InsertBatch persists up to BatchSize
// records in one request and returns the number stored.
type Store interface {
	FetchAll(ctx context.Context) ([]models.Sighting, error)
	Insert(ctx context.Context, s models.Sighting) (models.Sighting, error)
	InsertBatch(ctx context.Context, batch []models.Sighting) (int, error)
	Close() error
}

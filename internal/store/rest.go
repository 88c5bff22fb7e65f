package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashgrove/hauntmap/internal/apperr"
	"github.com/ashgrove/hauntmap/internal/models"
)

const restTable = "sightings"

// REST is a Store driver for a PostgREST-compatible endpoint (e.g. a hosted
// Supabase project). All requests carry the project access key.
type REST struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewREST creates a REST driver. Endpoint and key are both required; their
// absence is a fatal startup condition and is rejected here.
func NewREST(endpoint, key string) (*REST, error) {
	if endpoint == "" || key == "" {
		return nil, fmt.Errorf("store: endpoint URL and access key are required")
	}
	return &REST{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (r *REST) tableURL() string {
	return r.endpoint + "/rest/v1/" + restTable
}

func (r *REST) setHeaders(req *http.Request) {
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("Accept", "application/json")
}

// FetchAll pages through the store in BatchSize batches ordered by date
// descending. Batches are requested strictly sequentially; an error in any
// batch discards everything fetched so far.
func (r *REST) FetchAll(ctx context.Context) ([]models.Sighting, error) {
	var all []models.Sighting
	for start := 0; ; start += BatchSize {
		rows, err := r.fetchRange(ctx, start, start+BatchSize-1)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			all = append(all, fromRow(row))
		}
		if len(rows) < BatchSize {
			break
		}
	}
	slog.Debug("fetched sightings from store", slog.Int("count", len(all)))
	return all, nil
}

func (r *REST) fetchRange(ctx context.Context, from, to int) ([]sightingRow, error) {
	u := r.tableURL() + "?select=*&order=date.desc"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &apperr.StoreError{Op: "fetch", Err: err}
	}
	r.setHeaders(req)
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", fmt.Sprintf("%d-%d", from, to))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &apperr.StoreError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, &apperr.StoreError{Op: "fetch", Err: statusError(resp)}
	}

	var rows []sightingRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &apperr.StoreError{Op: "fetch", Err: fmt.Errorf("decode batch: %w", err)}
	}
	return rows, nil
}

// Insert persists one record and returns the stored representation,
// including the store-assigned id.
func (r *REST) Insert(ctx context.Context, s models.Sighting) (models.Sighting, error) {
	rows, err := r.insert(ctx, []models.Sighting{s})
	if err != nil {
		return models.Sighting{}, err
	}
	if len(rows) == 0 {
		return models.Sighting{}, &apperr.StoreError{Op: "insert", Err: fmt.Errorf("store returned no representation")}
	}
	return fromRow(rows[0]), nil
}

// InsertBatch persists a batch in one request and returns the number stored.
func (r *REST) InsertBatch(ctx context.Context, batch []models.Sighting) (int, error) {
	rows, err := r.insert(ctx, batch)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *REST) insert(ctx context.Context, batch []models.Sighting) ([]sightingRow, error) {
	payload := make([]sightingRow, len(batch))
	for i, s := range batch {
		payload[i] = toRow(s)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &apperr.StoreError{Op: "insert", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tableURL(), bytes.NewReader(body))
	if err != nil {
		return nil, &apperr.StoreError{Op: "insert", Err: err}
	}
	r.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &apperr.StoreError{Op: "insert", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, &apperr.StoreError{Op: "insert", Err: statusError(resp)}
	}

	var rows []sightingRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &apperr.StoreError{Op: "insert", Err: fmt.Errorf("decode representation: %w", err)}
	}
	return rows, nil
}

// Close implements Store; the REST driver holds no connection state.
func (r *REST) Close() error { return nil }

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ashgrove/hauntmap/internal/apperr"
	"github.com/ashgrove/hauntmap/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sightings (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	date          TEXT NOT NULL,
	latitude      REAL NOT NULL,
	longitude     REAL NOT NULL,
	city          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	timeofday     TEXT NOT NULL DEFAULT '',
	apparitiontag TEXT NOT NULL DEFAULT '',
	imagelink     TEXT,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sightings_date ON sightings(date);
`

// SQLite is a Store driver backed by a local database file. It serves local
// development and tests; the contract matches the REST driver, including
// the batched, date-descending FetchAll.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// FetchAll reads the whole table in BatchSize pages ordered by date
// descending (id ascending within a date, so insertion order breaks ties).
func (s *SQLite) FetchAll(ctx context.Context) ([]models.Sighting, error) {
	var all []models.Sighting
	for offset := 0; ; offset += BatchSize {
		batch, err := s.fetchPage(ctx, BatchSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < BatchSize {
			break
		}
	}
	return all, nil
}

func (s *SQLite) fetchPage(ctx context.Context, limit, offset int) ([]models.Sighting, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, date, latitude, longitude, city, state, notes, timeofday, apparitiontag, imagelink
		FROM sightings
		ORDER BY date DESC, id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, &apperr.StoreError{Op: "fetch", Err: err}
	}
	defer rows.Close()

	var out []models.Sighting
	for rows.Next() {
		var (
			id   int64
			date string
			rec  models.Sighting
			link sql.NullString
		)
		if err := rows.Scan(&id, &date, &rec.Latitude, &rec.Longitude, &rec.City, &rec.State,
			&rec.Notes, &rec.TimeOfDay, &rec.ApparitionTag, &link); err != nil {
			return nil, &apperr.StoreError{Op: "fetch", Err: err}
		}
		parsed, err := models.ParseDate(date)
		if err != nil {
			return nil, &apperr.StoreError{Op: "fetch", Err: err}
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.Date = parsed
		if link.Valid {
			rec.ImageLink = link.String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.StoreError{Op: "fetch", Err: err}
	}
	return out, nil
}

// Insert persists one record and returns it with the assigned id.
func (s *SQLite) Insert(ctx context.Context, rec models.Sighting) (models.Sighting, error) {
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO sightings (date, latitude, longitude, city, state, notes, timeofday, apparitiontag, imagelink)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Date.String(), rec.Latitude, rec.Longitude, rec.City, rec.State,
		rec.Notes, rec.TimeOfDay, rec.ApparitionTag, nullable(rec.ImageLink))
	if err != nil {
		return models.Sighting{}, &apperr.StoreError{Op: "insert", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Sighting{}, &apperr.StoreError{Op: "insert", Err: err}
	}
	rec.ID = strconv.FormatInt(id, 10)
	return rec, nil
}

// InsertBatch persists a batch inside one transaction and returns the
// number stored.
func (s *SQLite) InsertBatch(ctx context.Context, batch []models.Sighting) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, &apperr.StoreError{Op: "insert", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sightings (date, latitude, longitude, city, state, notes, timeofday, apparitiontag, imagelink)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, &apperr.StoreError{Op: "insert", Err: err}
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.ExecContext(ctx, rec.Date.String(), rec.Latitude, rec.Longitude,
			rec.City, rec.State, rec.Notes, rec.TimeOfDay, rec.ApparitionTag, nullable(rec.ImageLink)); err != nil {
			return 0, &apperr.StoreError{Op: "insert", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, &apperr.StoreError{Op: "insert", Err: err}
	}
	return len(batch), nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

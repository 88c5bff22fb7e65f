package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashgrove/hauntmap/internal/apperr"
	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/store"
	"github.com/ashgrove/hauntmap/internal/testutil"
)

const csvHeader = "Date of Sighting,Latitude of Sighting,Longitude of Sighting,Nearest Approximate City,US State,Notes about the sighting,Time of Day,Tag of Apparition,Image Link\n"

func csvRow(date, city string) string {
	return fmt.Sprintf("%s,30.27,-97.74,%s,TX,saw a shape,Night,Shadow Figure,\n", date, city)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	in := csvHeader + csvRow("2024-01-01", "Austin") + csvRow("2024-01-02", "Salem")

	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parsed %d records, want 2", len(got))
	}
	if got[0].City != "Austin" || got[0].Latitude != 30.27 {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].ImageLink != "" {
		t.Errorf("imageLink = %q, want empty", got[1].ImageLink)
	}
}

func TestParseToleratesColumnOrder(t *testing.T) {
	in := "US State,Nearest Approximate City,Date of Sighting,Latitude of Sighting,Longitude of Sighting,Notes about the sighting,Time of Day,Tag of Apparition,Image Link\n" +
		"TX,Austin,2024-01-01,30.27,-97.74,saw a shape,Night,Shadow Figure,\n"

	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got[0].City != "Austin" || got[0].State != "TX" {
		t.Errorf("record = %+v", got[0])
	}
}

func TestParseMissingColumn(t *testing.T) {
	in := "Date of Sighting,Latitude of Sighting\n2024-01-01,30.27\n"

	_, err := Parse(strings.NewReader(in))
	var perr *apperr.ParseError
	if !errors.As(err, &perr) || perr.Line != 1 {
		t.Errorf("err = %v, want line-1 ParseError", err)
	}
}

func TestParseBadRowAborts(t *testing.T) {
	in := csvHeader +
		csvRow("2024-01-01", "Austin") +
		"not-a-date,30.27,-97.74,Salem,MA,notes,Night,Orb,\n"

	_, err := Parse(strings.NewReader(in))
	var perr *apperr.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if perr.Line != 3 {
		t.Errorf("line = %d, want 3", perr.Line)
	}
}

func TestRunBatches(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	for i := 0; i < 5; i++ {
		sb.WriteString(csvRow("2024-01-01", fmt.Sprintf("City %d", i)))
	}
	path := writeCSV(t, sb.String())

	st := testutil.TestStore(t)
	r := &Runner{Store: st, BatchSize: 2}

	sum, err := r.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Parsed != 5 || sum.Inserted != 5 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sum.Batches) != 3 {
		t.Errorf("batches = %d, want 3", len(sum.Batches))
	}

	got, err := st.FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("store holds %d records, want 5", len(got))
	}
}

// flakyStore fails a chosen batch and otherwise delegates to the real store.
type flakyStore struct {
	inner    store.Store
	calls    int
	failCall int
}

func (f *flakyStore) FetchAll(ctx context.Context) ([]models.Sighting, error) {
	return f.inner.FetchAll(ctx)
}
func (f *flakyStore) Insert(context.Context, models.Sighting) (models.Sighting, error) {
	return models.Sighting{}, errors.New("not used")
}
func (f *flakyStore) InsertBatch(ctx context.Context, batch []models.Sighting) (int, error) {
	f.calls++
	if f.calls == f.failCall {
		return 0, errors.New("batch rejected")
	}
	return f.inner.InsertBatch(ctx, batch)
}
func (f *flakyStore) Close() error { return nil }

func TestRunSkipsFailedBatch(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	for i := 0; i < 6; i++ {
		sb.WriteString(csvRow("2024-01-01", fmt.Sprintf("City %d", i)))
	}
	path := writeCSV(t, sb.String())

	st := testutil.TestStore(t)
	flaky := &flakyStore{inner: st, failCall: 2}
	r := &Runner{Store: flaky, BatchSize: 2}

	sum, err := r.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Inserted != 4 || sum.Failed != 2 {
		t.Errorf("inserted = %d, failed = %d, want 4/2", sum.Inserted, sum.Failed)
	}
	if sum.Batches[1].Err == nil {
		t.Error("failed batch not reported")
	}

	// Earlier and later batches stay persisted.
	got, err := st.FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("store holds %d records, want 4", len(got))
	}
}

func TestRunParseFailureInsertsNothing(t *testing.T) {
	path := writeCSV(t, csvHeader+csvRow("2024-01-01", "Austin")+"bad,row,,,,,,,\n")

	st := testutil.TestStore(t)
	r := &Runner{Store: st, BatchSize: 2}

	if _, err := r.Run(context.Background(), path); err == nil {
		t.Fatal("expected parse failure")
	}
	got, err := st.FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("store holds %d records after aborted parse, want 0", len(got))
	}
}

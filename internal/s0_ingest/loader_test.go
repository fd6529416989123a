package s0_ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

func TestCSVLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bars.csv")

	data := `Name,Date,Close,Volume
AAA,2026-01-02,10.0,100
BBB,2026-01-02,20.0,200
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	loader := NewCSVLoader(path, logger.NewNop())
	set, report, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("set len = %d, want 2", set.Len())
	}
	if report.RowsAccepted != 2 {
		t.Errorf("accepted = %d, want 2", report.RowsAccepted)
	}
}

func TestCSVLoader_CancelledContext(t *testing.T) {
	loader := NewCSVLoader("whatever.csv", logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := loader.Load(ctx)
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

// fakeBarRepo serves canned series for DBLoader tests
type fakeBarRepo struct {
	series []*contracts.Series
	err    error
}

func (f *fakeBarRepo) SaveSeries(ctx context.Context, series *contracts.Series) error { return nil }
func (f *fakeBarRepo) SaveBatch(ctx context.Context, set *contracts.SeriesSet) error  { return nil }
func (f *fakeBarRepo) LoadSeries(ctx context.Context, from, to time.Time) ([]*contracts.Series, error) {
	return f.series, f.err
}
func (f *fakeBarRepo) LoadSymbol(ctx context.Context, symbol string, from, to time.Time) (*contracts.Series, error) {
	for _, s := range f.series {
		if s.Symbol == symbol {
			return s, nil
		}
	}
	return &contracts.Series{Symbol: symbol}, nil
}
func (f *fakeBarRepo) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	return time.Time{}, nil
}
func (f *fakeBarRepo) CountBars(ctx context.Context) (int64, error) { return 0, nil }

func TestDBLoader_Load(t *testing.T) {
	repo := &fakeBarRepo{series: []*contracts.Series{
		seriesOf("BBB", day(2026, 1, 2), 2, 4),
		seriesOf("AAA", day(2026, 1, 2), 1, 2, 3),
	}}

	loader := NewDBLoader(repo, time.Time{}, time.Time{}, logger.NewNop())
	set, report, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if set.Len() != 2 {
		t.Errorf("set len = %d, want 2", set.Len())
	}
	if set.Symbols[0] != "AAA" || set.Symbols[1] != "BBB" {
		t.Errorf("symbols = %v, want sorted", set.Symbols)
	}
	if report.Source != "database" {
		t.Errorf("source = %q, want database", report.Source)
	}
	if report.RowsAccepted != 5 {
		t.Errorf("accepted = %d, want 5", report.RowsAccepted)
	}
}

func TestDBLoader_Empty(t *testing.T) {
	loader := NewDBLoader(&fakeBarRepo{}, time.Time{}, time.Time{}, logger.NewNop())

	_, _, err := loader.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for empty database")
	}
}

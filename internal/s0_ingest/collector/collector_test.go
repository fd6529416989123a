package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// fakeSource serves canned bars per symbol
type fakeSource struct {
	bars map[string][]contracts.Bar
	errs map[string]error
}

func (f *fakeSource) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

func (f *fakeSource) Name() string { return "fake" }

// memTickerRepo is an in-memory ticker repository
type memTickerRepo struct {
	tickers []*contracts.Ticker
}

func (m *memTickerRepo) Save(ctx context.Context, t *contracts.Ticker) error { return nil }
func (m *memTickerRepo) SaveBatch(ctx context.Context, t []*contracts.Ticker) error {
	return nil
}
func (m *memTickerRepo) Get(ctx context.Context, symbol string) (*contracts.Ticker, error) {
	return nil, errors.New("not found")
}
func (m *memTickerRepo) List(ctx context.Context) ([]*contracts.Ticker, error) {
	return m.tickers, nil
}

// memBarRepo records saved series, safe for concurrent workers
type memBarRepo struct {
	mu    sync.Mutex
	saved map[string]int
}

func newMemBarRepo() *memBarRepo {
	return &memBarRepo{saved: make(map[string]int)}
}

func (m *memBarRepo) SaveSeries(ctx context.Context, series *contracts.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[series.Symbol] = len(series.Bars)
	return nil
}
func (m *memBarRepo) SaveBatch(ctx context.Context, set *contracts.SeriesSet) error { return nil }
func (m *memBarRepo) LoadSeries(ctx context.Context, from, to time.Time) ([]*contracts.Series, error) {
	return nil, nil
}
func (m *memBarRepo) LoadSymbol(ctx context.Context, symbol string, from, to time.Time) (*contracts.Series, error) {
	return nil, nil
}
func (m *memBarRepo) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	return time.Time{}, nil
}
func (m *memBarRepo) CountBars(ctx context.Context) (int64, error) { return 0, nil }

func testBars(n int) []contracts.Bar {
	bars := make([]contracts.Bar, n)
	for i := range bars {
		bars[i] = contracts.Bar{Date: day(2026, 1, 2).AddDate(0, 0, i), Close: 10 + float64(i), Volume: 100}
	}
	return bars
}

func TestFetchSymbols(t *testing.T) {
	source := &fakeSource{
		bars: map[string][]contracts.Bar{
			"AAA": testBars(3),
			"BBB": testBars(5),
			"CCC": testBars(2),
		},
	}
	barRepo := newMemBarRepo()

	c := NewCollector(source, &memTickerRepo{}, barRepo, logger.NewNop())

	results, err := c.FetchSymbols(context.Background(), []string{"AAA", "BBB", "CCC"}, day(2026, 1, 1), day(2026, 1, 31), Config{Workers: 2})
	if err != nil {
		t.Fatalf("FetchSymbols failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Failed() {
			t.Errorf("symbol %s unexpectedly failed: %v", r.Symbol, r.Error)
		}
	}

	if barRepo.saved["AAA"] != 3 || barRepo.saved["BBB"] != 5 || barRepo.saved["CCC"] != 2 {
		t.Errorf("saved = %v, want AAA:3 BBB:5 CCC:2", barRepo.saved)
	}
}

func TestFetchSymbols_PartialFailure(t *testing.T) {
	source := &fakeSource{
		bars: map[string][]contracts.Bar{
			"AAA": testBars(3),
			"CCC": testBars(2),
		},
		errs: map[string]error{
			"BBB": errors.New("upstream 404"),
		},
	}
	barRepo := newMemBarRepo()

	c := NewCollector(source, &memTickerRepo{}, barRepo, logger.NewNop())

	results, err := c.FetchSymbols(context.Background(), []string{"AAA", "BBB", "CCC"}, time.Time{}, time.Time{}, Config{Workers: 3})
	if err != nil {
		t.Fatalf("FetchSymbols failed: %v", err)
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			if r.Symbol != "BBB" {
				t.Errorf("unexpected failed symbol %s", r.Symbol)
			}
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	// The two good symbols were still saved
	if len(barRepo.saved) != 2 {
		t.Errorf("saved = %v, want 2 symbols", barRepo.saved)
	}
}

func TestFetchAll_UsesTickerDirectory(t *testing.T) {
	source := &fakeSource{
		bars: map[string][]contracts.Bar{
			"AAA": testBars(1),
			"BBB": testBars(1),
		},
	}
	tickerRepo := &memTickerRepo{tickers: []*contracts.Ticker{
		{Symbol: "AAA", Name: "Alpha"},
		{Symbol: "BBB", Name: "Beta"},
	}}
	barRepo := newMemBarRepo()

	c := NewCollector(source, tickerRepo, barRepo, logger.NewNop())

	results, err := c.FetchAll(context.Background(), time.Time{}, time.Time{}, Config{Workers: 1})
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}

func TestFetchSymbols_Empty(t *testing.T) {
	c := NewCollector(&fakeSource{}, &memTickerRepo{}, newMemBarRepo(), logger.NewNop())

	results, err := c.FetchSymbols(context.Background(), nil, time.Time{}, time.Time{}, Config{Workers: 4})
	if err != nil {
		t.Fatalf("FetchSymbols failed: %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

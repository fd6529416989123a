package s1_similarity

import (
	"math"
	"testing"
	"time"

	"github.com/wonny/prism/internal/contracts"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func seriesOf(symbol string, start time.Time, closes ...float64) *contracts.Series {
	s := &contracts.Series{Symbol: symbol}
	for i, c := range closes {
		s.Bars = append(s.Bars, contracts.Bar{
			Date:   start.AddDate(0, 0, i),
			Close:  c,
			Volume: 100,
		})
	}
	return s
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name   string
		x, y   []float64
		want   float64
		wantOK bool
	}{
		{"perfect positive", []float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10}, 1.0, true},
		{"perfect negative", []float64{1, 2, 3, 4, 5}, []float64{5, 4, 3, 2, 1}, -1.0, true},
		{"identical", []float64{3, 1, 4, 1, 5}, []float64{3, 1, 4, 1, 5}, 1.0, true},
		{"single sample", []float64{1}, []float64{2}, 0, false},
		{"empty", nil, nil, 0, false},
		{"zero variance left", []float64{7, 7, 7}, []float64{1, 2, 3}, 0, false},
		{"zero variance right", []float64{1, 2, 3}, []float64{7, 7, 7}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pearson(tt.x, tt.y)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("r = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPearson_Bounded(t *testing.T) {
	// Noisy but correlated data stays within [-1, 1]
	x := []float64{1, 2, 2.5, 4, 4.8, 6, 7.2, 8}
	y := []float64{1.1, 1.9, 3, 3.8, 5.2, 5.9, 7, 8.3}

	r, ok := pearson(x, y)
	if !ok {
		t.Fatal("expected defined correlation")
	}
	if r < -1 || r > 1 {
		t.Errorf("r = %v out of bounds", r)
	}
	if r < 0.9 {
		t.Errorf("r = %v, expected strong positive", r)
	}
}

func TestAlignByDate(t *testing.T) {
	start := day(2026, 1, 2)
	a := seriesOf("AAA", start, 1, 2, 3, 4, 5)

	// BBB starts two days later and runs past AAA's end
	b := seriesOf("BBB", start.AddDate(0, 0, 2), 30, 40, 50, 60, 70)

	x, y := alignByDate(a, b)
	if len(x) != 3 || len(y) != 3 {
		t.Fatalf("aligned %d/%d samples, want 3/3", len(x), len(y))
	}

	// Overlap is AAA days 2..4 paired with BBB days 0..2
	wantX := []float64{3, 4, 5}
	wantY := []float64{30, 40, 50}
	for i := range wantX {
		if x[i] != wantX[i] || y[i] != wantY[i] {
			t.Errorf("pair %d = (%v, %v), want (%v, %v)", i, x[i], y[i], wantX[i], wantY[i])
		}
	}
}

func TestAlignByDate_NoOverlap(t *testing.T) {
	a := seriesOf("AAA", day(2026, 1, 2), 1, 2, 3)
	b := seriesOf("BBB", day(2026, 6, 1), 4, 5, 6)

	x, y := alignByDate(a, b)
	if len(x) != 0 || len(y) != 0 {
		t.Errorf("aligned %d/%d samples, want none", len(x), len(y))
	}
}

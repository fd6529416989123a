package s3_trend

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/logger"
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

func score(t *testing.T, minDays int, series ...*contracts.Series) ([]contracts.TrendScore, *contracts.Diagnostics) {
	t.Helper()

	s := NewScorer(strategyconfig.Trend{MinDays: minDays}, logger.NewNop())
	scores, diags, err := s.Score(context.Background(), contracts.NewSeriesSet(series))
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	return scores, diags
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestOLSFit(t *testing.T) {
	tests := []struct {
		name      string
		y         []float64
		slope     float64
		intercept float64
		r2        float64
	}{
		{"rising line", []float64{1, 2, 3, 4, 5}, 1, 1, 1},
		{"falling line", []float64{10, 8, 6, 4, 2}, -2, 10, 1},
		{"two points", []float64{3, 7}, 4, 3, 1},
		{"flat", []float64{5, 5, 5, 5}, 0, 5, 0},
		{"noisy", []float64{1, 2, 2, 4, 3}, 0.6, 1.2, 0.6923076923076923},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slope, intercept, r2 := olsFit(tt.y)
			if !almostEqual(slope, tt.slope) {
				t.Errorf("slope = %v, want %v", slope, tt.slope)
			}
			if !almostEqual(intercept, tt.intercept) {
				t.Errorf("intercept = %v, want %v", intercept, tt.intercept)
			}
			if !almostEqual(r2, tt.r2) {
				t.Errorf("r2 = %v, want %v", r2, tt.r2)
			}
		})
	}
}

func TestScore_Basic(t *testing.T) {
	start := day(2026, 1, 2)
	scores, diags := score(t, 2,
		seriesOf("BBB", start, 10, 8, 6, 4, 2),
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
	)

	if len(scores) != 2 {
		t.Fatalf("scores = %d, want 2", len(scores))
	}

	// Symbol order regardless of input order
	if scores[0].Symbol != "AAA" || scores[1].Symbol != "BBB" {
		t.Fatalf("order = %s, %s", scores[0].Symbol, scores[1].Symbol)
	}
	if !almostEqual(scores[0].Slope, 1) || !scores[0].Rising() {
		t.Errorf("AAA slope = %v, want 1", scores[0].Slope)
	}
	if !almostEqual(scores[1].Slope, -2) || scores[1].Rising() {
		t.Errorf("BBB slope = %v, want -2", scores[1].Slope)
	}
	if scores[0].Days != 5 || scores[1].Days != 5 {
		t.Errorf("days = %d/%d, want 5/5", scores[0].Days, scores[1].Days)
	}
	if diags.HasFindings() {
		t.Errorf("unexpected findings: %+v", diags)
	}
}

func TestScore_SingleDayFlagged(t *testing.T) {
	start := day(2026, 1, 2)
	scores, diags := score(t, 2,
		seriesOf("AAA", start, 1, 2, 3),
		seriesOf("ONE", start, 42),
	)

	var one *contracts.TrendScore
	for i := range scores {
		if scores[i].Symbol == "ONE" {
			one = &scores[i]
		}
	}
	if one == nil {
		t.Fatal("ONE missing from scores")
	}
	if one.Slope != 0 || one.Intercept != 0 || one.R2 != 0 {
		t.Errorf("fallback score = %+v, want zeros", one)
	}
	if !one.InsufficientData {
		t.Error("single-day ticker not flagged")
	}
	if one.Days != 1 {
		t.Errorf("days = %d, want 1", one.Days)
	}

	if len(diags.ShortTrendSymbols) != 1 || diags.ShortTrendSymbols[0] != "ONE" {
		t.Errorf("short trend symbols = %v, want [ONE]", diags.ShortTrendSymbols)
	}
}

func TestScore_MinDaysThreshold(t *testing.T) {
	start := day(2026, 1, 2)
	scores, diags := score(t, 5,
		seriesOf("AAA", start, 1, 2, 3),
	)

	if !scores[0].InsufficientData || scores[0].Slope != 0 {
		t.Errorf("three bars under min_days=5 must flag: %+v", scores[0])
	}
	if len(diags.ShortTrendSymbols) != 1 {
		t.Errorf("short trend symbols = %v", diags.ShortTrendSymbols)
	}
}

func TestScore_FlatSeries(t *testing.T) {
	scores, diags := score(t, 2,
		seriesOf("FLT", day(2026, 1, 2), 7, 7, 7),
	)

	if scores[0].Slope != 0 {
		t.Errorf("flat slope = %v, want 0", scores[0].Slope)
	}
	if !almostEqual(scores[0].Intercept, 7) {
		t.Errorf("flat intercept = %v, want 7", scores[0].Intercept)
	}
	if scores[0].InsufficientData {
		t.Error("flat series wrongly flagged")
	}
	if diags.HasFindings() {
		t.Errorf("unexpected findings: %+v", diags)
	}
}

func TestScore_EmptySet(t *testing.T) {
	scores, diags := score(t, 2)
	if len(scores) != 0 {
		t.Errorf("scores = %v, want none", scores)
	}
	if diags.HasFindings() {
		t.Errorf("unexpected findings: %+v", diags)
	}
}

func TestScore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScorer(strategyconfig.Trend{MinDays: 2}, logger.NewNop())
	set := contracts.NewSeriesSet([]*contracts.Series{seriesOf("AAA", day(2026, 1, 2), 1, 2)})
	if _, _, err := s.Score(ctx, set); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

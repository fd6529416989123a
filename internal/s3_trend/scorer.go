package s3_trend

import (
	"context"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/logger"
)

// Scorer implements contracts.TrendScorer: ordinary least squares of
// close against the 0-based day index.
type Scorer struct {
	cfg    strategyconfig.Trend
	logger *logger.Logger
}

// NewScorer creates a new trend scorer
func NewScorer(cfg strategyconfig.Trend, log *logger.Logger) *Scorer {
	if cfg.MinDays < 2 {
		cfg.MinDays = 2
	}
	return &Scorer{
		cfg:    cfg,
		logger: log.Component("trend"),
	}
}

// Score computes one TrendScore per ticker, in symbol order. A ticker
// with fewer than min_days bars keeps slope 0.0 and is flagged in the
// diagnostics instead of failing the run.
func (s *Scorer) Score(ctx context.Context, set *contracts.SeriesSet) ([]contracts.TrendScore, *contracts.Diagnostics, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	diags := contracts.NewDiagnostics()
	scores := make([]contracts.TrendScore, 0, set.Len())
	short := 0

	for _, sym := range set.Symbols {
		series, _ := set.Get(sym)
		closes := series.Closes()

		score := contracts.TrendScore{Symbol: sym, Days: len(closes)}
		if len(closes) < s.cfg.MinDays {
			score.InsufficientData = true
			diags.FlagShortTrend(sym)
			short++
			s.logger.WithFields(map[string]interface{}{
				"symbol":   sym,
				"days":     len(closes),
				"min_days": s.cfg.MinDays,
			}).Warn("Not enough bars for a trend, slope defaults to 0")
		} else {
			score.Slope, score.Intercept, score.R2 = olsFit(closes)
		}
		scores = append(scores, score)
	}

	s.logger.WithFields(map[string]interface{}{
		"tickers": len(scores),
		"short":   short,
	}).Info("Trend scores computed")

	return scores, diags, nil
}

// olsFit regresses y against x = 0..n-1 and returns slope, intercept
// and R². Callers guarantee n >= 2, so the x variance is never zero;
// a flat y series returns slope 0 with R² 0.
func olsFit(y []float64) (slope, intercept, r2 float64) {
	n := float64(len(y))

	var ybar float64
	for _, v := range y {
		ybar += v
	}
	ybar /= n
	xbar := (n - 1) / 2

	var sxy, sxx, syy float64
	for i, v := range y {
		dx := float64(i) - xbar
		dy := v - ybar
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	slope = sxy / sxx
	intercept = ybar - slope*xbar
	if syy == 0 {
		return slope, intercept, 0
	}
	return slope, intercept, (sxy * sxy) / (sxx * syy)
}

package s0_ingest

import (
	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// QualityGate inspects the ingested dataset before analysis starts
type QualityGate struct {
	minDays int
	logger  *logger.Logger
}

// NewQualityGate creates a gate flagging series shorter than minDays
func NewQualityGate(minDays int, log *logger.Logger) *QualityGate {
	return &QualityGate{
		minDays: minDays,
		logger:  log.Component("quality"),
	}
}

// Check builds a snapshot of the dataset. Short series are flagged but
// pass through; only an empty dataset fails the gate.
func (g *QualityGate) Check(set *contracts.SeriesSet) *contracts.QualitySnapshot {
	snapshot := &contracts.QualitySnapshot{
		Tickers: set.Len(),
		Bars:    set.TotalBars(),
	}

	for _, symbol := range set.Symbols {
		series := set.Series[symbol]
		if series.Days() < g.minDays {
			snapshot.ShortSeries = append(snapshot.ShortSeries, symbol)
		}

		first, last := series.FirstDate(), series.LastDate()
		if snapshot.FirstDate.IsZero() || first.Before(snapshot.FirstDate) {
			snapshot.FirstDate = first
		}
		if last.After(snapshot.LastDate) {
			snapshot.LastDate = last
		}
	}

	snapshot.Passed = snapshot.IsValid()

	g.logger.WithFields(map[string]interface{}{
		"tickers":      snapshot.Tickers,
		"bars":         snapshot.Bars,
		"short_series": len(snapshot.ShortSeries),
		"passed":       snapshot.Passed,
	}).Info("Quality snapshot")

	return snapshot
}

package contracts

import (
	"sort"
	"time"
)

// DateKeyFormat is the canonical key format for aligning bars by calendar date
const DateKeyFormat = "2006-01-02"

// Bar represents one daily observation for a ticker
type Bar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// DateKey returns the bar's date in canonical key form
func (b Bar) DateKey() string {
	return b.Date.Format(DateKeyFormat)
}

// Series holds one ticker's bars ordered by date ascending.
// A bar's slice position is its trading day index: 0..n-1 with no gaps.
type Series struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
	Bars   []Bar  `json:"bars"`
}

// Days returns the number of trading days in the series
func (s *Series) Days() int {
	return len(s.Bars)
}

// Closes returns the close prices in day index order
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		closes[i] = bar.Close
	}
	return closes
}

// CloseByDate returns closes keyed by canonical date key
func (s *Series) CloseByDate() map[string]float64 {
	byDate := make(map[string]float64, len(s.Bars))
	for _, bar := range s.Bars {
		byDate[bar.DateKey()] = bar.Close
	}
	return byDate
}

// FirstDate returns the earliest bar date (zero time when empty)
func (s *Series) FirstDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Date
}

// LastDate returns the latest bar date (zero time when empty)
func (s *Series) LastDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}

// SeriesSet is the ingested dataset: one series per ticker plus the
// sorted symbol list used for deterministic iteration.
type SeriesSet struct {
	Symbols []string           `json:"symbols"`
	Series  map[string]*Series `json:"series"`
}

// NewSeriesSet builds a set from series, sorting symbols ascending
func NewSeriesSet(series []*Series) *SeriesSet {
	set := &SeriesSet{
		Symbols: make([]string, 0, len(series)),
		Series:  make(map[string]*Series, len(series)),
	}
	for _, s := range series {
		if _, exists := set.Series[s.Symbol]; exists {
			continue
		}
		set.Series[s.Symbol] = s
		set.Symbols = append(set.Symbols, s.Symbol)
	}
	sort.Strings(set.Symbols)
	return set
}

// Get returns the series for a symbol
func (ss *SeriesSet) Get(symbol string) (*Series, bool) {
	s, ok := ss.Series[symbol]
	return s, ok
}

// Len returns the number of tickers in the set
func (ss *SeriesSet) Len() int {
	return len(ss.Symbols)
}

// TotalBars returns the number of bars across all tickers
func (ss *SeriesSet) TotalBars() int {
	total := 0
	for _, s := range ss.Series {
		total += len(s.Bars)
	}
	return total
}

package contracts

import "time"

// RejectedRow records one skipped input row
type RejectedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// IngestReport summarizes one dataset load
type IngestReport struct {
	Source       string        `json:"source"`
	RowsRead     int           `json:"rows_read"`
	RowsAccepted int           `json:"rows_accepted"`
	RowsRejected int           `json:"rows_rejected"`
	Duplicates   int           `json:"duplicates"`
	Tickers      int           `json:"tickers"`
	Rejects      []RejectedRow `json:"rejects,omitempty"` // capped sample
}

// AcceptRate returns the fraction of read rows that were accepted
func (r *IngestReport) AcceptRate() float64 {
	if r.RowsRead == 0 {
		return 0.0
	}
	return float64(r.RowsAccepted) / float64(r.RowsRead)
}

// QualitySnapshot describes the ingested dataset before analysis
type QualitySnapshot struct {
	Tickers     int       `json:"tickers"`
	Bars        int       `json:"bars"`
	FirstDate   time.Time `json:"first_date"`
	LastDate    time.Time `json:"last_date"`
	ShortSeries []string  `json:"short_series,omitempty"` // below the trend minimum
	Passed      bool      `json:"passed"`
}

// IsValid checks if the snapshot meets minimum requirements for a run
func (q *QualitySnapshot) IsValid() bool {
	return q.Tickers > 0 && q.Bars > 0
}

// ShortSeriesRate returns the fraction of tickers below the trend minimum
func (q *QualitySnapshot) ShortSeriesRate() float64 {
	if q.Tickers == 0 {
		return 0.0
	}
	return float64(len(q.ShortSeries)) / float64(q.Tickers)
}

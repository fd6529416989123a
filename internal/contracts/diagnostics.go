package contracts

import (
	"fmt"
	"sort"
)

// Diagnostics accumulates non-fatal findings across pipeline stages.
// Data errors and undefined computations land here instead of aborting
// the run; the collection travels into the final report metadata.
type Diagnostics struct {
	RowsRejected         int      `json:"rows_rejected"`
	DuplicateRows        int      `json:"duplicate_rows"`
	PairsSkippedOverlap  int      `json:"pairs_skipped_overlap"`
	PairsSkippedVariance int      `json:"pairs_skipped_variance"`
	ShortTrendSymbols    []string `json:"short_trend_symbols,omitempty"`
	Warnings             []string `json:"warnings,omitempty"`
}

// NewDiagnostics creates an empty diagnostics collection
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Warnf appends a formatted warning
func (d *Diagnostics) Warnf(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// FlagShortTrend records a ticker whose trend fell back to 0.0
func (d *Diagnostics) FlagShortTrend(symbol string) {
	d.ShortTrendSymbols = append(d.ShortTrendSymbols, symbol)
	sort.Strings(d.ShortTrendSymbols)
}

// Merge folds another collection into this one
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.RowsRejected += other.RowsRejected
	d.DuplicateRows += other.DuplicateRows
	d.PairsSkippedOverlap += other.PairsSkippedOverlap
	d.PairsSkippedVariance += other.PairsSkippedVariance
	d.ShortTrendSymbols = append(d.ShortTrendSymbols, other.ShortTrendSymbols...)
	sort.Strings(d.ShortTrendSymbols)
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// HasFindings reports whether anything was recorded
func (d *Diagnostics) HasFindings() bool {
	return d.RowsRejected > 0 ||
		d.DuplicateRows > 0 ||
		d.PairsSkippedOverlap > 0 ||
		d.PairsSkippedVariance > 0 ||
		len(d.ShortTrendSymbols) > 0 ||
		len(d.Warnings) > 0
}

package s0_ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// Required CSV header columns. Extra columns are ignored.
const (
	colSymbol = "name"
	colDate   = "date"
	colClose  = "close"
	colVolume = "volume"
)

// Accepted date layouts, tried in order
var dateLayouts = []string{"2006-01-02", "2006/01/02"}

// maxRejectSamples caps the per-report reject detail list
const maxRejectSamples = 50

// Reader parses daily bar CSV into a SeriesSet. Row-level failures are
// skipped and reported, never fatal; only an unreadable file, a broken
// header or an empty result aborts the load.
type Reader struct {
	logger *logger.Logger
}

// NewReader creates a new CSV reader
func NewReader(log *logger.Logger) *Reader {
	return &Reader{logger: log.Component("ingest")}
}

// ReadFile parses the CSV file at path
func (r *Reader) ReadFile(path string) (*contracts.SeriesSet, *contracts.IngestReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return r.Read(f, path)
}

// Read parses CSV rows from src. The source name only labels the report.
func (r *Reader) Read(src io.Reader, source string) (*contracts.SeriesSet, *contracts.IngestReport, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	report := &contracts.IngestReport{Source: source}

	bars := make(map[string][]contracts.Bar)
	seen := make(map[string]map[string]bool)

	line := 1 // header consumed
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		report.RowsRead++
		if err != nil {
			// Malformed CSV rows (bare quotes etc) are data errors too
			r.reject(report, line, "malformed row")
			continue
		}

		symbol, bar, reason := parseRow(record, cols)
		if reason != "" {
			r.reject(report, line, reason)
			continue
		}

		key := bar.DateKey()
		if seen[symbol] == nil {
			seen[symbol] = make(map[string]bool)
		}
		if seen[symbol][key] {
			// First occurrence wins
			report.Duplicates++
			r.logger.WithFields(map[string]interface{}{
				"line":   line,
				"symbol": symbol,
				"date":   key,
			}).Warn("Duplicate bar skipped")
			continue
		}
		seen[symbol][key] = true

		bars[symbol] = append(bars[symbol], bar)
		report.RowsAccepted++
	}

	if report.RowsAccepted == 0 {
		return nil, report, fmt.Errorf("no rows accepted from %s (%d read, %d rejected)",
			source, report.RowsRead, report.RowsRejected)
	}

	series := make([]*contracts.Series, 0, len(bars))
	for symbol, symbolBars := range bars {
		sort.Slice(symbolBars, func(i, j int) bool {
			return symbolBars[i].Date.Before(symbolBars[j].Date)
		})
		series = append(series, &contracts.Series{
			Symbol: symbol,
			Bars:   symbolBars,
		})
	}

	set := contracts.NewSeriesSet(series)
	report.Tickers = set.Len()

	r.logger.WithFields(map[string]interface{}{
		"source":   source,
		"read":     report.RowsRead,
		"accepted": report.RowsAccepted,
		"rejected": report.RowsRejected,
		"dupes":    report.Duplicates,
		"tickers":  report.Tickers,
	}).Info("Dataset loaded")

	return set, report, nil
}

// columns holds resolved header positions
type columns struct {
	symbol int
	date   int
	close  int
	volume int
	max    int
}

// resolveColumns locates required columns case-insensitively
func resolveColumns(header []string) (columns, error) {
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := columns{symbol: -1, date: -1, close: -1, volume: -1}
	var ok bool
	if cols.symbol, ok = idx[colSymbol]; !ok {
		return cols, fmt.Errorf("header missing required column %q", colSymbol)
	}
	if cols.date, ok = idx[colDate]; !ok {
		return cols, fmt.Errorf("header missing required column %q", colDate)
	}
	if cols.close, ok = idx[colClose]; !ok {
		return cols, fmt.Errorf("header missing required column %q", colClose)
	}
	if cols.volume, ok = idx[colVolume]; !ok {
		return cols, fmt.Errorf("header missing required column %q", colVolume)
	}

	cols.max = cols.symbol
	for _, i := range []int{cols.date, cols.close, cols.volume} {
		if i > cols.max {
			cols.max = i
		}
	}
	return cols, nil
}

// parseRow validates one record. Returns a non-empty reason on rejection.
func parseRow(record []string, cols columns) (string, contracts.Bar, string) {
	var bar contracts.Bar

	if len(record) <= cols.max {
		return "", bar, "wrong column count"
	}

	symbol := strings.TrimSpace(record[cols.symbol])
	if symbol == "" {
		return "", bar, "empty symbol"
	}

	date, err := parseDate(strings.TrimSpace(record[cols.date]))
	if err != nil {
		return "", bar, "unparseable date"
	}

	closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[cols.close]), 64)
	if err != nil || math.IsNaN(closePrice) || math.IsInf(closePrice, 0) {
		return "", bar, "unparseable close"
	}
	if closePrice <= 0 {
		return "", bar, "non-positive close"
	}

	volume, err := strconv.ParseFloat(strings.TrimSpace(record[cols.volume]), 64)
	if err != nil || math.IsNaN(volume) || math.IsInf(volume, 0) {
		return "", bar, "unparseable volume"
	}
	if volume < 0 {
		return "", bar, "negative volume"
	}

	bar.Date = date
	bar.Close = closePrice
	bar.Volume = volume
	return symbol, bar, ""
}

// parseDate tries the accepted layouts in order
func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// reject records a skipped row, sampling detail up to the cap
func (r *Reader) reject(report *contracts.IngestReport, line int, reason string) {
	report.RowsRejected++
	if len(report.Rejects) < maxRejectSamples {
		report.Rejects = append(report.Rejects, contracts.RejectedRow{
			Line:   line,
			Reason: reason,
		})
	}
	r.logger.WithFields(map[string]interface{}{
		"line":   line,
		"reason": reason,
	}).Warn("Row rejected")
}

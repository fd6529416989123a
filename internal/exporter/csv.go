package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// CSVWriter exports report picks as CSV files
type CSVWriter struct {
	logger *logger.Logger
}

// NewCSVWriter creates a new CSV writer
func NewCSVWriter(log *logger.Logger) *CSVWriter {
	return &CSVWriter{logger: log.Component("exporter")}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM so Excel opens the file correctly
}

// WriteFile writes rows to a CSV file, creating parent directories
func (w *CSVWriter) WriteFile(path string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":    path,
		"records": len(options.Records),
	}).Info("Wrote CSV export")
	return nil
}

// WriteReport writes a report's picks, one row per pick
func (w *CSVWriter) WriteReport(path string, report *contracts.Report) error {
	return w.WriteFile(path, WriteOptions{
		Headers:   pickHeaders(),
		Records:   pickRecords(report),
		BOMPrefix: true,
	})
}

func pickHeaders() []string {
	return []string{"run_id", "community_id", "community_size", "rank", "symbol", "slope"}
}

func pickRecords(report *contracts.Report) [][]string {
	records := make([][]string, 0, report.PickCount())
	for _, community := range report.Communities {
		for _, pick := range community.Picks {
			records = append(records, []string{
				report.RunID,
				strconv.Itoa(community.CommunityID),
				strconv.Itoa(community.Size),
				strconv.Itoa(pick.Rank),
				pick.Symbol,
				formatSlope(pick.Slope),
			})
		}
	}
	return records
}

func formatSlope(slope float64) string {
	return strconv.FormatFloat(slope, 'f', -1, 64)
}

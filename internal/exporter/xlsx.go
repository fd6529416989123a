package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// Workbook sheet names
const (
	sheetSummary     = "Summary"
	sheetPicks       = "Picks"
	sheetDiagnostics = "Diagnostics"
)

// XLSXWriter exports the full report as an Excel workbook with
// summary, picks and diagnostics sheets
type XLSXWriter struct {
	logger *logger.Logger
}

// NewXLSXWriter creates a new XLSX writer
func NewXLSXWriter(log *logger.Logger) *XLSXWriter {
	return &XLSXWriter{logger: log.Component("exporter")}
}

// WriteReport writes the report workbook, creating parent directories
func (w *XLSXWriter) WriteReport(path string, report *contracts.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummary(f, report); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := w.writePicks(f, report); err != nil {
		return fmt.Errorf("picks sheet: %w", err)
	}
	if err := w.writeDiagnostics(f, report); err != nil {
		return fmt.Errorf("diagnostics sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":        path,
		"communities": len(report.Communities),
		"picks":       report.PickCount(),
	}).Info("Wrote XLSX export")
	return nil
}

func (w *XLSXWriter) writeSummary(f *excelize.File, report *contracts.Report) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Run ID", report.RunID},
		{"Generated At", report.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Config Hash", report.ConfigHash},
		{"Tickers", report.Tickers},
		{"Edges", report.Edges},
		{"Communities", len(report.Communities)},
		{"Modularity", report.Modularity},
		{"Picks", report.PickCount()},
	}
	if err := writeRows(f, sheetSummary, 1, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "A", "B", 24)
}

func (w *XLSXWriter) writePicks(f *excelize.File, report *contracts.Report) error {
	if _, err := f.NewSheet(sheetPicks); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Community", "Size", "Rank", "Symbol", "Slope"},
	}
	for _, community := range report.Communities {
		for _, pick := range community.Picks {
			rows = append(rows, []interface{}{
				community.CommunityID,
				community.Size,
				pick.Rank,
				pick.Symbol,
				pick.Slope,
			})
		}
	}
	if err := writeRows(f, sheetPicks, 1, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetPicks, "A", "E", 14)
}

func (w *XLSXWriter) writeDiagnostics(f *excelize.File, report *contracts.Report) error {
	if _, err := f.NewSheet(sheetDiagnostics); err != nil {
		return err
	}

	diags := report.Diagnostics
	if diags == nil {
		diags = contracts.NewDiagnostics()
	}

	rows := [][]interface{}{
		{"Rows Rejected", diags.RowsRejected},
		{"Duplicate Rows", diags.DuplicateRows},
		{"Pairs Skipped (overlap)", diags.PairsSkippedOverlap},
		{"Pairs Skipped (variance)", diags.PairsSkippedVariance},
		{"Short Trend Symbols", strings.Join(diags.ShortTrendSymbols, ", ")},
	}
	for i, warning := range diags.Warnings {
		rows = append(rows, []interface{}{fmt.Sprintf("Warning %d", i+1), warning})
	}
	if err := writeRows(f, sheetDiagnostics, 1, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetDiagnostics, "A", "B", 28)
}

// writeRows writes consecutive rows starting at the given 1-based row
func writeRows(f *excelize.File, sheet string, startRow int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// ═══════════════════════════════════════════════════════════

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// printIngestReport prints the outcome of a dataset load
func printIngestReport(report *contracts.IngestReport, quality *contracts.QualitySnapshot) {
	fmt.Println("📥 Ingest Report")
	PrintSeparator()
	fmt.Printf("%-18s %s\n", "Source:", report.Source)
	fmt.Printf("%-18s %d\n", "Rows read:", report.RowsRead)
	fmt.Printf("%-18s %d (%.1f%%)\n", "Rows accepted:", report.RowsAccepted, report.AcceptRate()*100)
	fmt.Printf("%-18s %d\n", "Rows rejected:", report.RowsRejected)
	fmt.Printf("%-18s %d\n", "Duplicates:", report.Duplicates)
	fmt.Printf("%-18s %d\n", "Tickers:", report.Tickers)

	if len(report.Rejects) > 0 {
		fmt.Println("\nSample rejects:")
		for _, reject := range report.Rejects {
			fmt.Printf("  line %d: %s\n", reject.Line, reject.Reason)
		}
	}

	if quality != nil {
		fmt.Println()
		fmt.Println("🔍 Quality Snapshot")
		PrintSeparator()
		fmt.Printf("%-18s %d\n", "Tickers:", quality.Tickers)
		fmt.Printf("%-18s %d\n", "Bars:", quality.Bars)
		if !quality.FirstDate.IsZero() {
			fmt.Printf("%-18s %s ~ %s\n", "Date range:",
				quality.FirstDate.Format("2006-01-02"), quality.LastDate.Format("2006-01-02"))
		}
		if len(quality.ShortSeries) > 0 {
			fmt.Printf("%-18s %s\n", "Short series:", strings.Join(quality.ShortSeries, ", "))
		}
		fmt.Printf("%-18s %v\n", "Passed:", quality.Passed)
	}
}

// printRunResult prints a completed pipeline run
func printRunResult(result *brain.RunResult) {
	fmt.Println("\n✅ Pipeline Run Completed")
	fmt.Println()

	fmt.Printf("Run ID: %s\n", result.RunID)
	fmt.Printf("Trigger: %s\n", result.Trigger)
	fmt.Printf("Duration: %.2fs\n", result.Duration.Seconds())
	fmt.Println()

	fmt.Println("Completed Stages:")
	for _, stage := range result.CompletedStages {
		fmt.Printf("  ✅ %s\n", stage)
	}
	fmt.Println()

	if result.Set != nil {
		fmt.Printf("Dataset: %d tickers, %d bars\n", result.Set.Len(), result.Set.TotalBars())
	}
	if result.Graph != nil {
		fmt.Printf("Graph: %d edges\n", result.Graph.EdgeCount())
	}
	if result.Partition != nil {
		fmt.Printf("Communities: %d (modularity %.4f)\n",
			result.Partition.CommunityCount(), result.Partition.Modularity)
	}
	if result.Report != nil {
		fmt.Printf("Picks: %d\n", result.Report.PickCount())
	}
}

// printReport prints a report's communities and picks
func printReport(report *contracts.Report) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Recommendations for %s\n", report.RunID)
	PrintSeparator()
	fmt.Printf("  Generated : %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Tickers   : %d\n", report.Tickers)
	fmt.Printf("  Edges     : %d\n", report.Edges)
	fmt.Printf("  Modularity: %.4f\n", report.Modularity)
	PrintSeparator()

	for _, community := range report.Communities {
		fmt.Printf("\n📊 Community %d (%d members)\n", community.CommunityID, community.Size)
		if len(community.Picks) == 0 {
			fmt.Println("   no picks")
			continue
		}
		for _, pick := range community.Picks {
			fmt.Printf("   %d. %-8s slope %+.4f\n", pick.Rank, pick.Symbol, pick.Slope)
		}
	}

	if report.Diagnostics != nil && report.Diagnostics.HasFindings() {
		fmt.Println()
		fmt.Println("⚠️  Diagnostics")
		PrintSeparator()
		d := report.Diagnostics
		if d.RowsRejected > 0 {
			fmt.Printf("   rows rejected: %d\n", d.RowsRejected)
		}
		if d.DuplicateRows > 0 {
			fmt.Printf("   duplicate rows: %d\n", d.DuplicateRows)
		}
		if d.PairsSkippedOverlap > 0 {
			fmt.Printf("   pairs skipped (overlap): %d\n", d.PairsSkippedOverlap)
		}
		if d.PairsSkippedVariance > 0 {
			fmt.Printf("   pairs skipped (variance): %d\n", d.PairsSkippedVariance)
		}
		if len(d.ShortTrendSymbols) > 0 {
			fmt.Printf("   short trend series: %s\n", strings.Join(d.ShortTrendSymbols, ", "))
		}
		for _, warning := range d.Warnings {
			fmt.Printf("   %s\n", warning)
		}
	}
	fmt.Println()
}

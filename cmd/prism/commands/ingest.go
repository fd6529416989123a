package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/s0_ingest"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [csv file]",
	Short: "Load a bar CSV into the database",
	Long: `Reads a CSV of daily bars (Name,Date,Close,Volume), validates
every row and stores the accepted bars.

Rejected rows are counted per reason; duplicate (ticker, date) rows
keep the first occurrence. With --dry-run nothing is written and only
the ingest report is printed.

Example:
  prism ingest data/prices.csv
  prism ingest data/prices.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var (
	ingestDryRun bool
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	// Flags
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "validate only, write nothing")
}

func runIngest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prism Ingest ===")

	path := args[0]

	rt, err := openRuntime(!ingestDryRun)
	if err != nil {
		return err
	}
	defer rt.close()

	// Load and validate the file
	loader := s0_ingest.NewCSVLoader(path, rt.log)
	set, report, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	gate := s0_ingest.NewQualityGate(rt.strategy.Trend.MinDays, rt.log)
	quality := gate.Check(set)

	printIngestReport(report, quality)

	if ingestDryRun {
		fmt.Println()
		PrintInfo("Dry run, nothing written")
		return nil
	}

	// Store tickers and bars
	tickers := make([]*contracts.Ticker, 0, set.Len())
	for _, symbol := range set.Symbols {
		tickers = append(tickers, &contracts.Ticker{Symbol: symbol})
	}

	tickerRepo := s0_ingest.NewTickerRepository(rt.db.Pool)
	if err := tickerRepo.SaveBatch(cmd.Context(), tickers); err != nil {
		return fmt.Errorf("save tickers: %w", err)
	}

	barRepo := s0_ingest.NewBarRepository(rt.db.Pool)
	if err := barRepo.SaveBatch(cmd.Context(), set); err != nil {
		return fmt.Errorf("save bars: %w", err)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Stored %d bars for %d tickers", set.TotalBars(), set.Len()))
	return nil
}

package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/exporter"
	"github.com/wonny/prism/internal/s0_ingest"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline",
	Long: `Runs all five stages and prints per-community picks.

The dataset comes from --csv when given, otherwise from the bars
stored in the database (optionally bounded by --from/--to). Without
--dry-run every stage artifact is persisted under a new run id.

Example:
  prism run --csv data/prices.csv --dry-run
  prism run --from 2024-01-01
  prism run --export xlsx --out reports/picks.xlsx`,
	RunE: runPipeline,
}

var (
	runCSV    string
	runFrom   string
	runTo     string
	runDryRun bool
	runExport string
	runOut    string
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringVar(&runCSV, "csv", "", "load the dataset from this CSV instead of the database")
	runCmd.Flags().StringVar(&runFrom, "from", "", "first bar date when loading from the database (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runTo, "to", "", "last bar date when loading from the database (YYYY-MM-DD)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "run without persisting artifacts")
	runCmd.Flags().StringVar(&runExport, "export", "", "export the report (csv|xlsx)")
	runCmd.Flags().StringVar(&runOut, "out", "", "export file path (default: reports/<run_id>.<ext>)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prism Pipeline ===")

	if runExport != "" && runExport != "csv" && runExport != "xlsx" {
		return fmt.Errorf("unknown export format %q (want csv or xlsx)", runExport)
	}

	// A database is needed unless a CSV dry run
	needDB := runCSV == "" || !runDryRun
	rt, err := openRuntime(needDB)
	if err != nil {
		return err
	}
	defer rt.close()

	loader, err := rt.datasetLoader()
	if err != nil {
		return err
	}

	orchestrator := rt.orchestrator(brain.NewLogSink(rt.log))

	runConfig := brain.RunConfig{
		RunID:      brain.GenerateRunID(),
		Trigger:    contracts.TriggerManual,
		GitSHA:     getGitSHA(),
		ConfigHash: rt.configHash,
		Loader:     loader,
		DryRun:     runDryRun,
	}

	fmt.Printf("\n🚀 Starting pipeline run: %s\n", runConfig.RunID)
	if runDryRun {
		PrintInfo("Dry run, artifacts are not persisted")
	}
	fmt.Println()

	result, err := orchestrator.Run(cmd.Context(), runConfig)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	printRunResult(result)
	printReport(result.Report)

	if runExport != "" {
		return exportReport(result.Report, runExport, runOut, rt)
	}
	return nil
}

// datasetLoader picks the S0 source from the flags
func (rt *cliRuntime) datasetLoader() (contracts.DatasetLoader, error) {
	if runCSV != "" {
		return s0_ingest.NewCSVLoader(runCSV, rt.log), nil
	}

	var from, to time.Time
	if runFrom != "" {
		parsed, err := time.Parse("2006-01-02", runFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid --from date: %w", err)
		}
		from = parsed
	}
	if runTo != "" {
		parsed, err := time.Parse("2006-01-02", runTo)
		if err != nil {
			return nil, fmt.Errorf("invalid --to date: %w", err)
		}
		to = parsed
	}

	bars := s0_ingest.NewBarRepository(rt.db.Pool)
	return s0_ingest.NewDBLoader(bars, from, to, rt.log), nil
}

// exportReport writes the report to disk in the requested format
func exportReport(report *contracts.Report, format, out string, rt *cliRuntime) error {
	if out == "" {
		out = filepath.Join("reports", report.RunID+"."+format)
	}

	var err error
	switch format {
	case "csv":
		err = exporter.NewCSVWriter(rt.log).WriteReport(out, report)
	case "xlsx":
		err = exporter.NewXLSXWriter(rt.log).WriteReport(out, report)
	}
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Report exported to %s", out))
	return nil
}

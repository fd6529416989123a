package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/s4_recommend"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [run_id]",
	Short: "Show a persisted run's recommendations",
	Long: `Prints the recommendations of a past run. Without an argument
(or with "latest") the most recent run is used.

Example:
  prism report
  prism report run_20250601_190003
  prism report latest --export csv --out reports/latest.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportExport string
	reportOut    string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	// Flags
	reportCmd.Flags().StringVar(&reportExport, "export", "", "export the report (csv|xlsx)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "export file path (default: reports/<run_id>.<ext>)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportExport != "" && reportExport != "csv" && reportExport != "xlsx" {
		return fmt.Errorf("unknown export format %q (want csv or xlsx)", reportExport)
	}

	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	runs := brain.NewRunRepository(rt.db)

	// Resolve the run id
	runID := "latest"
	if len(args) > 0 {
		runID = args[0]
	}
	if runID == "latest" {
		record, err := runs.Latest(cmd.Context())
		if err != nil {
			return fmt.Errorf("no runs found: %w", err)
		}
		runID = record.RunID
	}

	reports := s4_recommend.NewReportRepository(rt.db)
	report, err := reports.LoadReport(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("load report for %s: %w", runID, err)
	}

	printReport(report)

	if reportExport != "" {
		return exportReport(report, reportExport, reportOut, rt)
	}
	return nil
}

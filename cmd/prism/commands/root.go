package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Prism - correlation-based stock analytics pipeline",
	Long: `Prism groups stocks by price co-movement and recommends the
strongest trending names inside each group.

The pipeline has five stages:
  S0 ingest      load daily bars (CSV file or database)
  S1 similarity  pairwise correlation graph with per-ticker peer selection
  S2 community   Louvain community detection on the graph
  S3 trend       least-squares trend slope per ticker
  S4 recommend   top picks per community

Examples:
  prism ingest data/prices.csv
  prism run --csv data/prices.csv --export xlsx
  prism api
  prism scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

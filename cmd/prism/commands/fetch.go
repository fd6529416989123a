package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/external/stooq"
	"github.com/wonny/prism/internal/s0_ingest"
	"github.com/wonny/prism/internal/s0_ingest/collector"
	"github.com/wonny/prism/pkg/httputil"
	"github.com/wonny/prism/pkg/redis"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [symbols...]",
	Short: "Download daily bars from Stooq",
	Long: `Downloads daily bars for the given symbols and stores them.
Without arguments every ticker already known to the database is
fetched.

With --directory the Stooq symbol directory is scraped first and new
symbols are stored before fetching.

Example:
  prism fetch AAPL MSFT
  prism fetch --from 2024-01-01 --to 2024-12-31
  prism fetch --directory`,
	RunE: runFetch,
}

var (
	fetchFrom      string
	fetchTo        string
	fetchDirectory bool
	fetchWorkers   int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "start date (YYYY-MM-DD, default: 1 year ago)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	fetchCmd.Flags().BoolVar(&fetchDirectory, "directory", false, "refresh the symbol directory first")
	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 0, "concurrent downloads (default: FETCH_WORKERS)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prism Fetch ===")

	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	from, to, err := fetchRange()
	if err != nil {
		return err
	}

	// Stooq client with a local rate limit
	httpClient := httputil.New(rt.cfg, rt.log).
		WithLocalLimit(rt.cfg.Fetch.RateLimit)
	if redisClient, err := redis.New(rt.cfg); err == nil && redisClient.Enabled() {
		defer redisClient.Close()
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(redisClient, "prism"), redis.StooqRateLimit)
	}
	source := stooq.NewClient(rt.cfg.Stooq, httpClient, rt.log)

	tickerRepo := s0_ingest.NewTickerRepository(rt.db.Pool)
	barRepo := s0_ingest.NewBarRepository(rt.db.Pool)

	// Refresh the symbol directory when asked
	if fetchDirectory {
		fmt.Println("Fetching symbol directory...")
		tickers, err := source.FetchDirectory(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch directory: %w", err)
		}
		if err := tickerRepo.SaveBatch(cmd.Context(), tickers); err != nil {
			return fmt.Errorf("save tickers: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Stored %d symbols", len(tickers)))
	}

	col := collector.NewCollector(source, tickerRepo, barRepo, rt.log)

	workers := fetchWorkers
	if workers <= 0 {
		workers = rt.cfg.Fetch.Workers
	}
	colCfg := collector.Config{Workers: workers}

	fmt.Printf("Fetching bars %s ~ %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))

	var results []collector.FetchResult
	if len(args) > 0 {
		results, err = col.FetchSymbols(cmd.Context(), args, from, to, colCfg)
	} else {
		results, err = col.FetchAll(cmd.Context(), from, to, colCfg)
	}
	if err != nil {
		return fmt.Errorf("fetch bars: %w", err)
	}
	if len(results) == 0 {
		PrintWarning("No symbols to fetch. Run with --directory or ingest a CSV first.")
		return nil
	}

	// Per-symbol outcome
	bars, failed := 0, 0
	for _, result := range results {
		if result.Failed() {
			failed++
			PrintError(fmt.Sprintf("%-8s %v", result.Symbol, result.Error))
		} else {
			bars += result.BarCount
		}
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Fetched %d bars across %d symbols (%d failed)", bars, len(results)-failed, failed))
	return nil
}

func fetchRange() (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(-1, 0, 0)

	if fetchTo != "" {
		parsed, err := time.Parse("2006-01-02", fetchTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
		}
		to = parsed
	}
	if fetchFrom != "" {
		parsed, err := time.Parse("2006-01-02", fetchFrom)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
		}
		from = parsed
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from %s is after --to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	return from, to, nil
}

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/s0_ingest"
	"github.com/wonny/prism/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Long: `Shows database and Redis health, dataset row counts and the
latest pipeline run.

Example:
  prism status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prism Status ===")
	fmt.Println()

	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := cmd.Context()

	// Database
	fmt.Println("🗄  Database")
	PrintSeparator()
	if err := rt.db.Ping(ctx); err != nil {
		PrintError(fmt.Sprintf("ping failed: %v", err))
	} else {
		status, err := rt.db.HealthCheck(ctx)
		if err != nil {
			PrintError(fmt.Sprintf("health check failed: %v", err))
		} else {
			fmt.Printf("%-16s healthy (%v)\n", "Connection:", status.ResponseTime)
			fmt.Printf("%-16s %d/%d in use\n", "Pool:", status.Stats.AcquiredConns, status.Stats.MaxConns)
		}
	}
	fmt.Println()

	// Redis
	fmt.Println("🧰 Redis")
	PrintSeparator()
	redisClient, err := redis.New(rt.cfg)
	switch {
	case err != nil:
		PrintError(fmt.Sprintf("connection failed: %v", err))
	case !redisClient.Enabled():
		fmt.Println("disabled")
	default:
		defer redisClient.Close()
		if err := redisClient.Redis().Ping(ctx).Err(); err != nil {
			PrintError(fmt.Sprintf("ping failed: %v", err))
		} else {
			fmt.Println("healthy")
		}
	}
	fmt.Println()

	// Dataset
	fmt.Println("📊 Dataset")
	PrintSeparator()
	tickers, err := s0_ingest.NewTickerRepository(rt.db.Pool).List(ctx)
	if err != nil {
		return fmt.Errorf("list tickers: %w", err)
	}
	bars, err := s0_ingest.NewBarRepository(rt.db.Pool).CountBars(ctx)
	if err != nil {
		return fmt.Errorf("count bars: %w", err)
	}
	fmt.Printf("%-16s %d\n", "Tickers:", len(tickers))
	fmt.Printf("%-16s %d\n", "Bars:", bars)
	fmt.Println()

	// Latest run
	fmt.Println("🚀 Latest Run")
	PrintSeparator()
	record, err := brain.NewRunRepository(rt.db).Latest(ctx)
	if err != nil {
		fmt.Println("no runs yet")
		return nil
	}

	fmt.Printf("%-16s %s\n", "Run ID:", record.RunID)
	fmt.Printf("%-16s %s\n", "Status:", record.Status)
	fmt.Printf("%-16s %s\n", "Trigger:", record.Trigger)
	fmt.Printf("%-16s %s\n", "Started:", record.StartedAt.Format(time.RFC3339))
	if record.Finished() {
		fmt.Printf("%-16s %.2fs\n", "Duration:", record.Duration().Seconds())
	}
	if len(record.CompletedStages) > 0 {
		fmt.Printf("%-16s %s\n", "Stages:", strings.Join(record.CompletedStages, " → "))
	}
	if record.Error != "" {
		fmt.Printf("%-16s %s\n", "Error:", record.Error)
	}

	return nil
}

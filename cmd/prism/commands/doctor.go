package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/config"
	"github.com/wonny/prism/pkg/database"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/redis"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Long: `Runs a series of smoke checks:
- config loads and validates
- strategy parameters load and validate
- structured logging works in both formats
- PostgreSQL connects, pings and reports pool statistics
- Redis connects (when enabled)

Example:
  prism doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prism Doctor ===")
	fmt.Println()

	failures := 0

	// 1. Config
	fmt.Println("1. Configuration")
	PrintSeparator()
	cfg, err := config.Load()
	if err != nil {
		PrintError(fmt.Sprintf("load config: %v", err))
		return fmt.Errorf("config is required for the remaining checks: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))
	fmt.Printf("   Database URL: %s\n", maskPassword(cfg.Database.URL))
	fmt.Println()

	// 2. Strategy parameters
	fmt.Println("2. Strategy Parameters")
	PrintSeparator()
	strategy, _, err := strategyconfig.LoadOrDefault(cfg.StrategyPath)
	if err != nil {
		failures++
		PrintError(fmt.Sprintf("load strategy: %v", err))
	} else {
		source := cfg.StrategyPath
		if source == "" {
			source = "built-in defaults"
		}
		PrintSuccess(fmt.Sprintf("Strategy loaded from %s", source))
		fmt.Printf("   top_k=%d cutoff=%.2f top_n=%d min_days=%d\n",
			strategy.Similarity.TopK, strategy.Similarity.Cutoff,
			strategy.Recommend.TopN, strategy.Trend.MinDays)
		for _, warning := range strategyconfig.Warn(strategy) {
			PrintWarning(fmt.Sprintf("%s: %s", warning.Code, warning.Message))
		}
	}
	fmt.Println()

	// 3. Logger
	fmt.Println("3. Logger")
	PrintSeparator()
	if err := checkLogger(cfg); err != nil {
		failures++
		PrintError(fmt.Sprintf("logger: %v", err))
	} else {
		PrintSuccess("Console and JSON formats write cleanly")
	}
	fmt.Println()

	// 4. Database
	fmt.Println("4. PostgreSQL")
	PrintSeparator()
	if err := checkDatabase(cfg); err != nil {
		failures++
		PrintError(err.Error())
	}
	fmt.Println()

	// 5. Redis
	fmt.Println("5. Redis")
	PrintSeparator()
	if err := checkRedis(cfg); err != nil {
		failures++
		PrintError(err.Error())
	}
	fmt.Println()

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	PrintSuccess("All checks passed")
	return nil
}

// checkLogger exercises both output formats with structured fields
func checkLogger(cfg *config.Config) error {
	for _, format := range []string{"console", "json"} {
		c := *cfg
		c.LogFormat = format
		log := logger.New(&c)

		log.WithFields(map[string]interface{}{
			"check":  "doctor",
			"format": format,
		}).Info("Logger check")
		log.WithError(errors.New("sample error")).Warn("Error context check")
	}
	return nil
}

func checkDatabase(cfg *config.Config) error {
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	PrintSuccess("Connected and pinged")
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)
	fmt.Printf("   Pool: %d max, %d total, %d idle\n",
		status.Stats.MaxConns, status.Stats.TotalConns, status.Stats.IdleConns)
	return nil
}

func checkRedis(cfg *config.Config) error {
	client, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	if !client.Enabled() {
		fmt.Println("disabled (REDIS_ENABLED=false), caching and rate limits are off")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Redis().Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	PrintSuccess("Connected and pinged")
	return nil
}

// maskPassword masks the password in the database URL for display
func maskPassword(url string) string {
	if len(url) < 55 {
		if len(url) < 30 {
			return "***"
		}
		return url[:30] + "***"
	}
	return url[:30] + "***" + url[len(url)-25:]
}

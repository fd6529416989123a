package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/api"
	"github.com/wonny/prism/internal/api/handlers"
	"github.com/wonny/prism/internal/api/ws"
	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/s0_ingest"
	"github.com/wonny/prism/pkg/metrics"
	"github.com/wonny/prism/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                          - Health check
  GET  /api/summary                     - Dataset overview
  GET  /api/runs                        - Run history
  POST /api/runs                        - Trigger a pipeline run
  GET  /api/runs/{id}/recommendations   - Per-community picks
  GET  /api/runs/{id}/communities       - Community membership
  GET  /api/runs/{id}/edges             - Similarity edges
  GET  /api/tickers/{symbol}/bars       - Stored bars
  GET  /ws                              - Run progress stream

Example:
  prism api
  prism api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prism API Server ===")

	// 1. Runtime with database
	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	log := rt.log
	log.WithFields(map[string]interface{}{
		"port": rt.cfg.Port,
		"env":  rt.cfg.Env,
	}).Info("Initializing API server")

	// 2. Register prometheus collectors
	metrics.Init()

	// 3. Connect to Redis (optional)
	redisClient, err := redis.New(rt.cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	var cache *redis.Cache
	var limiter *redis.RateLimiter
	if redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "prism")
		limiter = redis.NewRateLimiter(redisClient, "prism")
		log.Info("Connected to Redis")
	}

	// 4. Repositories
	tickerRepo := s0_ingest.NewTickerRepository(rt.db.Pool)
	barRepo := s0_ingest.NewBarRepository(rt.db.Pool)
	repos := rt.repos()

	// 5. Progress hub and launcher
	hub := ws.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	dbLoader := s0_ingest.NewDBLoader(barRepo, time.Time{}, time.Time{}, log)
	orchestrator := rt.orchestrator(brain.FanoutSink{brain.NewLogSink(log), hub})
	launcher := brain.NewLauncher(orchestrator, dbLoader, rt.configHash, getGitSHA(), log)

	// 6. Handlers and router
	router := api.NewRouter(api.Deps{
		Health:      handlers.NewHealthHandler(rt.db, redisClient, log),
		Summary:     handlers.NewSummaryHandler(tickerRepo, barRepo, repos.Runs, cache, log),
		Runs:        handlers.NewRunsHandler(repos.Runs, repos.Reports, repos.Communities, repos.Edges, launcher, cache, log),
		Tickers:     handlers.NewTickersHandler(tickerRepo, barRepo, log),
		Hub:         hub,
		RateLimiter: limiter,
		Logger:      log,
	})

	// 7. Server with graceful shutdown
	server := api.New(rt.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	if rt.cfg.MetricsEnabled {
		fmt.Printf("📈 Metrics on http://localhost:%s/metrics\n", rt.cfg.MetricsPort)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

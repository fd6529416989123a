package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/external/stooq"
	"github.com/wonny/prism/internal/s0_ingest"
	"github.com/wonny/prism/internal/s0_ingest/collector"
	"github.com/wonny/prism/internal/scheduler"
	"github.com/wonny/prism/internal/scheduler/jobs"
	"github.com/wonny/prism/pkg/httputil"
	"github.com/wonny/prism/pkg/metrics"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run and inspect scheduled jobs",
	Long: `Starts the scheduler daemon or manages its jobs.

Registered jobs:
  collect_bars   - fetch recent bars for every known ticker
  run_analysis   - run the full analysis pipeline
  purge_runs     - delete runs past the retention window

Schedules come from SCHEDULE_COLLECT, SCHEDULE_ANALYZE and
SCHEDULE_PURGE (six-field cron specs, seconds first).

Example:
  prism scheduler start
  prism scheduler list
  prism scheduler run collect_bars`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution statistics",
		RunE:  showJobStats,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Prism Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	metrics.Init()
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob is asynchronous, give the job a moment before the
	// process exits
	fmt.Println("Job started, waiting for completion...")
	for {
		time.Sleep(500 * time.Millisecond)
		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			return err
		}
		if len(history.Results) > 0 {
			result := history.Results[len(history.Results)-1]
			if result.Success {
				PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, result.Duration.Seconds()))
			} else {
				PrintError(fmt.Sprintf("Job %s failed: %s", jobName, result.Error))
			}
			return nil
		}
	}
}

func showJobStats(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

// initScheduler wires the scheduler with all three jobs
func initScheduler() (*scheduler.Scheduler, func(), error) {
	rt, err := openRuntime(true)
	if err != nil {
		return nil, nil, err
	}

	if !rt.cfg.Scheduler.Enabled {
		PrintWarning("SCHEDULER_ENABLED is false, starting anyway")
	}

	// Stooq source for the collection job
	httpClient := httputil.New(rt.cfg, rt.log).
		WithLocalLimit(rt.cfg.Fetch.RateLimit)
	source := stooq.NewClient(rt.cfg.Stooq, httpClient, rt.log)

	tickerRepo := s0_ingest.NewTickerRepository(rt.db.Pool)
	barRepo := s0_ingest.NewBarRepository(rt.db.Pool)
	col := collector.NewCollector(source, tickerRepo, barRepo, rt.log)

	// Analysis runs read the dataset back from the database
	dbLoader := s0_ingest.NewDBLoader(barRepo, time.Time{}, time.Time{}, rt.log)
	orchestrator := rt.orchestrator(brain.NewLogSink(rt.log))
	launcher := brain.NewLauncher(orchestrator, dbLoader, rt.configHash, getGitSHA(), rt.log)

	runRepo := brain.NewRunRepository(rt.db)

	sched := scheduler.New(rt.log)

	schedCfg := rt.cfg.Scheduler
	if err := sched.AddJob(jobs.NewCollectBarsJob(col, rt.cfg, rt.log)); err != nil {
		rt.close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewRunAnalysisJob(launcher, schedCfg.AnalyzeSpec, rt.log)); err != nil {
		rt.close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewPurgeRunsJob(runRepo, schedCfg.PurgeSpec, schedCfg.RetentionDays, rt.log)); err != nil {
		rt.close()
		return nil, nil, err
	}

	return sched, rt.close, nil
}

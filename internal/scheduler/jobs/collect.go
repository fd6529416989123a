package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/prism/internal/s0_ingest/collector"
	"github.com/wonny/prism/pkg/config"
	"github.com/wonny/prism/pkg/logger"
)

// CollectBarsJob fetches recent daily bars for every known ticker.
// A short lookback window keeps the download small; upserts make
// re-fetching already stored days harmless.
type CollectBarsJob struct {
	collector    *collector.Collector
	spec         string
	workers      int
	lookbackDays int
	logger       *logger.Logger
}

// NewCollectBarsJob creates a new bar collection job
func NewCollectBarsJob(col *collector.Collector, cfg *config.Config, log *logger.Logger) *CollectBarsJob {
	return &CollectBarsJob{
		collector:    col,
		spec:         cfg.Scheduler.CollectSpec,
		workers:      cfg.Fetch.Workers,
		lookbackDays: 7,
		logger:       log,
	}
}

// Name returns the job name
func (j *CollectBarsJob) Name() string {
	return "collect_bars"
}

// Schedule returns the cron schedule expression
func (j *CollectBarsJob) Schedule() string {
	return j.spec
}

// Run fetches bars for the lookback window
func (j *CollectBarsJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled bar collection")

	to := time.Now()
	from := to.AddDate(0, 0, -j.lookbackDays)

	results, err := j.collector.FetchAll(ctx, from, to, collector.Config{Workers: j.workers})
	if err != nil {
		return fmt.Errorf("fetch bars: %w", err)
	}

	fetched := 0
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		} else {
			fetched++
		}
	}

	if fetched == 0 && failed > 0 {
		return fmt.Errorf("all %d symbols failed", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"fetched": fetched,
		"failed":  failed,
	}).Info("Scheduled bar collection completed")

	return nil
}

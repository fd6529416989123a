package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// PurgeRunsJob deletes run records older than the retention window,
// along with their persisted stage artifacts.
type PurgeRunsJob struct {
	runs          contracts.RunRepository
	spec          string
	retentionDays int
	logger        *logger.Logger
}

// NewPurgeRunsJob creates a new purge job
func NewPurgeRunsJob(runs contracts.RunRepository, spec string, retentionDays int, log *logger.Logger) *PurgeRunsJob {
	return &PurgeRunsJob{
		runs:          runs,
		spec:          spec,
		retentionDays: retentionDays,
		logger:        log,
	}
}

// Name returns the job name
func (j *PurgeRunsJob) Name() string {
	return "purge_runs"
}

// Schedule returns the cron schedule expression
func (j *PurgeRunsJob) Schedule() string {
	return j.spec
}

// Run deletes runs older than the retention window
func (j *PurgeRunsJob) Run(ctx context.Context) error {
	olderThan := time.Now().AddDate(0, 0, -j.retentionDays)

	purged, err := j.runs.Purge(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("purge runs: %w", err)
	}

	if purged > 0 {
		j.logger.WithFields(map[string]interface{}{
			"purged":     purged,
			"older_than": olderThan.Format("2006-01-02"),
		}).Info("Old runs purged")
	}

	return nil
}

package jobs

import (
	"context"
	"errors"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// RunAnalysisJob runs the full analysis pipeline on schedule.
// It runs synchronously so the scheduler's retry and history see the
// real outcome, not just the launch.
type RunAnalysisJob struct {
	launcher *brain.Launcher
	spec     string
	logger   *logger.Logger
}

// NewRunAnalysisJob creates a new analysis job
func NewRunAnalysisJob(launcher *brain.Launcher, spec string, log *logger.Logger) *RunAnalysisJob {
	return &RunAnalysisJob{
		launcher: launcher,
		spec:     spec,
		logger:   log,
	}
}

// Name returns the job name
func (j *RunAnalysisJob) Name() string {
	return "run_analysis"
}

// Schedule returns the cron schedule expression
func (j *RunAnalysisJob) Schedule() string {
	return j.spec
}

// Run executes the pipeline and waits for it to finish
func (j *RunAnalysisJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled analysis run")

	result, err := j.launcher.RunNow(ctx, contracts.TriggerScheduled)
	if err != nil {
		if errors.Is(err, brain.ErrRunInProgress) {
			j.logger.Warn("Skipping scheduled run, another run is in progress")
		}
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"picks":  result.Report.PickCount(),
	}).Info("Scheduled analysis run completed")

	return nil
}

package contracts

import "time"

// RunStatus is the lifecycle state of a pipeline run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run trigger types
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerAPI       = "api"
)

// RunRecord is the persisted record of one pipeline run
type RunRecord struct {
	RunID           string       `json:"run_id"`
	Trigger         string       `json:"trigger"`
	Status          RunStatus    `json:"status"`
	ConfigHash      string       `json:"config_hash"`
	GitSHA          string       `json:"git_sha,omitempty"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      *time.Time   `json:"finished_at,omitempty"`
	CompletedStages []string     `json:"completed_stages"`
	Diagnostics     *Diagnostics `json:"diagnostics,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// Duration returns the run duration (zero while still running)
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finished reports whether the run reached a terminal status
func (r *RunRecord) Finished() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

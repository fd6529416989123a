package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/database"
)

// RunRepository implements contracts.RunRepository
type RunRepository struct {
	db *database.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create registers a run in status running. Re-creating an existing
// run id resets its terminal fields, which covers manual reruns.
func (r *RunRepository) Create(ctx context.Context, record *contracts.RunRecord) error {
	query := `
		INSERT INTO data.runs (run_id, trigger, status, config_hash, git_sha, started_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (run_id) DO UPDATE SET
			trigger = EXCLUDED.trigger,
			status = EXCLUDED.status,
			config_hash = EXCLUDED.config_hash,
			git_sha = EXCLUDED.git_sha,
			started_at = EXCLUDED.started_at,
			finished_at = NULL,
			completed_stages = NULL,
			diagnostics = NULL,
			error = NULL
	`
	_, err := r.db.Pool.Exec(ctx, query,
		record.RunID,
		record.Trigger,
		string(record.Status),
		record.ConfigHash,
		record.GitSHA,
		record.StartedAt,
	)
	return err
}

// Finish writes the terminal state of a run
func (r *RunRepository) Finish(ctx context.Context, record *contracts.RunRecord) error {
	var diagnostics []byte
	if record.Diagnostics != nil {
		var err error
		diagnostics, err = json.Marshal(record.Diagnostics)
		if err != nil {
			return fmt.Errorf("marshal diagnostics: %w", err)
		}
	}

	query := `
		UPDATE data.runs
		SET status = $2,
		    finished_at = $3,
		    completed_stages = $4,
		    diagnostics = $5,
		    error = NULLIF($6, '')
		WHERE run_id = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		record.RunID,
		string(record.Status),
		record.FinishedAt,
		record.CompletedStages,
		diagnostics,
		record.Error,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", record.RunID)
	}
	return nil
}

// Get retrieves a run record by id
func (r *RunRepository) Get(ctx context.Context, runID string) (*contracts.RunRecord, error) {
	row := r.db.Pool.QueryRow(ctx, selectRuns+` WHERE run_id = $1`, runID)
	record, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return record, err
}

// Latest retrieves the most recently started run
func (r *RunRepository) Latest(ctx context.Context) (*contracts.RunRecord, error) {
	row := r.db.Pool.QueryRow(ctx, selectRuns+` ORDER BY started_at DESC LIMIT 1`)
	record, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no runs found")
	}
	return record, err
}

// List retrieves recent runs, newest first
func (r *RunRepository) List(ctx context.Context, limit int) ([]*contracts.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Pool.Query(ctx, selectRuns+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*contracts.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Purge deletes finished runs started before the cutoff, along with
// their stage artifacts. Running runs are never purged.
func (r *RunRepository) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	var purged int64

	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		condition := `run_id IN (
			SELECT run_id FROM data.runs
			WHERE started_at < $1 AND status <> 'running'
		)`
		artifacts := []string{
			`DELETE FROM data.similarity_edges WHERE ` + condition,
			`DELETE FROM data.communities WHERE ` + condition,
			`DELETE FROM data.trend_scores WHERE ` + condition,
			`DELETE FROM data.recommendations WHERE ` + condition,
			`DELETE FROM data.reports WHERE ` + condition,
		}
		for _, query := range artifacts {
			if _, err := tx.Exec(ctx, query, olderThan); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM data.runs WHERE started_at < $1 AND status <> 'running'`, olderThan)
		if err != nil {
			return err
		}
		purged = tag.RowsAffected()
		return nil
	})
	return purged, err
}

const selectRuns = `
	SELECT run_id, trigger, status, config_hash, COALESCE(git_sha, ''),
	       started_at, finished_at, COALESCE(completed_stages, '{}'),
	       diagnostics, COALESCE(error, '')
	FROM data.runs
`

func scanRun(row pgx.Row) (*contracts.RunRecord, error) {
	var (
		record      contracts.RunRecord
		status      string
		diagnostics []byte
	)
	err := row.Scan(
		&record.RunID,
		&record.Trigger,
		&status,
		&record.ConfigHash,
		&record.GitSHA,
		&record.StartedAt,
		&record.FinishedAt,
		&record.CompletedStages,
		&diagnostics,
		&record.Error,
	)
	if err != nil {
		return nil, err
	}
	record.Status = contracts.RunStatus(status)
	if len(diagnostics) > 0 {
		record.Diagnostics = &contracts.Diagnostics{}
		if err := json.Unmarshal(diagnostics, record.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}
	return &record, nil
}

package s4_recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/database"
)

// ReportRepository implements contracts.ReportRepository. The full
// report round-trips through a JSONB column; picks are additionally
// flattened into typed rows for SQL consumers.
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SaveReport upserts the report document and its pick rows atomically
func (r *ReportRepository) SaveReport(ctx context.Context, report *contracts.Report) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO data.reports (run_id, report, generated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (run_id) DO UPDATE SET
				report = EXCLUDED.report,
				generated_at = EXCLUDED.generated_at
		`, report.RunID, doc, report.GeneratedAt)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM data.recommendations WHERE run_id = $1`, report.RunID); err != nil {
			return err
		}

		query := `
			INSERT INTO data.recommendations (run_id, community_id, rank, symbol, slope)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, community := range report.Communities {
			for _, pick := range community.Picks {
				_, err := tx.Exec(ctx, query,
					report.RunID, community.CommunityID, pick.Rank, pick.Symbol, pick.Slope)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LoadReport retrieves a run's full report
func (r *ReportRepository) LoadReport(ctx context.Context, runID string) (*contracts.Report, error) {
	var doc []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT report FROM data.reports WHERE run_id = $1`, runID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no report found for run %s", runID)
	}
	if err != nil {
		return nil, err
	}

	var report contracts.Report
	if err := json.Unmarshal(doc, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

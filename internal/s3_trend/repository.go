package s3_trend

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/database"
)

// TrendRepository implements contracts.TrendRepository
type TrendRepository struct {
	db *database.DB
}

// NewTrendRepository creates a new trend score repository
func NewTrendRepository(db *database.DB) *TrendRepository {
	return &TrendRepository{db: db}
}

// SaveScores replaces a run's trend scores atomically
func (r *TrendRepository) SaveScores(ctx context.Context, runID string, scores []contracts.TrendScore) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM data.trend_scores WHERE run_id = $1`, runID); err != nil {
			return err
		}

		query := `
			INSERT INTO data.trend_scores (run_id, symbol, slope, intercept, r2, days, insufficient_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for _, sc := range scores {
			_, err := tx.Exec(ctx, query,
				runID, sc.Symbol, sc.Slope, sc.Intercept, sc.R2, sc.Days, sc.InsufficientData)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadScores retrieves a run's trend scores in symbol order
func (r *TrendRepository) LoadScores(ctx context.Context, runID string) ([]contracts.TrendScore, error) {
	query := `
		SELECT symbol, slope, intercept, r2, days, insufficient_data
		FROM data.trend_scores
		WHERE run_id = $1
		ORDER BY symbol ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []contracts.TrendScore
	for rows.Next() {
		var sc contracts.TrendScore
		if err := rows.Scan(&sc.Symbol, &sc.Slope, &sc.Intercept, &sc.R2, &sc.Days, &sc.InsufficientData); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

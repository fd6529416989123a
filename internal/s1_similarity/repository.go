package s1_similarity

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/database"
)

// EdgeRepository implements contracts.EdgeRepository
type EdgeRepository struct {
	db *database.DB
}

// NewEdgeRepository creates a new edge repository
func NewEdgeRepository(db *database.DB) *EdgeRepository {
	return &EdgeRepository{db: db}
}

// SaveGraph replaces the stored edge set for a run atomically
func (r *EdgeRepository) SaveGraph(ctx context.Context, runID string, graph *contracts.SimilarityGraph) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM data.similarity_edges WHERE run_id = $1`, runID); err != nil {
			return err
		}

		query := `
			INSERT INTO data.similarity_edges (run_id, symbol_a, symbol_b, weight, overlap_days)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, edge := range graph.Edges {
			if _, err := tx.Exec(ctx, query, runID, edge.Source, edge.Target, edge.Weight, edge.Overlap); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadEdges retrieves a run's edges in canonical order
func (r *EdgeRepository) LoadEdges(ctx context.Context, runID string) ([]contracts.Edge, error) {
	query := `
		SELECT symbol_a, symbol_b, weight, overlap_days
		FROM data.similarity_edges
		WHERE run_id = $1
		ORDER BY symbol_a ASC, symbol_b ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []contracts.Edge
	for rows.Next() {
		var e contracts.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Weight, &e.Overlap); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

package s2_community

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/database"
)

// CommunityRepository implements contracts.CommunityRepository
type CommunityRepository struct {
	db *database.DB
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db *database.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// SavePartition replaces a run's membership rows atomically and stores
// the level count and modularity on the run row.
func (r *CommunityRepository) SavePartition(ctx context.Context, runID string, partition *contracts.Partition) error {
	symbols := make([]string, 0, len(partition.BySymbol))
	for sym := range partition.BySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM data.communities WHERE run_id = $1`, runID); err != nil {
			return err
		}

		query := `
			INSERT INTO data.communities (run_id, symbol, community_id)
			VALUES ($1, $2, $3)
		`
		for _, sym := range symbols {
			if _, err := tx.Exec(ctx, query, runID, sym, partition.BySymbol[sym]); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, `
			UPDATE data.runs
			SET louvain_levels = $2, modularity = $3
			WHERE run_id = $1
		`, runID, partition.Levels, partition.Modularity)
		return err
	})
}

// LoadPartition retrieves a run's partition
func (r *CommunityRepository) LoadPartition(ctx context.Context, runID string) (*contracts.Partition, error) {
	query := `
		SELECT symbol, community_id
		FROM data.communities
		WHERE run_id = $1
		ORDER BY symbol ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partition := &contracts.Partition{BySymbol: make(map[string]int)}
	for rows.Next() {
		var sym string
		var id int
		if err := rows.Scan(&sym, &id); err != nil {
			return nil, err
		}
		partition.BySymbol[sym] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(louvain_levels, 0), COALESCE(modularity, 0)
		FROM data.runs
		WHERE run_id = $1
	`, runID).Scan(&partition.Levels, &partition.Modularity)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return partition, nil
}

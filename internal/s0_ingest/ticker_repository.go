package s0_ingest

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/prism/internal/contracts"
)

// TickerRepository implements contracts.TickerRepository
type TickerRepository struct {
	pool *pgxpool.Pool
}

// NewTickerRepository creates a new ticker repository
func NewTickerRepository(pool *pgxpool.Pool) *TickerRepository {
	return &TickerRepository{pool: pool}
}

// Save upserts a single ticker
func (r *TickerRepository) Save(ctx context.Context, ticker *contracts.Ticker) error {
	query := `
		INSERT INTO data.tickers (symbol, name)
		VALUES ($1, $2)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name
	`

	_, err := r.pool.Exec(ctx, query, ticker.Symbol, ticker.Name)
	return err
}

// SaveBatch upserts multiple tickers
func (r *TickerRepository) SaveBatch(ctx context.Context, tickers []*contracts.Ticker) error {
	if len(tickers) == 0 {
		return nil
	}

	for _, ticker := range tickers {
		if err := r.Save(ctx, ticker); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a ticker by symbol
func (r *TickerRepository) Get(ctx context.Context, symbol string) (*contracts.Ticker, error) {
	query := `
		SELECT symbol, name
		FROM data.tickers
		WHERE symbol = $1
	`

	var t contracts.Ticker
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&t.Symbol, &t.Name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List retrieves all tickers ordered by symbol
func (r *TickerRepository) List(ctx context.Context) ([]*contracts.Ticker, error) {
	query := `
		SELECT symbol, name
		FROM data.tickers
		ORDER BY symbol ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []*contracts.Ticker
	for rows.Next() {
		var t contracts.Ticker
		if err := rows.Scan(&t.Symbol, &t.Name); err != nil {
			return nil, err
		}
		tickers = append(tickers, &t)
	}
	return tickers, rows.Err()
}

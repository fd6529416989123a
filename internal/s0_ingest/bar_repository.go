package s0_ingest

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/prism/internal/contracts"
)

// BarRepository implements contracts.BarRepository
type BarRepository struct {
	pool *pgxpool.Pool
}

// NewBarRepository creates a new bar repository
func NewBarRepository(pool *pgxpool.Pool) *BarRepository {
	return &BarRepository{pool: pool}
}

// SaveSeries upserts all bars of one series
func (r *BarRepository) SaveSeries(ctx context.Context, series *contracts.Series) error {
	query := `
		INSERT INTO data.daily_bars (symbol, trade_date, close_price, volume)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	for _, bar := range series.Bars {
		_, err := r.pool.Exec(ctx, query, series.Symbol, bar.Date, bar.Close, bar.Volume)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveBatch upserts every series in the set
func (r *BarRepository) SaveBatch(ctx context.Context, set *contracts.SeriesSet) error {
	for _, symbol := range set.Symbols {
		if err := r.SaveSeries(ctx, set.Series[symbol]); err != nil {
			return err
		}
	}
	return nil
}

// LoadSeries retrieves all bars within the range grouped per symbol.
// Zero from/to bounds are unbounded.
func (r *BarRepository) LoadSeries(ctx context.Context, from, to time.Time) ([]*contracts.Series, error) {
	query := `
		SELECT b.symbol, COALESCE(t.name, ''), b.trade_date, b.close_price, b.volume
		FROM data.daily_bars b
		LEFT JOIN data.tickers t ON t.symbol = b.symbol
		WHERE ($1::date IS NULL OR b.trade_date >= $1)
		  AND ($2::date IS NULL OR b.trade_date <= $2)
		ORDER BY b.symbol ASC, b.trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySymbol := make(map[string]*contracts.Series)
	var order []string

	for rows.Next() {
		var symbol, name string
		var bar contracts.Bar
		if err := rows.Scan(&symbol, &name, &bar.Date, &bar.Close, &bar.Volume); err != nil {
			return nil, err
		}

		series, ok := bySymbol[symbol]
		if !ok {
			series = &contracts.Series{Symbol: symbol, Name: name}
			bySymbol[symbol] = series
			order = append(order, symbol)
		}
		series.Bars = append(series.Bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(order)
	result := make([]*contracts.Series, 0, len(order))
	for _, symbol := range order {
		result = append(result, bySymbol[symbol])
	}
	return result, nil
}

// LoadSymbol retrieves one symbol's bars within the range
func (r *BarRepository) LoadSymbol(ctx context.Context, symbol string, from, to time.Time) (*contracts.Series, error) {
	query := `
		SELECT b.trade_date, b.close_price, b.volume
		FROM data.daily_bars b
		WHERE b.symbol = $1
		  AND ($2::date IS NULL OR b.trade_date >= $2)
		  AND ($3::date IS NULL OR b.trade_date <= $3)
		ORDER BY b.trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := &contracts.Series{Symbol: symbol}
	for rows.Next() {
		var bar contracts.Bar
		if err := rows.Scan(&bar.Date, &bar.Close, &bar.Volume); err != nil {
			return nil, err
		}
		series.Bars = append(series.Bars, bar)
	}
	return series, rows.Err()
}

// LatestDate returns the most recent bar date for a symbol
func (r *BarRepository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT MAX(trade_date)
		FROM data.daily_bars
		WHERE symbol = $1
	`

	var latest *time.Time
	if err := r.pool.QueryRow(ctx, query, symbol).Scan(&latest); err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

// CountBars returns the total number of stored bars
func (r *BarRepository) CountBars(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM data.daily_bars`).Scan(&count)
	return count, err
}

// nullableDate maps the zero time to SQL NULL for open-ended ranges
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package contracts

import (
	"context"
	"time"
)

// Ticker represents one listed symbol
type Ticker struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// TickerRepository manages the symbol directory
type TickerRepository interface {
	Save(ctx context.Context, ticker *Ticker) error
	SaveBatch(ctx context.Context, tickers []*Ticker) error
	Get(ctx context.Context, symbol string) (*Ticker, error)
	List(ctx context.Context) ([]*Ticker, error)
}

// BarRepository manages daily bar data
type BarRepository interface {
	SaveSeries(ctx context.Context, series *Series) error
	SaveBatch(ctx context.Context, set *SeriesSet) error
	LoadSeries(ctx context.Context, from, to time.Time) ([]*Series, error)
	LoadSymbol(ctx context.Context, symbol string, from, to time.Time) (*Series, error)
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
	CountBars(ctx context.Context) (int64, error)
}

// EdgeRepository persists similarity graphs per run
type EdgeRepository interface {
	SaveGraph(ctx context.Context, runID string, graph *SimilarityGraph) error
	LoadEdges(ctx context.Context, runID string) ([]Edge, error)
}

// CommunityRepository persists partitions per run
type CommunityRepository interface {
	SavePartition(ctx context.Context, runID string, partition *Partition) error
	LoadPartition(ctx context.Context, runID string) (*Partition, error)
}

// TrendRepository persists trend scores per run
type TrendRepository interface {
	SaveScores(ctx context.Context, runID string, scores []TrendScore) error
	LoadScores(ctx context.Context, runID string) ([]TrendScore, error)
}

// ReportRepository persists final reports per run
type ReportRepository interface {
	SaveReport(ctx context.Context, report *Report) error
	LoadReport(ctx context.Context, runID string) (*Report, error)
}

// RunRepository manages pipeline run records
type RunRepository interface {
	Create(ctx context.Context, record *RunRecord) error
	Finish(ctx context.Context, record *RunRecord) error
	Get(ctx context.Context, runID string) (*RunRecord, error)
	Latest(ctx context.Context) (*RunRecord, error)
	List(ctx context.Context, limit int) ([]*RunRecord, error)
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

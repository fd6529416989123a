package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/metrics"
)

// BarSource fetches daily bars for one symbol from a remote provider
type BarSource interface {
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error)
	Name() string
}

// Collector fans fetch work out over a worker pool and upserts the
// results. One failed symbol never aborts the batch.
type Collector struct {
	source  BarSource
	tickers contracts.TickerRepository
	bars    contracts.BarRepository
	logger  *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance
func NewCollector(
	source BarSource,
	tickers contracts.TickerRepository,
	bars contracts.BarRepository,
	log *logger.Logger,
) *Collector {
	return &Collector{
		source:  source,
		tickers: tickers,
		bars:    bars,
		logger:  log.Component("collector"),
	}
}

// FetchResult represents the result of one symbol's fetch
type FetchResult struct {
	Symbol   string
	BarCount int
	Error    error
}

// Failed reports whether the fetch ended in an error
func (r FetchResult) Failed() bool {
	return r.Error != nil
}

// FetchAll fetches bars for every known ticker
func (c *Collector) FetchAll(ctx context.Context, from, to time.Time, cfg Config) ([]FetchResult, error) {
	tickers, err := c.tickers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}

	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		symbols = append(symbols, t.Symbol)
	}

	return c.FetchSymbols(ctx, symbols, from, to, cfg)
}

// FetchSymbols fetches bars for the given symbols using a worker pool
func (c *Collector) FetchSymbols(ctx context.Context, symbols []string, from, to time.Time, cfg Config) ([]FetchResult, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"workers": workers,
	}).Info("Starting bar collection")

	symbolCh := make(chan string, len(symbols))
	resultCh := make(chan FetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.fetchWorker(ctx, workerID, symbolCh, resultCh, from, to)
		}(i)
	}

	for _, symbol := range symbols {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]FetchResult, 0, len(symbols))
	successCount := 0
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Failed() {
			failCount++
		} else {
			successCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"total":   len(results),
	}).Info("Bar collection completed")

	return results, nil
}

// fetchWorker fetches and stores bars for symbols off the channel
func (c *Collector) fetchWorker(ctx context.Context, workerID int, symbolCh <-chan string, resultCh chan<- FetchResult, from, to time.Time) {
	for symbol := range symbolCh {
		select {
		case <-ctx.Done():
			resultCh <- FetchResult{Symbol: symbol, Error: ctx.Err()}
			return
		default:
		}

		start := time.Now()
		bars, err := c.source.FetchDaily(ctx, symbol, from, to)
		metrics.RecordFetch(c.source.Name(), time.Since(start), err)

		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol,
			}).Error("Failed to fetch bars")
			resultCh <- FetchResult{Symbol: symbol, Error: err}
			continue
		}

		series := &contracts.Series{Symbol: symbol, Bars: bars}
		if err := c.bars.SaveSeries(ctx, series); err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol,
			}).Error("Failed to save bars")
			resultCh <- FetchResult{Symbol: symbol, BarCount: len(bars), Error: err}
			continue
		}

		metrics.RecordIngest(c.source.Name(), len(bars), 0)

		c.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"symbol": symbol,
			"count":  len(bars),
		}).Debug("Fetched bars")

		resultCh <- FetchResult{Symbol: symbol, BarCount: len(bars)}
	}
}

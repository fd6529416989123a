package handlers

import (
	"net/http"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/redis"
)

// SummaryHandler serves dataset-level counts
type SummaryHandler struct {
	tickers contracts.TickerRepository
	bars    contracts.BarRepository
	runs    contracts.RunRepository
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewSummaryHandler creates a new summary handler. cache may be nil.
func NewSummaryHandler(
	tickers contracts.TickerRepository,
	bars contracts.BarRepository,
	runs contracts.RunRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *SummaryHandler {
	return &SummaryHandler{
		tickers: tickers,
		bars:    bars,
		runs:    runs,
		cache:   cache,
		logger:  log,
	}
}

// Summary is the dataset overview response
type Summary struct {
	Tickers   int                  `json:"tickers"`
	Bars      int64                `json:"bars"`
	LatestRun *contracts.RunRecord `json:"latest_run,omitempty"`
}

// Get returns ticker, bar and run counts
// GET /api/summary
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached Summary
		if hit, err := h.cache.Get(ctx, redis.SummaryKey(), &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	tickers, err := h.tickers.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tickers")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve summary")
		return
	}

	bars, err := h.bars.CountBars(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count bars")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve summary")
		return
	}

	summary := Summary{
		Tickers: len(tickers),
		Bars:    bars,
	}

	// A missing latest run just leaves the field empty
	if latest, err := h.runs.Latest(ctx); err == nil {
		summary.LatestRun = latest
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, redis.SummaryKey(), summary, redis.TTLShort); err != nil {
			h.logger.WithError(err).Warn("Failed to cache summary")
		}
	}

	respondJSON(w, http.StatusOK, summary)
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// TickersHandler handles ticker directory and bar endpoints
type TickersHandler struct {
	tickers contracts.TickerRepository
	bars    contracts.BarRepository
	logger  *logger.Logger
}

// NewTickersHandler creates a new tickers handler
func NewTickersHandler(
	tickers contracts.TickerRepository,
	bars contracts.BarRepository,
	log *logger.Logger,
) *TickersHandler {
	return &TickersHandler{
		tickers: tickers,
		bars:    bars,
		logger:  log,
	}
}

// List returns the ticker directory
// GET /api/tickers
func (h *TickersHandler) List(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.tickers.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tickers")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve tickers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(tickers),
		"tickers": tickers,
	})
}

// Bars returns one ticker's daily bars
// GET /api/tickers/{symbol}/bars?from=&to=
func (h *TickersHandler) Bars(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))

	var from, to time.Time
	var err error

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return
		}
	}

	series, err := h.bars.LoadSymbol(r.Context(), symbol, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load bars")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve bars")
		return
	}
	if series.Days() == 0 {
		respondError(w, http.StatusNotFound, "No bars found for symbol")
		return
	}

	respondJSON(w, http.StatusOK, series)
}

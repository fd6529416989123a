package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/prism/internal/api/handlers"
	"github.com/wonny/prism/internal/api/ws"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/redis"
)

// Deps bundles everything the router serves. Hub and RateLimiter may
// be nil; the matching routes and middleware are then skipped.
type Deps struct {
	Health      *handlers.HealthHandler
	Summary     *handlers.SummaryHandler
	Runs        *handlers.RunsHandler
	Tickers     *handlers.TickersHandler
	Hub         *ws.Hub
	RateLimiter *redis.RateLimiter
	Logger      *logger.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", deps.Health.Check).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/summary", deps.Summary.Get).Methods("GET")

	// Run endpoints
	api.HandleFunc("/runs", deps.Runs.List).Methods("GET")
	api.HandleFunc("/runs", deps.Runs.Trigger).Methods("POST")
	api.HandleFunc("/runs/latest", deps.Runs.Latest).Methods("GET")
	api.HandleFunc("/runs/{id}", deps.Runs.Get).Methods("GET")
	api.HandleFunc("/runs/{id}/recommendations", deps.Runs.Recommendations).Methods("GET")
	api.HandleFunc("/runs/{id}/communities", deps.Runs.Communities).Methods("GET")
	api.HandleFunc("/runs/{id}/edges", deps.Runs.Edges).Methods("GET")

	// Ticker endpoints
	api.HandleFunc("/tickers", deps.Tickers.List).Methods("GET")
	api.HandleFunc("/tickers/{symbol}/bars", deps.Tickers.Bars).Methods("GET")

	// Progress stream
	if deps.Hub != nil {
		r.HandleFunc("/ws", deps.Hub.ServeWS)
	}

	// Apply middleware
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(recoveryMiddleware(deps.Logger))
	if deps.RateLimiter != nil {
		api.Use(rateLimitMiddleware(deps.RateLimiter, deps.Logger))
	}

	return r
}

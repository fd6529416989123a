package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/prism/pkg/database"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/redis"
)

// HealthHandler serves liveness plus dependency status
type HealthHandler struct {
	db      *database.DB
	redis   *redis.Client
	logger  *logger.Logger
	started time.Time
}

// NewHealthHandler creates a new health handler. db and redisClient
// may be nil when the process runs without them.
func NewHealthHandler(db *database.DB, redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redisClient,
		logger:  log,
		started: time.Now(),
	}
}

// Check returns server health status
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "ok"
	checks := map[string]string{}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "down"
			status = "degraded"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "disabled"
	}

	if h.redis != nil && h.redis.Enabled() {
		if err := h.redis.Redis().Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
			status = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "prism",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"checks":  checks,
	})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/redis"
)

// RunLauncher starts pipeline runs in the background
type RunLauncher interface {
	Launch(trigger string) (string, error)
}

// RunsHandler handles run-related API endpoints
type RunsHandler struct {
	runs        contracts.RunRepository
	reports     contracts.ReportRepository
	communities contracts.CommunityRepository
	edges       contracts.EdgeRepository
	launcher    RunLauncher
	cache       *redis.Cache
	logger      *logger.Logger
}

// NewRunsHandler creates a new runs handler. launcher and cache may be
// nil; the trigger endpoint then responds 503.
func NewRunsHandler(
	runs contracts.RunRepository,
	reports contracts.ReportRepository,
	communities contracts.CommunityRepository,
	edges contracts.EdgeRepository,
	launcher RunLauncher,
	cache *redis.Cache,
	log *logger.Logger,
) *RunsHandler {
	return &RunsHandler{
		runs:        runs,
		reports:     reports,
		communities: communities,
		edges:       edges,
		launcher:    launcher,
		cache:       cache,
		logger:      log,
	}
}

// List returns recent runs, newest first
// GET /api/runs?limit=
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	records, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(records),
		"runs":  records,
	})
}

// Latest returns the most recent run
// GET /api/runs/latest
func (h *RunsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	record, err := h.runs.Latest(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "No runs found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// Get returns one run record
// GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	record, err := h.runs.Get(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// Recommendations returns a run's final report
// GET /api/runs/{id}/recommendations
func (h *RunsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runID, ok := h.resolveRunID(w, r)
	if !ok {
		return
	}

	if h.cache != nil {
		var cached contracts.Report
		if hit, err := h.cache.Get(ctx, redis.ReportKey(runID), &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	report, err := h.reports.LoadReport(ctx, runID)
	if err != nil {
		respondError(w, http.StatusNotFound, "No report found for run")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, redis.ReportKey(runID), report, redis.TTLMedium); err != nil {
			h.logger.WithError(err).Warn("Failed to cache report")
		}
	}

	respondJSON(w, http.StatusOK, report)
}

// CommunityBlock is one community in the communities response
type CommunityBlock struct {
	CommunityID int      `json:"community_id"`
	Size        int      `json:"size"`
	Members     []string `json:"members"`
}

// Communities returns a run's partition
// GET /api/runs/{id}/communities
func (h *RunsHandler) Communities(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.resolveRunID(w, r)
	if !ok {
		return
	}

	partition, err := h.communities.LoadPartition(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load partition")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve communities")
		return
	}
	if partition.CommunityCount() == 0 {
		respondError(w, http.StatusNotFound, "No communities found for run")
		return
	}

	blocks := make([]CommunityBlock, 0, partition.CommunityCount())
	for _, id := range partition.CommunityIDs() {
		members := partition.Members(id)
		blocks = append(blocks, CommunityBlock{
			CommunityID: id,
			Size:        len(members),
			Members:     members,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":      runID,
		"count":       len(blocks),
		"levels":      partition.Levels,
		"modularity":  partition.Modularity,
		"communities": blocks,
	})
}

// Edges returns a run's similarity edges, optionally for one symbol
// GET /api/runs/{id}/edges?symbol=
func (h *RunsHandler) Edges(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.resolveRunID(w, r)
	if !ok {
		return
	}

	edges, err := h.edges.LoadEdges(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load edges")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve edges")
		return
	}

	if symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol"))); symbol != "" {
		filtered := edges[:0]
		for _, edge := range edges {
			if edge.Source == symbol || edge.Target == symbol {
				filtered = append(filtered, edge)
			}
		}
		edges = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"count":  len(edges),
		"edges":  edges,
	})
}

// TriggerResponse is the async run trigger response
type TriggerResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Trigger starts an asynchronous pipeline run
// POST /api/runs
func (h *RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.launcher == nil {
		respondError(w, http.StatusServiceUnavailable, "Run trigger not available")
		return
	}

	runID, err := h.launcher.Launch(contracts.TriggerAPI)
	if err != nil {
		if errors.Is(err, brain.ErrRunInProgress) {
			respondError(w, http.StatusConflict, "A run is already in progress")
			return
		}
		h.logger.WithError(err).Error("Failed to launch run")
		respondError(w, http.StatusInternalServerError, "Failed to launch run")
		return
	}

	h.logger.WithField("run_id", runID).Info("Pipeline run triggered over API")
	respondJSON(w, http.StatusAccepted, TriggerResponse{
		RunID:  runID,
		Status: "accepted",
	})
}

// resolveRunID reads {id} and maps "latest" to the newest run
func (h *RunsHandler) resolveRunID(w http.ResponseWriter, r *http.Request) (string, bool) {
	runID := mux.Vars(r)["id"]
	if runID != "latest" {
		return runID, true
	}

	record, err := h.runs.Latest(r.Context())
	if err != nil {
		respondError(w, http.StatusNotFound, "No runs found")
		return "", false
	}
	return record.RunID, true
}

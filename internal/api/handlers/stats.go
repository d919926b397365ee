package handlers

import (
	"net/http"
	"time"

	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

// StatsHandler serves aggregated analysis history
type StatsHandler struct {
	repos  *repository.Repositories
	logger *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(repos *repository.Repositories, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		repos:  repos,
		logger: log.WithComponent("stats-handler"),
	}
}

// Get handles GET /api/v1/stats. An optional "since" query parameter
// (RFC 3339) limits the window.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis history is not configured")
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = parsed
	}

	stats, err := h.repos.Analyses.GetStats(r.Context(), since)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load analysis stats")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"phishguard/internal/domain/models"
	"phishguard/internal/domain/services"
	"phishguard/pkg/logger"
)

// AnalysisHandler serves the combined analysis endpoints
type AnalysisHandler struct {
	analyzer *services.CombinedAnalyzer
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(analyzer *services.CombinedAnalyzer, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		logger:   log.WithComponent("analysis-handler"),
	}
}

// Analyze handles POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var input models.AnalysisInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), input)
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// AnalyzeBatch handles POST /api/v1/analyze/batch
func (h *AnalysisHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Inputs) == 0 {
		respondError(w, http.StatusBadRequest, "inputs is required")
		return
	}

	resp, err := h.analyzer.AnalyzeBatch(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrBatchTooLarge) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("batch analysis failed")
		respondError(w, http.StatusInternalServerError, "batch analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Info handles GET /api/v1/info
func (h *AnalysisHandler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.analyzer.Info())
}

// Patterns handles GET /api/v1/patterns
func (h *AnalysisHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.analyzer.Patterns())
}

func (h *AnalysisHandler) respondAnalysisError(w http.ResponseWriter, err error) {
	var invalidURL *services.InvalidURLError
	switch {
	case errors.Is(err, services.ErrNoInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidURL):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("analysis failed")
		respondError(w, http.StatusInternalServerError, "analysis failed")
	}
}

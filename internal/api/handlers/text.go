package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"phishguard/internal/domain/services"
	"phishguard/pkg/logger"
)

// TextHandler serves the text-only analysis endpoint
type TextHandler struct {
	analyzer *services.TextAnalyzer
	logger   *logger.Logger
}

// NewTextHandler creates a new TextHandler
func NewTextHandler(analyzer *services.TextAnalyzer, log *logger.Logger) *TextHandler {
	return &TextHandler{
		analyzer: analyzer,
		logger:   log.WithComponent("text-handler"),
	}
}

type textAnalyzeRequest struct {
	Text string `json:"text"`
}

// Analyze handles POST /api/v1/text/analyze
func (h *TextHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req textAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	respondJSON(w, http.StatusOK, h.analyzer.Analyze(r.Context(), req.Text))
}

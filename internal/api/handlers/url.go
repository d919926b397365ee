package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"phishguard/internal/domain/services"
	"phishguard/pkg/logger"
)

// URLHandler serves the URL-only analysis endpoint
type URLHandler struct {
	analyzer *services.URLAnalyzer
	logger   *logger.Logger
}

// NewURLHandler creates a new URLHandler
func NewURLHandler(analyzer *services.URLAnalyzer, log *logger.Logger) *URLHandler {
	return &URLHandler{
		analyzer: analyzer,
		logger:   log.WithComponent("url-handler"),
	}
}

type urlCheckRequest struct {
	URL string `json:"url"`
}

// Check handles POST /api/v1/url/check
func (h *URLHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req urlCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		var invalidURL *services.InvalidURLError
		if errors.As(err, &invalidURL) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("url", req.URL).Msg("URL analysis failed")
		respondError(w, http.StatusInternalServerError, "URL analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

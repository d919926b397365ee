package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// MaxBatchSize bounds a single batch analysis request.
const MaxBatchSize = 100

// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize inputs.
var ErrBatchTooLarge = fmt.Errorf("batch exceeds maximum of %d inputs", MaxBatchSize)

const maxIndicatorDetails = 3

// AnalysisStore persists combined analyses for later aggregation. Saves are
// best effort; the analyzer logs and continues on failure.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, analysis *models.CombinedAnalysis) error
}

// CombinedAnalyzer produces a single weighted verdict over a text/URL pair,
// orchestrating the text and URL analyzers.
type CombinedAnalyzer struct {
	cfg     config.CombinedScoringConfig
	timeout time.Duration
	text    *TextAnalyzer
	urls    *URLAnalyzer
	store   AnalysisStore
	version string
	logger  *logger.Logger
}

// NewCombinedAnalyzer creates a new combined analyzer. store may be nil when
// no database is configured.
func NewCombinedAnalyzer(
	cfg config.CombinedScoringConfig,
	timeout time.Duration,
	text *TextAnalyzer,
	urls *URLAnalyzer,
	store AnalysisStore,
	version string,
	log *logger.Logger,
) *CombinedAnalyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CombinedAnalyzer{
		cfg:     cfg,
		timeout: timeout,
		text:    text,
		urls:    urls,
		store:   store,
		version: version,
		logger:  log.WithComponent("combined-analyzer"),
	}
}

// Analyze scores an input containing text, a URL, or both. When no URL is
// supplied the first URL embedded in the text is analyzed instead.
func (a *CombinedAnalyzer) Analyze(ctx context.Context, input models.AnalysisInput) (*models.CombinedAnalysis, error) {
	text := strings.TrimSpace(input.Text)
	rawURL := strings.TrimSpace(input.URL)
	if text == "" && rawURL == "" {
		return nil, ErrNoInput
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result := &models.CombinedAnalysis{
		ID:        uuid.New(),
		RiskLevel: models.RiskLevelUnknown,
		Timestamp: time.Now().UTC(),
	}

	var textResult *models.TextAnalysis
	if text != "" {
		result.InputTypes = append(result.InputTypes, "text")
		textResult = a.text.Analyze(ctx, text)
		result.IndividualResults.Text = textResult
	}

	urlToCheck := rawURL
	autoExtracted := false
	if urlToCheck == "" && textResult != nil && len(textResult.ExtractedURLs) > 0 {
		urlToCheck = textResult.ExtractedURLs[0]
		autoExtracted = true
		result.ExtractedURLs = textResult.ExtractedURLs
	}
	if rawURL != "" {
		result.InputTypes = append(result.InputTypes, "url")
	}

	var urlResult *models.URLAnalysis
	if urlToCheck != "" {
		var err error
		urlResult, err = a.urls.Analyze(ctx, urlToCheck)
		if err != nil {
			if !autoExtracted {
				return nil, err
			}
			// URLs pulled out of the text are advisory only.
			a.logger.Debug().Err(err).Str("url", urlToCheck).Msg("skipping unparsable extracted URL")
			urlResult = nil
		}
		result.IndividualResults.URL = urlResult
	}

	a.combine(result, textResult, urlResult)
	a.persist(ctx, result)
	return result, nil
}

// AnalyzeBatch analyzes up to MaxBatchSize inputs, recording per-input
// errors instead of failing the whole batch.
func (a *CombinedAnalyzer) AnalyzeBatch(ctx context.Context, req *models.BatchRequest) (*models.BatchResponse, error) {
	if len(req.Inputs) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	resp := &models.BatchResponse{
		Results: make([]models.BatchResult, 0, len(req.Inputs)),
		Total:   len(req.Inputs),
	}

	for i, input := range req.Inputs {
		analysis, err := a.Analyze(ctx, input)
		if err != nil {
			resp.Results = append(resp.Results, models.BatchResult{Index: i, Error: err.Error()})
			continue
		}
		resp.Results = append(resp.Results, models.BatchResult{Index: i, Analysis: analysis})
	}

	return resp, nil
}

// Info describes the analyzer's components and weighting.
func (a *CombinedAnalyzer) Info() *models.AnalyzerInfo {
	return &models.AnalyzerInfo{
		Name:       "phishguard",
		Version:    a.version,
		Components: []string{"text_analyzer", "url_analyzer", "combined_analyzer"},
		Weights: map[string]float64{
			"text":               a.cfg.TextWeight,
			"url":                a.cfg.URLWeight,
			"multi_vector_bonus": a.cfg.MultiVectorBonus,
		},
		SupportedInputs: []string{"text", "url"},
		RiskLevels: []models.RiskLevel{
			models.RiskLevelVeryLow,
			models.RiskLevelLow,
			models.RiskLevelMedium,
			models.RiskLevelHigh,
			models.RiskLevelCritical,
		},
	}
}

// Patterns exposes the static keyword tables used by the analyzers.
func (a *CombinedAnalyzer) Patterns() *models.PatternSet {
	return &models.PatternSet{
		PhishingKeywords:   phishingKeywords,
		UrgencyTerms:       urgencyTerms,
		FinancialTerms:     financialTerms,
		ActionTerms:        actionTerms,
		URLShorteners:      urlShorteners,
		TrustedDomains:     trustedDomains,
		SuspiciousKeywords: suspiciousDomainKeywords,
	}
}

// combine folds the individual results into the weighted verdict.
func (a *CombinedAnalyzer) combine(result *models.CombinedAnalysis, textResult *models.TextAnalysis, urlResult *models.URLAnalysis) {
	var score float64
	var confidences []float64

	// The component weights apply even when only one component produced a
	// result; a missing component simply contributes zero.
	if textResult != nil {
		textContribution := textResult.Score
		if textResult.IsFlagged && textContribution < a.cfg.FlaggedTextFloor {
			textContribution = a.cfg.FlaggedTextFloor
		}
		score += textContribution * a.cfg.TextWeight
		confidences = append(confidences, textResult.Score)
	}
	if urlResult != nil {
		score += urlResult.Score * a.cfg.URLWeight
		confidences = append(confidences, urlResult.Confidence)
	}
	if textResult != nil && urlResult != nil &&
		textResult.IsFlagged && urlResult.Score > a.cfg.BonusURLThreshold {
		score += a.cfg.MultiVectorBonus
	}

	result.CombinedScore = clamp(score, 0, 1)
	result.RiskLevel = a.riskLevel(result.CombinedScore)
	result.IsThreat = result.CombinedScore > a.cfg.ThreatThreshold
	result.Confidence = average(confidences)
	result.ThreatIndicators = a.threatIndicators(textResult, urlResult)
	result.Recommendations = a.recommendations(textResult, urlResult)
	result.FinalRecommendation = finalRecommendation(result.RiskLevel)
}

func (a *CombinedAnalyzer) riskLevel(score float64) models.RiskLevel {
	switch {
	case score >= a.cfg.CriticalThreshold:
		return models.RiskLevelCritical
	case score >= a.cfg.HighThreshold:
		return models.RiskLevelHigh
	case score >= a.cfg.MediumThreshold:
		return models.RiskLevelMedium
	case score >= a.cfg.LowThreshold:
		return models.RiskLevelLow
	default:
		return models.RiskLevelVeryLow
	}
}

func (a *CombinedAnalyzer) threatIndicators(textResult *models.TextAnalysis, urlResult *models.URLAnalysis) []string {
	var indicators []string

	if textResult != nil && textResult.IsFlagged {
		indicators = append(indicators, "Phishing text patterns detected")
		for i, kw := range textResult.Indicators {
			if i >= maxIndicatorDetails {
				break
			}
			indicators = append(indicators, "Suspicious keyword: "+kw)
		}
	}

	if urlResult != nil {
		if urlResult.RiskLevel == models.RiskLevelHigh || urlResult.RiskLevel == models.RiskLevelMedium {
			indicators = append(indicators, "Suspicious URL detected")
		}
		for i, factor := range urlResult.Factors {
			if i >= maxIndicatorDetails {
				break
			}
			indicators = append(indicators, "URL risk: "+factor)
		}
	}

	if textResult != nil && textResult.IsFlagged && urlResult != nil && urlResult.Score > a.cfg.BonusURLThreshold {
		indicators = append(indicators, "Multiple threat vectors detected")
	}

	return indicators
}

func (a *CombinedAnalyzer) recommendations(textResult *models.TextAnalysis, urlResult *models.URLAnalysis) []string {
	var recs []string
	if textResult != nil && textResult.IsFlagged {
		recs = append(recs, "Text contains suspicious phishing indicators")
	}
	if urlResult != nil && urlResult.Recommendation != "" {
		recs = append(recs, urlResult.Recommendation)
	}
	if textResult != nil && textResult.IsFlagged && urlResult != nil && urlResult.Score > a.cfg.BonusURLThreshold {
		recs = append(recs, "CRITICAL: Both text and URL show suspicious patterns")
	}
	return recs
}

func finalRecommendation(level models.RiskLevel) string {
	switch level {
	case models.RiskLevelCritical:
		return "IMMEDIATE ACTION REQUIRED - Do not interact with this content. Report as phishing."
	case models.RiskLevelHigh:
		return "HIGH RISK - Avoid interaction. Verify through official channels if legitimate."
	case models.RiskLevelMedium:
		return "CAUTION ADVISED - Exercise extreme caution. Verify authenticity before proceeding."
	case models.RiskLevelLow:
		return "GENERALLY SAFE - Content appears legitimate but remain vigilant."
	default:
		return "SAFE - No significant threats detected."
	}
}

// persist saves the analysis when a store is configured. Failures are
// logged, never surfaced.
func (a *CombinedAnalyzer) persist(ctx context.Context, result *models.CombinedAnalysis) {
	if a.store == nil {
		return
	}
	if err := a.store.SaveAnalysis(ctx, result); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn().Err(err).Str("analysis_id", result.ID.String()).Msg("failed to persist analysis")
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

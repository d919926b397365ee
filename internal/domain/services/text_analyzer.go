package services

import (
	"context"
	"regexp"
	"strings"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

const maxReportedKeywords = 5

var (
	urlPattern   = regexp.MustCompile(`https?://[^\s<>"]+`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// TextAnalyzer scores free text for phishing indicators. It uses a weighted
// keyword method by default and blends in an external sentiment classifier
// when one is configured.
type TextAnalyzer struct {
	cfg        config.TextScoringConfig
	classifier SentimentClassifier
	logger     *logger.Logger
}

// NewTextAnalyzer creates a new text analyzer. classifier may be nil, in
// which case only the keyword method is used.
func NewTextAnalyzer(cfg config.TextScoringConfig, classifier SentimentClassifier, log *logger.Logger) *TextAnalyzer {
	return &TextAnalyzer{
		cfg:        cfg,
		classifier: classifier,
		logger:     log.WithComponent("text-analyzer"),
	}
}

// Analyze scores the given text. An empty result with zero score is
// returned for empty text.
func (a *TextAnalyzer) Analyze(ctx context.Context, text string) *models.TextAnalysis {
	result := &models.TextAnalysis{
		Method:          models.TextMethodKeyword,
		WordCount:       len(strings.Fields(text)),
		CharCount:       len(text),
		ExtractedURLs:   urlPattern.FindAllString(text, -1),
		ExtractedEmails: emailPattern.FindAllString(text, -1),
	}

	if strings.TrimSpace(text) == "" {
		return result
	}

	if a.classifier != nil {
		if ok := a.analyzeWithModel(ctx, text, result); ok {
			return result
		}
	}

	a.analyzeWithKeywords(text, result)
	return result
}

// analyzeWithKeywords applies the weighted keyword method.
func (a *TextAnalyzer) analyzeWithKeywords(text string, result *models.TextAnalysis) {
	lower := strings.ToLower(text)

	var matched []string
	for _, kw := range phishingKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}

	score := float64(len(matched)) * a.cfg.KeywordWeight
	if score > a.cfg.KeywordScoreCap {
		score = a.cfg.KeywordScoreCap
	}

	if containsAny(lower, urgencyTerms) {
		score += a.cfg.UrgencyBonus
	}
	if containsAny(lower, financialTerms) {
		score += a.cfg.FinancialBonus
	}
	if containsAny(lower, actionTerms) {
		score += a.cfg.ActionBonus
	}

	if score > a.cfg.ScoreCap {
		score = a.cfg.ScoreCap
	}

	if len(matched) > maxReportedKeywords {
		matched = matched[:maxReportedKeywords]
	}

	result.Method = models.TextMethodKeyword
	result.Score = score
	result.IsFlagged = score > a.cfg.FlagThreshold
	result.Indicators = matched
}

// analyzeWithModel blends the classifier's negative-sentiment probability
// with urgency keyword hits. Returns false when the classifier fails so the
// caller can fall back to the keyword method.
func (a *TextAnalyzer) analyzeWithModel(ctx context.Context, text string, result *models.TextAnalysis) bool {
	scores, err := a.classifier.Classify(ctx, text)
	if err != nil {
		a.logger.Warn().Err(err).Msg("classifier unavailable, falling back to keyword method")
		return false
	}

	var negative float64
	for _, s := range scores {
		if strings.EqualFold(s.Label, "negative") {
			negative = s.Score
			break
		}
	}

	lower := strings.ToLower(text)
	score := negative * 0.7
	var matched []string
	for _, kw := range modelUrgencyTerms {
		if strings.Contains(lower, kw) {
			score += 0.1
			matched = append(matched, kw)
		}
	}

	if score > a.cfg.ScoreCap {
		score = a.cfg.ScoreCap
	}

	result.Method = models.TextMethodModel
	result.Score = score
	result.IsFlagged = score > a.cfg.ModelFlagThreshold
	result.Indicators = matched
	result.NegativeSentiment = negative
	return true
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

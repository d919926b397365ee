package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the banded severity assigned to an analysis result.
type RiskLevel string

const (
	RiskLevelUnknown  RiskLevel = "Unknown"
	RiskLevelVeryLow  RiskLevel = "Very Low"
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// TextMethod identifies which path produced a text analysis.
type TextMethod string

const (
	TextMethodKeyword TextMethod = "keyword"
	TextMethodModel   TextMethod = "model"
)

// AnalysisInput is a single analysis request. At least one of Text or URL
// must be non-empty.
type AnalysisInput struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// TextAnalysis is the result of scoring a piece of text for phishing
// indicators.
type TextAnalysis struct {
	Score             float64    `json:"risk_score"`
	IsFlagged         bool       `json:"is_phishing"`
	Indicators        []string   `json:"indicators,omitempty"`
	Method            TextMethod `json:"method"`
	WordCount         int        `json:"word_count"`
	CharCount         int        `json:"char_count"`
	NegativeSentiment float64    `json:"negative_sentiment,omitempty"`
	ExtractedURLs     []string   `json:"extracted_urls,omitempty"`
	ExtractedEmails   []string   `json:"extracted_emails,omitempty"`
}

// Redirection is a single hop in a redirect chain.
type Redirection struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status int    `json:"status"`
}

// URLAnalysis is the result of scoring a URL for risk.
type URLAnalysis struct {
	URL            string        `json:"url"`
	Domain         string        `json:"domain"`
	Score          float64       `json:"risk_score"`
	RiskLevel      RiskLevel     `json:"risk_level"`
	Factors        []string      `json:"risk_factors,omitempty"`
	Confidence     float64       `json:"confidence"`
	Recommendation string        `json:"recommendation"`
	Redirections   []Redirection `json:"redirections,omitempty"`
	DomainAgeDays  *int          `json:"domain_age_days,omitempty"`
	IPAddresses    []string      `json:"ip_addresses,omitempty"`
	HasMX          *bool         `json:"has_mx,omitempty"`
}

// IndividualResults carries the per-component results inside a combined
// analysis.
type IndividualResults struct {
	Text *TextAnalysis `json:"text_analysis,omitempty"`
	URL  *URLAnalysis  `json:"url_analysis,omitempty"`
}

// CombinedAnalysis is the full verdict over a text/URL pair.
type CombinedAnalysis struct {
	ID                  uuid.UUID         `json:"id"`
	CombinedScore       float64           `json:"combined_risk_score"`
	RiskLevel           RiskLevel         `json:"risk_level"`
	IsThreat            bool              `json:"is_threat"`
	Confidence          float64           `json:"confidence"`
	ThreatIndicators    []string          `json:"threat_indicators,omitempty"`
	Recommendations     []string          `json:"recommendations,omitempty"`
	FinalRecommendation string            `json:"final_recommendation"`
	IndividualResults   IndividualResults `json:"individual_results"`
	InputTypes          []string          `json:"input_types"`
	ExtractedURLs       []string          `json:"extracted_urls,omitempty"`
	Timestamp           time.Time         `json:"analysis_timestamp"`
}

// DNSLookup is the outcome of resolving a domain during URL analysis.
type DNSLookup struct {
	IPAddresses []string
	NXDomain    bool
	HasMX       bool
}

// BatchRequest is a request to analyze multiple inputs at once.
type BatchRequest struct {
	Inputs []AnalysisInput `json:"inputs"`
}

// BatchResult pairs an input index with its analysis or error.
type BatchResult struct {
	Index    int               `json:"index"`
	Analysis *CombinedAnalysis `json:"analysis,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// BatchResponse is the response for a batch analysis request.
type BatchResponse struct {
	Results []BatchResult `json:"results"`
	Total   int           `json:"total"`
}

// AnalyzerInfo describes the engine's components and configuration.
type AnalyzerInfo struct {
	Name            string             `json:"name"`
	Version         string             `json:"version"`
	Components      []string           `json:"components"`
	Weights         map[string]float64 `json:"weights"`
	SupportedInputs []string           `json:"supported_inputs"`
	RiskLevels      []RiskLevel        `json:"risk_levels"`
}

// PatternSet exposes the static keyword tables used by the analyzers so
// clients can pre-filter locally.
type PatternSet struct {
	PhishingKeywords   []string `json:"phishing_keywords"`
	UrgencyTerms       []string `json:"urgency_terms"`
	FinancialTerms     []string `json:"financial_terms"`
	ActionTerms        []string `json:"action_terms"`
	URLShorteners      []string `json:"url_shorteners"`
	TrustedDomains     []string `json:"trusted_domains"`
	SuspiciousKeywords []string `json:"suspicious_domain_keywords"`
}

// AnalysisStats summarizes persisted analysis history.
type AnalysisStats struct {
	TotalAnalyses   int64            `json:"total_analyses"`
	ThreatsDetected int64            `json:"threats_detected"`
	ByRiskLevel     map[string]int64 `json:"by_risk_level"`
	AverageScore    float64          `json:"average_score"`
	Since           *time.Time       `json:"since,omitempty"`
}

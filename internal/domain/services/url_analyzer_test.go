package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

func newStructuralURLAnalyzer() *URLAnalyzer {
	checks := config.DefaultChecksConfig()
	checks.RedirectsEnabled = false
	checks.DomainAgeEnabled = false
	checks.DNSEnabled = false
	return NewURLAnalyzer(config.DefaultScoringConfig().URL, checks, nil, nil, nil, nil, logger.NewDefault())
}

func TestURLAnalyzer_StructuralFactors(t *testing.T) {
	a := newStructuralURLAnalyzer()

	tests := []struct {
		name       string
		url        string
		wantScore  float64
		wantLevel  models.RiskLevel
		wantFactor string
	}{
		{
			name:       "IP address host",
			url:        "http://192.0.2.10/login.php",
			wantScore:  0.4,
			wantLevel:  models.RiskLevelMedium,
			wantFactor: "IP address used instead of domain",
		},
		{
			name:       "shortener",
			url:        "http://bit.ly/3xyzabc",
			wantScore:  0.3,
			wantLevel:  models.RiskLevelLow,
			wantFactor: "URL shortening service detected",
		},
		{
			name:       "trusted domain",
			url:        "https://github.com/owner/repo",
			wantScore:  0,
			wantLevel:  models.RiskLevelVeryLow,
			wantFactor: "Trusted domain detected",
		},
		{
			name:       "suspicious keyword",
			url:        "http://paypal-security.example.net",
			wantScore:  0.15,
			wantLevel:  models.RiskLevelVeryLow,
			wantFactor: "Suspicious keyword in domain: paypal",
		},
		{
			name:       "risky extension",
			url:        "http://example.net/files/invoice.exe",
			wantScore:  0.3,
			wantLevel:  models.RiskLevelLow,
			wantFactor: "Suspicious file extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Analyze(context.Background(), tt.url)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if !almostEqual(got.Score, tt.wantScore) {
				t.Errorf("score = %v, want %v (factors: %v)", got.Score, tt.wantScore, got.Factors)
			}
			if got.RiskLevel != tt.wantLevel {
				t.Errorf("risk level = %v, want %v", got.RiskLevel, tt.wantLevel)
			}
			if !containsFactor(got.Factors, tt.wantFactor) {
				t.Errorf("factors %v missing %q", got.Factors, tt.wantFactor)
			}
		})
	}
}

func TestURLAnalyzer_SchemeDefaulting(t *testing.T) {
	a := newStructuralURLAnalyzer()

	got, err := a.Analyze(context.Background(), "bit.ly/abc")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Domain != "bit.ly" {
		t.Errorf("domain = %q, want bit.ly", got.Domain)
	}
}

func TestURLAnalyzer_InvalidURL(t *testing.T) {
	a := newStructuralURLAnalyzer()

	for _, raw := range []string{"http://exa mple.com", "http://"} {
		_, err := a.Analyze(context.Background(), raw)
		var invalidURL *InvalidURLError
		if !errors.As(err, &invalidURL) {
			t.Errorf("Analyze(%q) error = %v, want InvalidURLError", raw, err)
		}
	}
}

func TestURLAnalyzer_ExcessiveHyphensAndKeyword(t *testing.T) {
	a := newStructuralURLAnalyzer()

	got, err := a.Analyze(context.Background(), "http://secure-login-update-verify-account.example.net")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// suspicious keyword (0.15, first match only) + excessive hyphens (0.1)
	if !almostEqual(got.Score, 0.25) {
		t.Errorf("score = %v, want 0.25 (factors: %v)", got.Score, got.Factors)
	}
	var keywordFactors int
	for _, f := range got.Factors {
		if strings.HasPrefix(f, "Suspicious keyword in domain:") {
			keywordFactors++
		}
	}
	if keywordFactors != 1 {
		t.Errorf("keyword factors = %d, want exactly 1", keywordFactors)
	}
}

func TestURLAnalyzer_Confidence(t *testing.T) {
	a := newStructuralURLAnalyzer()

	got, err := a.Analyze(context.Background(), "http://bit.ly/abc")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// base 0.6 + one definitive factor
	if !almostEqual(got.Confidence, 0.65) {
		t.Errorf("confidence = %v, want 0.65", got.Confidence)
	}
}

type fakeRedirects struct {
	hops []models.Redirection
	err  error
}

func (f *fakeRedirects) Follow(_ context.Context, _ string) ([]models.Redirection, error) {
	return f.hops, f.err
}

type fakeAges struct {
	days int
	err  error
}

func (f *fakeAges) AgeDays(_ context.Context, _ string) (int, error) {
	return f.days, f.err
}

type fakeDNS struct {
	lookup *models.DNSLookup
	err    error
}

func (f *fakeDNS) Lookup(_ context.Context, _ string) (*models.DNSLookup, error) {
	return f.lookup, f.err
}

func newNetworkURLAnalyzer(r RedirectFollower, ages DomainAgeChecker, dns DNSChecker) *URLAnalyzer {
	return NewURLAnalyzer(config.DefaultScoringConfig().URL, config.DefaultChecksConfig(), r, ages, dns, nil, logger.NewDefault())
}

func TestURLAnalyzer_NetworkChecks(t *testing.T) {
	a := newNetworkURLAnalyzer(
		&fakeRedirects{hops: []models.Redirection{
			{From: "http://example.net", To: "http://other.example.net", Status: 301},
			{From: "http://other.example.net", To: "http://final.example.net", Status: 302},
		}},
		&fakeAges{days: 10},
		&fakeDNS{lookup: &models.DNSLookup{IPAddresses: []string{"198.51.100.7"}, HasMX: true}},
	)

	got, err := a.Analyze(context.Background(), "http://example.net")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// 2 redirects (0.15) + very new domain (0.3)
	if !almostEqual(got.Score, 0.45) {
		t.Errorf("score = %v, want 0.45 (factors: %v)", got.Score, got.Factors)
	}
	if !containsFactor(got.Factors, "Redirection chain detected (2 redirects)") {
		t.Errorf("factors %v missing redirect factor", got.Factors)
	}
	if !containsFactor(got.Factors, "Very new domain (10 days old)") {
		t.Errorf("factors %v missing domain age factor", got.Factors)
	}
	if got.DomainAgeDays == nil || *got.DomainAgeDays != 10 {
		t.Errorf("domain age days = %v, want 10", got.DomainAgeDays)
	}
	if len(got.Redirections) != 2 {
		t.Errorf("redirections = %d, want 2", len(got.Redirections))
	}
	if got.HasMX == nil || !*got.HasMX {
		t.Errorf("has MX = %v, want true", got.HasMX)
	}
}

func TestURLAnalyzer_NXDomain(t *testing.T) {
	a := newNetworkURLAnalyzer(
		&fakeRedirects{err: errors.New("no such host")},
		&fakeAges{err: errors.New("no whois data")},
		&fakeDNS{lookup: &models.DNSLookup{NXDomain: true}},
	)

	got, err := a.Analyze(context.Background(), "http://nonexistent.example")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !almostEqual(got.Score, 0.4) {
		t.Errorf("score = %v, want 0.4 (factors: %v)", got.Score, got.Factors)
	}
	if !containsFactor(got.Factors, "Domain does not exist (NXDOMAIN)") {
		t.Errorf("factors %v missing NXDOMAIN factor", got.Factors)
	}
	// Degraded checks must not raise confidence: 0.6 + 1 definitive factor.
	if !almostEqual(got.Confidence, 0.65) {
		t.Errorf("confidence = %v, want 0.65", got.Confidence)
	}
	if !containsFactor(got.Factors, "Could not check redirections") {
		t.Errorf("factors %v missing degraded redirect factor", got.Factors)
	}
	if !containsFactor(got.Factors, "Could not determine domain age") {
		t.Errorf("factors %v missing degraded age factor", got.Factors)
	}
}

func TestURLAnalyzer_SuspiciousResolvedIP(t *testing.T) {
	a := newNetworkURLAnalyzer(
		&fakeRedirects{},
		&fakeAges{days: 3650},
		&fakeDNS{lookup: &models.DNSLookup{IPAddresses: []string{"10.0.0.5"}, HasMX: false}},
	)

	got, err := a.Analyze(context.Background(), "http://example.net")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// established (-0.1) + suspicious IP (0.2) + missing MX (0.05)
	if !almostEqual(got.Score, 0.15) {
		t.Errorf("score = %v, want 0.15 (factors: %v)", got.Score, got.Factors)
	}
	if !containsFactor(got.Factors, "Suspicious IP address: 10.0.0.5") {
		t.Errorf("factors %v missing suspicious IP factor", got.Factors)
	}
	if !containsFactor(got.Factors, "No email records (MX) found") {
		t.Errorf("factors %v missing MX factor", got.Factors)
	}
}

func TestURLAnalyzer_NoARecordsScoresNothing(t *testing.T) {
	a := newNetworkURLAnalyzer(
		&fakeRedirects{},
		&fakeAges{days: 365},
		&fakeDNS{lookup: &models.DNSLookup{HasMX: true}},
	)

	got, err := a.Analyze(context.Background(), "http://example.net")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !almostEqual(got.Score, 0) {
		t.Errorf("score = %v, want 0 (factors: %v)", got.Score, got.Factors)
	}
	if !containsFactor(got.Factors, "No A records found") {
		t.Errorf("factors %v missing A record factor", got.Factors)
	}
}

func TestURLAnalyzer_RedirectToKeywordHost(t *testing.T) {
	a := newNetworkURLAnalyzer(
		&fakeRedirects{hops: []models.Redirection{
			{From: "http://example.net", To: "http://secure-files.example.net", Status: 302},
		}},
		&fakeAges{days: 365},
		&fakeDNS{lookup: &models.DNSLookup{IPAddresses: []string{"198.51.100.7"}, HasMX: true}},
	)

	got, err := a.Analyze(context.Background(), "http://example.net")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// A keyword in the hop host is not a shortener hop: single redirect only.
	if !almostEqual(got.Score, 0.05) {
		t.Errorf("score = %v, want 0.05 (factors: %v)", got.Score, got.Factors)
	}
	if containsFactor(got.Factors, "Redirection through suspicious domain") {
		t.Errorf("factors %v should not flag the redirect as suspicious", got.Factors)
	}
}

func TestURLAnalyzer_RedirectThroughShortener(t *testing.T) {
	a := newNetworkURLAnalyzer(
		&fakeRedirects{hops: []models.Redirection{
			{From: "http://example.net", To: "http://bit.ly/abc", Status: 302},
		}},
		&fakeAges{days: 365},
		&fakeDNS{lookup: &models.DNSLookup{IPAddresses: []string{"198.51.100.7"}, HasMX: true}},
	)

	got, err := a.Analyze(context.Background(), "http://example.net")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// single redirect (0.05) + shortener hop (0.2)
	if !almostEqual(got.Score, 0.25) {
		t.Errorf("score = %v, want 0.25 (factors: %v)", got.Score, got.Factors)
	}
	if !containsFactor(got.Factors, "Redirection through suspicious domain") {
		t.Errorf("factors %v missing suspicious redirect factor", got.Factors)
	}
}

func TestMatchesDomain(t *testing.T) {
	tests := []struct {
		domain string
		list   []string
		want   bool
	}{
		{"bit.ly", urlShorteners, true},
		{"sub.bit.ly", urlShorteners, true},
		{"evil-bit.ly.example.net", urlShorteners, false},
		{"amazon.com", trustedDomains, true},
		{"www.amazon.com", trustedDomains, true},
		{"amazon.com-rewards.net", trustedDomains, false},
		{"notamazon.com", trustedDomains, false},
	}
	for _, tt := range tests {
		if got := matchesDomain(tt.domain, tt.list); got != tt.want {
			t.Errorf("matchesDomain(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestURLAnalyzer_ScoreClamped(t *testing.T) {
	a := newNetworkURLAnalyzer(
		&fakeRedirects{hops: []models.Redirection{
			{From: "a", To: "http://bit.ly/x", Status: 302},
			{From: "b", To: "http://c.example", Status: 302},
			{From: "c", To: "http://d.example", Status: 302},
			{From: "d", To: "http://e.example", Status: 302},
		}},
		&fakeAges{days: 1},
		&fakeDNS{lookup: &models.DNSLookup{NXDomain: true}},
	)

	got, err := a.Analyze(context.Background(), "http://192.0.2.44/claim.exe")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Score != 1.0 {
		t.Errorf("score = %v, want clamped to 1.0", got.Score)
	}
	if got.RiskLevel != models.RiskLevelHigh {
		t.Errorf("risk level = %v, want High", got.RiskLevel)
	}
	if got.Recommendation != "DO NOT VISIT - High risk of malicious content" {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
}

func containsFactor(factors []string, want string) bool {
	for _, f := range factors {
		if f == want {
			return true
		}
	}
	return false
}

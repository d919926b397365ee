package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/internal/infrastructure/cache"
	"phishguard/pkg/logger"
)

// RedirectFollower walks a URL's redirect chain without fetching bodies.
type RedirectFollower interface {
	Follow(ctx context.Context, rawURL string) ([]models.Redirection, error)
}

// DomainAgeChecker reports how many days ago a domain was registered.
type DomainAgeChecker interface {
	AgeDays(ctx context.Context, domain string) (int, error)
}

// DNSChecker resolves a domain's A and MX records.
type DNSChecker interface {
	Lookup(ctx context.Context, domain string) (*models.DNSLookup, error)
}

const (
	subdomainLimit  = 3
	domainLenLimit  = 50
	hyphenLimit     = 3
	urlLenLimit     = 200
	veryNewAgeDays  = 30
	recentAgeDays   = 90
	establishedDays = 5 * 365
)

var base64Pattern = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)

// URLAnalyzer scores URLs for risk using structural heuristics plus three
// optional network checks (redirect chain, domain age, DNS). Network check
// failures degrade to factor strings rather than errors.
type URLAnalyzer struct {
	cfg       config.URLScoringConfig
	checks    config.ChecksConfig
	redirects RedirectFollower
	ages      DomainAgeChecker
	dns       DNSChecker
	cache     *cache.RedisCache
	logger    *logger.Logger
}

// NewURLAnalyzer creates a new URL analyzer. Any of redirects, ages, dns and
// c may be nil; the corresponding check or caching is skipped.
func NewURLAnalyzer(
	cfg config.URLScoringConfig,
	checks config.ChecksConfig,
	redirects RedirectFollower,
	ages DomainAgeChecker,
	dns DNSChecker,
	c *cache.RedisCache,
	log *logger.Logger,
) *URLAnalyzer {
	return &URLAnalyzer{
		cfg:       cfg,
		checks:    checks,
		redirects: redirects,
		ages:      ages,
		dns:       dns,
		cache:     c,
		logger:    log.WithComponent("url-analyzer"),
	}
}

// Analyze scores a single URL. It returns an *InvalidURLError when the URL
// cannot be parsed or has no host.
func (a *URLAnalyzer) Analyze(ctx context.Context, rawURL string) (*models.URLAnalysis, error) {
	normalized := rawURL
	if !strings.Contains(normalized, "://") {
		normalized = "http://" + normalized
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Err: err}
	}
	domain := strings.ToLower(parsed.Hostname())
	if domain == "" {
		return nil, &InvalidURLError{URL: rawURL, Err: fmt.Errorf("missing host")}
	}

	if cached := a.cachedResult(ctx, normalized); cached != nil {
		return cached, nil
	}

	result := &models.URLAnalysis{
		URL:    rawURL,
		Domain: domain,
	}

	score := a.structuralScore(normalized, parsed, domain, result)
	score += a.networkScore(ctx, normalized, domain, result)

	result.Score = clamp(score, 0, 1)
	result.RiskLevel, result.Recommendation = a.band(result.Score)
	result.Confidence = a.confidence(result.Factors)

	a.storeResult(ctx, normalized, result)
	return result, nil
}

// structuralScore applies the deterministic URL heuristics in a fixed order.
func (a *URLAnalyzer) structuralScore(normalized string, parsed *url.URL, domain string, result *models.URLAnalysis) float64 {
	var score float64
	add := func(weight float64, factor string) {
		score += weight
		result.Factors = append(result.Factors, factor)
	}

	if net.ParseIP(domain) != nil {
		add(a.cfg.IPAddress, "IP address used instead of domain")
	}

	if matchesDomain(domain, urlShorteners) {
		add(a.cfg.Shortener, "URL shortening service detected")
	}

	if matchesDomain(domain, trustedDomains) {
		add(a.cfg.TrustedDomain, "Trusted domain detected")
	}

	if labels := strings.Split(domain, "."); len(labels) > 2 && len(labels)-2 > subdomainLimit {
		add(a.cfg.ExcessSubdomains, fmt.Sprintf("Excessive subdomains (%d)", len(labels)-2))
	}

	for _, kw := range suspiciousDomainKeywords {
		if strings.Contains(domain, kw) && !matchesDomain(domain, trustedDomains) {
			add(a.cfg.SuspiciousKeyword, "Suspicious keyword in domain: "+kw)
			break
		}
	}

	if len(domain) > domainLenLimit {
		add(a.cfg.LongDomain, "Unusually long domain name")
	}

	if strings.Count(domain, "-") > hyphenLimit {
		add(a.cfg.ExcessHyphens, "Excessive hyphens in domain")
	}

	if hasBase64Payload(parsed.Path + "?" + parsed.RawQuery) {
		add(a.cfg.Base64Payload, "Base64 encoding detected")
	}

	lowerPath := strings.ToLower(parsed.Path)
	for _, ext := range riskyExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			add(a.cfg.RiskyExtension, "Suspicious file extension")
			break
		}
	}

	if len(normalized) > urlLenLimit {
		add(a.cfg.LongURL, "Unusually long URL")
	}

	return score
}

// networkScore runs the enabled network checks concurrently and folds their
// contributions in a stable order: redirects, then domain age, then DNS.
func (a *URLAnalyzer) networkScore(ctx context.Context, normalized, domain string, result *models.URLAnalysis) float64 {
	type contribution struct {
		score   float64
		factors []string
	}
	var redirectC, ageC, dnsC contribution

	var wg sync.WaitGroup

	if a.checks.RedirectsEnabled && a.redirects != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			redirectC.score, redirectC.factors = a.checkRedirects(ctx, normalized, result)
		}()
	}

	if a.checks.DomainAgeEnabled && a.ages != nil && net.ParseIP(domain) == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ageC.score, ageC.factors = a.checkDomainAge(ctx, domain, result)
		}()
	}

	if a.checks.DNSEnabled && a.dns != nil && net.ParseIP(domain) == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dnsC.score, dnsC.factors = a.checkDNS(ctx, domain, result)
		}()
	}

	wg.Wait()

	var score float64
	for _, c := range []contribution{redirectC, ageC, dnsC} {
		score += c.score
		result.Factors = append(result.Factors, c.factors...)
	}
	return score
}

func (a *URLAnalyzer) checkRedirects(ctx context.Context, normalized string, result *models.URLAnalysis) (float64, []string) {
	hops, err := a.redirects.Follow(ctx, normalized)
	if err != nil {
		a.logger.Debug().Err(err).Str("url", normalized).Msg("redirect check failed")
		return 0, []string{"Could not check redirections"}
	}
	result.Redirections = hops

	n := len(hops)
	if n == 0 {
		return 0, nil
	}

	var score float64
	factors := []string{fmt.Sprintf("Redirection chain detected (%d redirects)", n)}
	switch {
	case n > 3:
		score += a.cfg.ManyRedirects
	case n > 1:
		score += a.cfg.SomeRedirects
	default:
		score += a.cfg.SingleRedirect
	}

	for _, hop := range hops {
		target, err := url.Parse(hop.To)
		if err != nil {
			continue
		}
		host := strings.ToLower(target.Hostname())
		if matchesDomain(host, urlShorteners) {
			score += a.cfg.SuspiciousRedirect
			factors = append(factors, "Redirection through suspicious domain")
			break
		}
	}

	return score, factors
}

func (a *URLAnalyzer) checkDomainAge(ctx context.Context, domain string, result *models.URLAnalysis) (float64, []string) {
	ctx, cancel := context.WithTimeout(ctx, a.checks.WhoisTimeout)
	defer cancel()

	days, err := a.ages.AgeDays(ctx, domain)
	if err != nil {
		a.logger.Debug().Err(err).Str("domain", domain).Msg("domain age check failed")
		return 0, []string{"Could not determine domain age"}
	}
	result.DomainAgeDays = &days

	switch {
	case days < veryNewAgeDays:
		return a.cfg.VeryNewDomain, []string{fmt.Sprintf("Very new domain (%d days old)", days)}
	case days < recentAgeDays:
		return a.cfg.RecentDomain, []string{fmt.Sprintf("Recently created domain (%d days old)", days)}
	case days > establishedDays:
		return a.cfg.EstablishedDomain, []string{"Well-established domain (5+ years)"}
	}
	return 0, nil
}

func (a *URLAnalyzer) checkDNS(ctx context.Context, domain string, result *models.URLAnalysis) (float64, []string) {
	ctx, cancel := context.WithTimeout(ctx, a.checks.DNSTimeout)
	defer cancel()

	lookup, err := a.dns.Lookup(ctx, domain)
	if err != nil {
		a.logger.Debug().Err(err).Str("domain", domain).Msg("DNS check failed")
		return 0, []string{"Could not resolve domain"}
	}

	if lookup.NXDomain {
		return a.cfg.NXDomain, []string{"Domain does not exist (NXDOMAIN)"}
	}

	result.IPAddresses = lookup.IPAddresses
	hasMX := lookup.HasMX
	result.HasMX = &hasMX

	var score float64
	var factors []string

	// Informational only; a resolvable domain without A records gets the
	// factor recorded but no score contribution.
	if len(lookup.IPAddresses) == 0 {
		factors = append(factors, "No A records found")
	}
	for _, addr := range lookup.IPAddresses {
		ip := net.ParseIP(addr)
		if ip != nil && (ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified()) {
			score += a.cfg.SuspiciousIP
			factors = append(factors, "Suspicious IP address: "+addr)
		}
	}

	if !lookup.HasMX {
		score += a.cfg.MissingMX
		factors = append(factors, "No email records (MX) found")
	}

	return score, factors
}

// band maps a score to its risk level and recommendation.
func (a *URLAnalyzer) band(score float64) (models.RiskLevel, string) {
	switch {
	case score >= a.cfg.HighThreshold:
		return models.RiskLevelHigh, "DO NOT VISIT - High risk of malicious content"
	case score >= a.cfg.MediumThreshold:
		return models.RiskLevelMedium, "CAUTION - Potentially suspicious, verify before visiting"
	case score >= a.cfg.LowThreshold:
		return models.RiskLevelLow, "Generally safe, but remain cautious"
	default:
		return models.RiskLevelVeryLow, "Appears safe to visit"
	}
}

// confidence grows with the number of checks that produced a definitive
// factor. Degraded checks do not count.
func (a *URLAnalyzer) confidence(factors []string) float64 {
	var definitive int
	for _, f := range factors {
		if strings.HasPrefix(f, "Could not") || strings.Contains(f, "check failed") {
			continue
		}
		definitive++
	}
	conf := a.cfg.BaseConfidence + a.cfg.ConfidenceStep*float64(definitive)
	if conf > a.cfg.ConfidenceCap {
		conf = a.cfg.ConfidenceCap
	}
	return conf
}

func (a *URLAnalyzer) cachedResult(ctx context.Context, normalized string) *models.URLAnalysis {
	if a.cache == nil {
		return nil
	}
	var cached models.URLAnalysis
	if err := a.cache.GetJSON(ctx, urlCacheKey(normalized), &cached); err != nil {
		return nil
	}
	a.logger.Debug().Str("url", normalized).Msg("URL analysis served from cache")
	return &cached
}

func (a *URLAnalyzer) storeResult(ctx context.Context, normalized string, result *models.URLAnalysis) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SetJSON(ctx, urlCacheKey(normalized), result, a.checks.CacheTTL); err != nil {
		a.logger.Debug().Err(err).Msg("failed to cache URL analysis")
	}
}

func urlCacheKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return cache.KeyURLCheckPrefix + hex.EncodeToString(sum[:])
}

// matchesDomain reports whether domain equals an entry in the list or is a
// subdomain of one. Substring hits do not match: amazon.com-rewards.net is
// neither amazon.com nor a subdomain of it.
func matchesDomain(domain string, list []string) bool {
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// hasBase64Payload reports whether the path or query carries a token that
// decodes as base64.
func hasBase64Payload(s string) bool {
	for _, match := range base64Pattern.FindAllString(s, -1) {
		if _, err := base64.StdEncoding.DecodeString(match); err == nil {
			return true
		}
		if _, err := base64.RawStdEncoding.DecodeString(match); err == nil {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

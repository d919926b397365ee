package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"phishguard/internal/api/handlers"
	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/internal/domain/services"
	"phishguard/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.NewDefault()
	sc := config.DefaultScoringConfig()
	checks := config.DefaultChecksConfig()
	checks.RedirectsEnabled = false
	checks.DomainAgeEnabled = false
	checks.DNSEnabled = false

	text := services.NewTextAnalyzer(sc.Text, nil, log)
	urls := services.NewURLAnalyzer(sc.URL, checks, nil, nil, nil, nil, log)
	combined := services.NewCombinedAnalyzer(sc.Combined, checks.AnalysisTimeout, text, urls, nil, "test", log)

	h := handlers.NewHandlers(handlers.Dependencies{
		Combined: combined,
		Text:     text,
		URLs:     urls,
		Logger:   log,
		Version:  "test",
	})

	cfg := config.Config{
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		},
	}
	server := httptest.NewServer(NewRouter(cfg, h, nil, log).Setup())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestRouter_Analyze(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/analyze",
		`{"text": "URGENT: verify now, your access is suspended", "url": "http://bit.ly/3xyzabc"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result models.CombinedAnalysis
	decodeBody(t, resp, &result)
	if !result.IsThreat {
		t.Error("expected threat verdict")
	}
	if result.RiskLevel != models.RiskLevelMedium {
		t.Errorf("risk level = %v, want Medium", result.RiskLevel)
	}
	if result.IndividualResults.Text == nil || result.IndividualResults.URL == nil {
		t.Error("expected both individual results")
	}
}

func TestRouter_AnalyzeNoInput(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/analyze", `{"text": "", "url": ""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestRouter_AnalyzeInvalidJSON(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/analyze", `{not json`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRouter_AnalyzeBatch(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/analyze/batch",
		`{"inputs": [{"text": "hello"}, {"url": "http://bit.ly/abc"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var batch models.BatchResponse
	decodeBody(t, resp, &batch)
	if batch.Total != 2 || len(batch.Results) != 2 {
		t.Errorf("batch = %+v, want 2 results", batch)
	}

	resp = postJSON(t, server.URL+"/api/v1/analyze/batch", `{"inputs": []}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", resp.StatusCode)
	}
}

func TestRouter_TextAnalyze(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/text/analyze", `{"text": "urgent lottery claim"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result models.TextAnalysis
	decodeBody(t, resp, &result)
	if !result.IsFlagged {
		t.Error("expected flagged text")
	}

	resp = postJSON(t, server.URL+"/api/v1/text/analyze", `{"text": ""}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", resp.StatusCode)
	}
}

func TestRouter_URLCheck(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/url/check", `{"url": "http://192.0.2.10/login"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result models.URLAnalysis
	decodeBody(t, resp, &result)
	if result.RiskLevel != models.RiskLevelMedium {
		t.Errorf("risk level = %v, want Medium", result.RiskLevel)
	}

	resp = postJSON(t, server.URL+"/api/v1/url/check", `{"url": "http://exa mple.com"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid url status = %d, want 400", resp.StatusCode)
	}
}

func TestRouter_InfoAndPatterns(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/info")
	if err != nil {
		t.Fatal(err)
	}
	var info models.AnalyzerInfo
	decodeBody(t, resp, &info)
	if info.Name != "phishguard" {
		t.Errorf("info name = %q, want phishguard", info.Name)
	}

	resp, err = http.Get(server.URL + "/api/v1/patterns")
	if err != nil {
		t.Fatal(err)
	}
	var patterns models.PatternSet
	decodeBody(t, resp, &patterns)
	if len(patterns.PhishingKeywords) == 0 {
		t.Error("expected phishing keyword table")
	}
}

func TestRouter_Health(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}

func TestRouter_StatsWithoutStore(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/stats")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("stats status = %d, want 503", resp.StatusCode)
	}
}

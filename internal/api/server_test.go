package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trendag/internal/cache"
	"trendag/internal/config"
	"trendag/internal/dedup"
	"trendag/internal/models"
	"trendag/internal/provider"
	"trendag/internal/scheduler"
	"trendag/internal/scorer"
	"trendag/internal/storage"
	"trendag/internal/trend"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAPIConfig() *config.Config {
	return &config.Config{
		Port:            8080,
		CycleInterval:   time.Hour,
		FetchTimeout:    5 * time.Second,
		ErrorBufferSize: 10,
		Scorer: config.ScorerConfig{
			Categories: map[string]config.CategoryConfig{
				"crisis": {
					Terms:     []string{"emergency", "urgent", "flood", "warning", "earthquake"},
					Threshold: 0.2,
					Weight:    1.5,
				},
				"spam": {
					Terms:     []string{"click here", "buy now"},
					Threshold: 0.3,
					Weight:    0.0,
				},
			},
			SpamCategory:  "spam",
			SpamThreshold: 0.5,
		},
		Dedup: config.DedupConfig{
			TitleSimilarity: 0.8,
			FuzzySimilarity: 0.75,
			MinURLLength:    12,
		},
		Trend: config.TrendConfig{
			Weights: config.ScoreWeights{
				Frequency: 0.30, Velocity: 0.25, Engagement: 0.20,
				CrossPlatform: 0.15, Recency: 0.10,
			},
			TrendingThreshold: 0.6,
			ViralThreshold:    0.8,
			CrisisAlertLevel:  0.7,
			MinMentions:       3,
			AnalysisCacheTTL:  5 * time.Minute,
			HistoryWindow:     24 * time.Hour,
			HistoryRetention:  7 * 24 * time.Hour,
			TopN:              10,
		},
		Security: config.SecurityConfig{
			MaxRequestSize: 1 << 20,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testAPIConfig()

	keywordScorer, err := scorer.New(cfg.Scorer)
	if err != nil {
		t.Fatalf("Failed to create scorer: %v", err)
	}
	cacheManager := cache.NewManager(cfg.Trend.AnalysisCacheTTL)
	trendEngine := trend.NewEngine(cfg.Trend, cacheManager)
	normalizer := provider.NewNormalizer(cfg.Dedup.MinURLLength)

	store, err := storage.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	providers := []provider.Provider{
		provider.NewStaticProvider("wire", models.ProviderNews, 3, []provider.Record{
			{Title: "URGENT: Flood warning issued for Delhi residents", Reactions: 400},
			{Title: "Local bakery opens downtown"},
		}),
		provider.NewStaticProvider("forum", models.ProviderSocial, 2, []provider.Record{
			{Title: "Local bakery opens downtown"},
		}),
	}

	sched := scheduler.New(providers, normalizer, keywordScorer, dedup.New(cfg.Dedup), trendEngine, cacheManager, store, cfg)
	return NewServer(sched, keywordScorer, trendEngine, store, cfg)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Errorf("Unexpected status: %v", body["status"])
	}
}

func TestPipelineRunAndContent(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/pipeline/run", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from pipeline run, got %d: %s", w.Code, w.Body.String())
	}

	result := decodeBody(t, w)
	if result["success"] != true {
		t.Error("Expected a successful cycle")
	}

	w = doRequest(s, http.MethodGet, "/api/v1/content", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"].(float64) != 2 {
		t.Errorf("Expected 2 items after dedup, got %v", body["count"])
	}

	w = doRequest(s, http.MethodGet, "/api/v1/content/news", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for the news bucket, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/content/events", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an empty bucket, got %d", w.Code)
	}
}

func TestCrisisEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/v1/pipeline/run", "")

	w := doRequest(s, http.MethodGet, "/api/v1/crisis?min_score=0.3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"].(float64) != 1 {
		t.Errorf("Expected 1 crisis item, got %v", body["count"])
	}
}

func TestTrendsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/v1/pipeline/run", "")

	w := doRequest(s, http.MethodGet, "/api/v1/trends", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/trends?force=true", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for a forced refresh, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/trends?force=maybe", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed force flag, got %d", w.Code)
	}
}

func TestQueryValidation(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/viral?min_score=2", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for min_score out of range, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/viral?min_score=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-numeric min_score, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/viral?min_score=0.5", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for a valid min_score, got %d", w.Code)
	}
}

func TestKeywordEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/keywords/politics", `{"terms":["election","parliament"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 adding keywords, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, http.MethodGet, "/api/v1/keywords", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "politics") {
		t.Error("Expected the new category in the keyword listing")
	}

	w = doRequest(s, http.MethodDelete, "/api/v1/keywords/nonexistent", `{"terms":["x"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 removing from an unknown category, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPost, "/api/v1/keywords/politics", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a missing terms field, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPost, "/api/v1/keywords/bad%21name", `{"terms":["x"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid category name, got %d", w.Code)
	}
}

func TestThresholdEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/thresholds/spam", `{"threshold":0.6}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, http.MethodPost, "/api/v1/thresholds/spam", `{"threshold":1.5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an out-of-range threshold, got %d", w.Code)
	}

	w = doRequest(s, http.MethodPost, "/api/v1/keywords/crisis/weight", `{"weight":2.0}`)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 updating a weight, got %d", w.Code)
	}
}

func TestRecentRunsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/v1/pipeline/run", "")

	w := doRequest(s, http.MethodGet, "/api/v1/pipeline/runs?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["count"].(float64) != 1 {
		t.Errorf("Expected 1 archived run, got %v", body["count"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/api/v1/pipeline/run", "")

	w := doRequest(s, http.MethodGet, "/api/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	for _, key := range []string{"scorer", "dedup", "scheduler", "database"} {
		if _, ok := body[key]; !ok {
			t.Errorf("Expected %q in the stats payload", key)
		}
	}
}

func TestStatusAndErrorsEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/pipeline/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/v1/pipeline/errors", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"].(float64) != 0 {
		t.Errorf("Expected no recorded errors, got %v", body["count"])
	}
}

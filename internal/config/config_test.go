package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.CycleInterval != 15*time.Minute {
		t.Errorf("Expected default cycle interval 15m, got %v", cfg.CycleInterval)
	}
	if cfg.ErrorBufferSize != 50 {
		t.Errorf("Expected default error buffer size 50, got %d", cfg.ErrorBufferSize)
	}

	if len(cfg.Providers) != 3 {
		t.Errorf("Expected 3 default providers, got %d", len(cfg.Providers))
	}
	if cfg.Providers["news"].Priority != 3 {
		t.Errorf("Expected news priority 3, got %d", cfg.Providers["news"].Priority)
	}

	if _, ok := cfg.Scorer.Categories["crisis"]; !ok {
		t.Error("Expected a default crisis category")
	}
	if cfg.Scorer.SpamCategory != "spam" {
		t.Errorf("Expected spam category 'spam', got %q", cfg.Scorer.SpamCategory)
	}

	if cfg.Dedup.TitleSimilarity != 0.8 {
		t.Errorf("Expected title similarity 0.8, got %f", cfg.Dedup.TitleSimilarity)
	}
	if cfg.Trend.MinMentions != 3 {
		t.Errorf("Expected min mentions 3, got %d", cfg.Trend.MinMentions)
	}
	if cfg.Trend.AnalysisCacheTTL != 5*time.Minute {
		t.Errorf("Expected cache TTL 5m, got %v", cfg.Trend.AnalysisCacheTTL)
	}

	weights := cfg.Trend.Weights
	sum := weights.Frequency + weights.Velocity + weights.Engagement + weights.CrossPlatform + weights.Recency
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected default weights to sum to 1.0, got %f", sum)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CYCLE_INTERVAL", "1m")
	t.Setenv("TREND_MIN_MENTIONS", "5")
	t.Setenv("SPAM_THRESHOLD", "0.7")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.CycleInterval != time.Minute {
		t.Errorf("Expected cycle interval 1m, got %v", cfg.CycleInterval)
	}
	if cfg.Trend.MinMentions != 5 {
		t.Errorf("Expected min mentions 5, got %d", cfg.Trend.MinMentions)
	}
	if cfg.Scorer.SpamThreshold != 0.7 {
		t.Errorf("Expected spam threshold 0.7, got %f", cfg.Scorer.SpamThreshold)
	}
}

func TestLoad_HistoryWindowDrivesRetention(t *testing.T) {
	t.Setenv("TREND_HISTORY_WINDOW", "12h")

	cfg := Load()

	if cfg.Trend.HistoryWindow != 12*time.Hour {
		t.Errorf("Expected history window 12h, got %v", cfg.Trend.HistoryWindow)
	}
	if cfg.Trend.HistoryRetention != 84*time.Hour {
		t.Errorf("Expected retention to follow the window (84h), got %v", cfg.Trend.HistoryRetention)
	}

	t.Setenv("TREND_HISTORY_RETENTION", "48h")
	cfg = Load()
	if cfg.Trend.HistoryRetention != 48*time.Hour {
		t.Errorf("Expected explicit retention 48h to win, got %v", cfg.Trend.HistoryRetention)
	}
}

func TestLoad_ProviderFromEnv(t *testing.T) {
	t.Setenv("PROVIDER_CUSTOM", "https://a.example/feed.xml,https://b.example/feed.xml|4")

	cfg := Load()

	pc, ok := cfg.Providers["custom"]
	if !ok {
		t.Fatal("Expected the custom provider to be loaded")
	}
	if len(pc.URLs) != 2 {
		t.Errorf("Expected 2 URLs, got %d", len(pc.URLs))
	}
	if pc.Priority != 4 {
		t.Errorf("Expected priority 4, got %d", pc.Priority)
	}

	// Env-defined providers replace the defaults entirely.
	if _, ok := cfg.Providers["news"]; ok {
		t.Error("Expected default providers to be replaced")
	}
}

func TestParseProviderValue(t *testing.T) {
	urls, priority := parseProviderValue("https://a.example/rss, https://b.example/rss |2")
	if len(urls) != 2 {
		t.Fatalf("Expected 2 URLs, got %d", len(urls))
	}
	if urls[1] != "https://b.example/rss" {
		t.Errorf("Expected trimmed URL, got %q", urls[1])
	}
	if priority != 2 {
		t.Errorf("Expected priority 2, got %d", priority)
	}

	urls, priority = parseProviderValue("https://a.example/rss")
	if len(urls) != 1 || priority != 1 {
		t.Errorf("Expected 1 URL with default priority 1, got %d URLs priority %d", len(urls), priority)
	}
}

func TestParseCategoryValue(t *testing.T) {
	cat := parseCategoryValue("flood,earthquake|0.4|2.0")
	if len(cat.Terms) != 2 {
		t.Fatalf("Expected 2 terms, got %d", len(cat.Terms))
	}
	if cat.Threshold != 0.4 {
		t.Errorf("Expected threshold 0.4, got %f", cat.Threshold)
	}
	if cat.Weight != 2.0 {
		t.Errorf("Expected weight 2.0, got %f", cat.Weight)
	}

	cat = parseCategoryValue("flood")
	if cat.Threshold != 0.3 || cat.Weight != 1.0 {
		t.Errorf("Expected defaults 0.3/1.0, got %f/%f", cat.Threshold, cat.Weight)
	}
}

func TestLoad_CategoryFromEnv(t *testing.T) {
	t.Setenv("KEYWORDS_POLITICS", "election,parliament|0.35|1.2")

	cfg := Load()

	cat, ok := cfg.Scorer.Categories["politics"]
	if !ok {
		t.Fatal("Expected the politics category to be loaded")
	}
	if len(cat.Terms) != 2 || cat.Threshold != 0.35 || cat.Weight != 1.2 {
		t.Errorf("Unexpected category: %+v", cat)
	}
}

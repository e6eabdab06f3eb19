package scheduler

import (
	"errors"
	"testing"
	"time"

	"trendag/internal/cache"
	"trendag/internal/config"
	"trendag/internal/dedup"
	"trendag/internal/models"
	"trendag/internal/provider"
	"trendag/internal/scorer"
	"trendag/internal/trend"
)

func testSchedulerConfig() *config.Config {
	return &config.Config{
		CycleInterval:   time.Hour,
		FetchTimeout:    5 * time.Second,
		ErrorBufferSize: 3,
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
	}
}

func newTestScheduler(t *testing.T, providers []provider.Provider) *Scheduler {
	t.Helper()
	cfg := testSchedulerConfig()

	keywordScorer, err := scorer.New(cfg.Scorer)
	if err != nil {
		t.Fatalf("Failed to create scorer: %v", err)
	}
	cacheManager := cache.NewManager(cfg.Trend.AnalysisCacheTTL)
	trendEngine := trend.NewEngine(cfg.Trend, cacheManager)
	normalizer := provider.NewNormalizer(cfg.Dedup.MinURLLength)

	return New(providers, normalizer, keywordScorer, dedup.New(cfg.Dedup), trendEngine, cacheManager, nil, cfg)
}

func TestRunCycle_CrossProviderDedup(t *testing.T) {
	news := provider.NewStaticProvider("wire", models.ProviderNews, 3, []provider.Record{
		{Title: "Breaking: Major earthquake hits California"},
		{Title: "Local bakery opens downtown"},
	})
	social := provider.NewStaticProvider("forum", models.ProviderSocial, 2, []provider.Record{
		{Title: "Breaking: Major earthquake hits California"},
	})

	s := newTestScheduler(t, []provider.Provider{news, social})

	result, err := s.RunCycle()
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if !result.Success {
		t.Error("Expected a successful cycle")
	}
	if result.RunCount != 1 {
		t.Errorf("Expected run count 1, got %d", result.RunCount)
	}
	if result.Analysis == nil {
		t.Fatal("Expected an analysis result")
	}

	all := s.AllContent()
	if len(all) != 2 {
		t.Fatalf("Expected 2 items after cross-provider dedup, got %d", len(all))
	}
	for _, item := range all {
		if item.Title == "Breaking: Major earthquake hits California" && item.SourcePriority != 3 {
			t.Errorf("Expected the priority-3 copy to survive, got priority %d", item.SourcePriority)
		}
	}

	if len(s.Content("news")) != 2 {
		t.Errorf("Expected both survivors in the news bucket, got %d", len(s.Content("news")))
	}
}

func TestRunCycle_PartialProviderFailure(t *testing.T) {
	good := provider.NewStaticProvider("wire", models.ProviderNews, 3, []provider.Record{
		{Title: "Flood warning issued for the valley"},
	})
	bad := provider.NewFailingProvider("broken", models.ProviderSocial, errors.New("connection refused"))

	s := newTestScheduler(t, []provider.Provider{good, bad})

	result, err := s.RunCycle()
	if err != nil {
		t.Fatalf("Expected the cycle to succeed despite one degraded provider: %v", err)
	}
	if !result.Success {
		t.Error("Expected a successful cycle")
	}

	if len(s.AllContent()) != 1 {
		t.Errorf("Expected 1 item from the healthy provider, got %d", len(s.AllContent()))
	}

	status := s.Status()
	ps, ok := status.Providers["broken"]
	if !ok {
		t.Fatal("Expected a status entry for the failing provider")
	}
	if ps.Available {
		t.Error("Expected the failing provider to be marked unavailable")
	}
	if ps.LastError == "" {
		t.Error("Expected the provider error to be recorded")
	}

	cycleErrors := s.Errors()
	if len(cycleErrors) != 1 {
		t.Fatalf("Expected 1 recorded error, got %d", len(cycleErrors))
	}
	if cycleErrors[0].Stage != "fetch" {
		t.Errorf("Expected a fetch-stage error, got %q", cycleErrors[0].Stage)
	}
}

func TestRunCycle_InFlightGuard(t *testing.T) {
	s := newTestScheduler(t, nil)

	s.inFlight.Store(true)
	_, err := s.RunCycle()
	if !errors.Is(err, ErrCycleInFlight) {
		t.Errorf("Expected ErrCycleInFlight, got %v", err)
	}
	s.inFlight.Store(false)

	if _, err := s.RunCycle(); err != nil {
		t.Errorf("Expected the guard to be released after the cycle, got %v", err)
	}
}

func TestErrorBuffer_Bounded(t *testing.T) {
	s := newTestScheduler(t, nil)

	for i := 1; i <= 5; i++ {
		s.recordError(i, "fetch", errors.New("boom"))
	}

	cycleErrors := s.Errors()
	if len(cycleErrors) != 3 {
		t.Fatalf("Expected the buffer capped at 3, got %d", len(cycleErrors))
	}
	if cycleErrors[0].RunNumber != 3 {
		t.Errorf("Expected the oldest entries evicted, first is run %d", cycleErrors[0].RunNumber)
	}
	if cycleErrors[2].RunNumber != 5 {
		t.Errorf("Expected the newest entry last, got run %d", cycleErrors[2].RunNumber)
	}
}

func TestStatus_NextRunTime(t *testing.T) {
	s := newTestScheduler(t, nil)

	status := s.Status()
	if status.IsRunning {
		t.Error("Expected the scheduler to start stopped")
	}
	if !status.NextRunTime.IsZero() {
		t.Error("Expected no next run time while stopped")
	}

	if _, err := s.RunCycle(); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	status = s.Status()
	if status.RunCount != 1 {
		t.Errorf("Expected run count 1, got %d", status.RunCount)
	}
	if status.LastRunTime.IsZero() {
		t.Error("Expected a last run time after a cycle")
	}
}

func TestStartStop(t *testing.T) {
	p := provider.NewStaticProvider("wire", models.ProviderNews, 3, []provider.Record{
		{Title: "Flood warning issued for the valley"},
	})
	s := newTestScheduler(t, []provider.Provider{p})

	s.Start()
	if !s.IsRunning() {
		t.Error("Expected the scheduler to be running after Start")
	}

	// Second Start is a no-op, not a second loop.
	s.Start()

	s.Stop()
	if s.IsRunning() {
		t.Error("Expected the scheduler to be stopped after Stop")
	}

	status := s.Status()
	if status.RunCount < 1 {
		t.Errorf("Expected the initial cycle to have run, got count %d", status.RunCount)
	}
}

func TestRestartAfterStop(t *testing.T) {
	p := provider.NewStaticProvider("wire", models.ProviderNews, 3, []provider.Record{
		{Title: "Flood warning issued for the valley"},
	})
	s := newTestScheduler(t, []provider.Provider{p})

	s.Start()
	s.Stop()
	countAfterFirst := s.Status().RunCount
	if countAfterFirst < 1 {
		t.Fatalf("Expected at least one cycle before the restart, got %d", countAfterFirst)
	}

	s.Start()
	if !s.IsRunning() {
		t.Error("Expected the scheduler to be running again after restart")
	}
	s.Stop()
	if s.IsRunning() {
		t.Error("Expected the scheduler to be stopped after the second Stop")
	}

	// The restarted loop runs its own initial cycle; Stop waits for the loop,
	// so the count is visible here.
	if got := s.Status().RunCount; got <= countAfterFirst {
		t.Errorf("Expected the restarted loop to run cycles, count stuck at %d", got)
	}
}

func TestRunCycle_ClearsStaleBuckets(t *testing.T) {
	news := provider.NewStaticProvider("wire", models.ProviderNews, 3, []provider.Record{
		{Title: "Flood warning issued for the valley"},
	})
	social := provider.NewStaticProvider("forum", models.ProviderSocial, 2, []provider.Record{
		{Title: "Everyone is talking about the eclipse"},
	})
	s := newTestScheduler(t, []provider.Provider{news, social})

	if _, err := s.RunCycle(); err != nil {
		t.Fatalf("First cycle failed: %v", err)
	}
	if len(s.AllContent()) != 2 {
		t.Fatalf("Expected 2 items after the first cycle, got %d", len(s.AllContent()))
	}

	// A provider that degrades mid-run must not leave its previous bucket
	// behind: served content and the analysis describe the same cycle.
	social.SetError(errors.New("connection refused"))
	result, err := s.RunCycle()
	if err != nil {
		t.Fatalf("Second cycle failed: %v", err)
	}

	if got := len(s.Content("social")); got != 0 {
		t.Errorf("Expected the degraded provider's bucket cleared, got %d items", got)
	}
	all := s.AllContent()
	if len(all) != 1 {
		t.Fatalf("Expected 1 item from the healthy provider, got %d", len(all))
	}
	if result.Analysis == nil {
		t.Fatal("Expected an analysis result")
	}
	if result.Analysis.TotalItems != len(all) {
		t.Errorf("Analysis covered %d items but the cache serves %d", result.Analysis.TotalItems, len(all))
	}
}

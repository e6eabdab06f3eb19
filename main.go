package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trendag/internal/api"
	"trendag/internal/cache"
	"trendag/internal/config"
	"trendag/internal/dedup"
	"trendag/internal/models"
	"trendag/internal/provider"
	"trendag/internal/scheduler"
	"trendag/internal/scorer"
	"trendag/internal/storage"
	"trendag/internal/trend"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize cache for analysis results and content buckets
	cacheManager := cache.NewManager(cfg.Trend.AnalysisCacheTTL)

	// Initialize the durable topic-history archive
	store, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	log.Printf("Pruning archived history older than %v", cfg.Trend.HistoryRetention)
	if err := store.PruneHistory(cfg.Trend.HistoryRetention); err != nil {
		log.Printf("Warning: failed to prune history archive: %v", err)
	}

	// Initialize pipeline components
	keywordScorer, err := scorer.New(cfg.Scorer)
	if err != nil {
		log.Fatal("Failed to initialize keyword scorer:", err)
	}
	deduplicator := dedup.New(cfg.Dedup)
	trendEngine := trend.NewEngine(cfg.Trend, cacheManager)

	// Restore archived topic history into the engine
	if histories, err := store.LoadAllTopicHistories(); err != nil {
		log.Printf("Warning: failed to restore topic history: %v", err)
	} else if len(histories) > 0 {
		trendEngine.LoadHistory(histories)
		log.Printf("Restored %d archived topic histories", len(histories))
	}

	// Build providers from configuration
	providers := buildProviders(cfg)
	normalizer := provider.NewNormalizer(cfg.Dedup.MinURLLength)

	// Initialize and start the pipeline scheduler
	sched := scheduler.New(providers, normalizer, keywordScorer, deduplicator, trendEngine, cacheManager, store, cfg)
	sched.Start()

	// Initialize API server
	server := api.NewServer(sched, keywordScorer, trendEngine, store, cfg)

	log.Printf("Starting trend aggregator server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Cycle interval: %v", cfg.CycleInterval)
	log.Printf("Providers configured: %d", len(providers))

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		sched.Stop()
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
		cancel()
	}()

	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}
}

func buildProviders(cfg *config.Config) []provider.Provider {
	var providers []provider.Provider
	for name, pc := range cfg.Providers {
		providerType := models.ProviderType(pc.Type)
		switch providerType {
		case models.ProviderNews, models.ProviderSocial, models.ProviderEvents:
		default:
			log.Printf("Warning: unknown provider type '%s' for '%s', treating as news", pc.Type, name)
			providerType = models.ProviderNews
		}
		providers = append(providers, provider.NewRSSProvider(name, providerType, pc.Priority, pc.URLs))
	}
	return providers
}

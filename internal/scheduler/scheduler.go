package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"trendag/internal/cache"
	"trendag/internal/config"
	"trendag/internal/dedup"
	"trendag/internal/models"
	"trendag/internal/provider"
	"trendag/internal/scorer"
	"trendag/internal/storage"
	"trendag/internal/trend"
)

// ErrCycleInFlight is returned when a manual run is requested while a cycle
// is already executing. Only one cycle runs at a time.
var ErrCycleInFlight = errors.New("a pipeline cycle is already in flight")

// CycleError is one entry of the bounded error ring buffer.
type CycleError struct {
	RunNumber int       `json:"run_number"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Scheduler periodically fans out to all providers and drives the pipeline
// stages in order: fetch, merge, score, dedup, repartition, trend analysis.
type Scheduler struct {
	providers    []provider.Provider
	normalizer   *provider.Normalizer
	scorer       *scorer.Scorer
	dedup        *dedup.Deduplicator
	trendEngine  *trend.Engine
	cacheManager *cache.Manager
	store        storage.Storage

	interval     time.Duration
	fetchTimeout time.Duration
	maxErrors    int

	inFlight atomic.Bool

	mu             sync.RWMutex
	isRunning      bool
	runCount       int
	lastRunTime    time.Time
	cycleErrors    []CycleError
	providerStatus map[string]models.ProviderStatus
	totalItems     int

	// cancel stops the current timer loop; recreated on every Start so the
	// scheduler can be restarted after Stop.
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	providers []provider.Provider,
	normalizer *provider.Normalizer,
	keywordScorer *scorer.Scorer,
	deduplicator *dedup.Deduplicator,
	trendEngine *trend.Engine,
	cacheManager *cache.Manager,
	store storage.Storage,
	cfg *config.Config,
) *Scheduler {
	return &Scheduler{
		providers:      providers,
		normalizer:     normalizer,
		scorer:         keywordScorer,
		dedup:          deduplicator,
		trendEngine:    trendEngine,
		cacheManager:   cacheManager,
		store:          store,
		interval:       cfg.CycleInterval,
		fetchTimeout:   cfg.FetchTimeout,
		maxErrors:      cfg.ErrorBufferSize,
		providerStatus: make(map[string]models.ProviderStatus),
	}
}

// Start runs one cycle immediately and then on a fixed timer. It is a no-op
// when the scheduler is already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.isRunning = true
	s.mu.Unlock()

	log.Printf("Starting pipeline scheduler with interval: %v", s.interval)

	s.wg.Add(1)
	go s.cycleLoop(ctx)
}

// Stop cancels the timer only; an in-flight cycle finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	log.Println("Stopping pipeline scheduler...")
	cancel()
	s.wg.Wait()
	log.Println("Pipeline scheduler stopped")
}

func (s *Scheduler) cycleLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start. The timer handler swallows cycle errors so
	// the schedule is never terminated by a bad cycle.
	if _, err := s.RunCycle(); err != nil {
		log.Printf("Initial cycle failed: %v", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunCycle(); err != nil {
				log.Printf("Scheduled cycle failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunCycle executes one full pipeline cycle. A provider failure degrades
// only that provider; a stage failure aborts the cycle, is recorded in the
// error buffer and returned to the caller.
func (s *Scheduler) RunCycle() (*models.CycleResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}
	defer s.inFlight.Store(false)

	start := time.Now()

	s.mu.Lock()
	s.runCount++
	runNumber := s.runCount
	s.lastRunTime = start
	s.mu.Unlock()

	log.Printf("Starting pipeline cycle %d", runNumber)

	// Stage 1+2: parallel fetch from all providers, merged into one batch.
	merged := s.fetchAll(runNumber)
	fetched := len(merged)

	result := &models.CycleResult{
		RunCount:  runNumber,
		Timestamp: start,
	}

	var analysis *models.AnalysisResult
	var survivors int
	err := s.runStages(runNumber, func() error {
		// Stage 3: spam removal, then category scoring.
		scored := s.scorer.ScoreBatch(merged)

		// Stage 4: cross-provider deduplication over the merged batch.
		dedupResult := s.dedup.Deduplicate(scored)
		survivors = len(dedupResult.Items)

		// Stage 5: partition survivors back into per-provider cache buckets.
		// Every provider type is overwritten, including those with no
		// survivors this cycle, so served content always matches the cycle
		// that produced the current analysis.
		buckets := make(map[string][]models.ContentItem)
		for _, item := range dedupResult.Items {
			buckets[string(item.Provider)] = append(buckets[string(item.Provider)], item)
		}
		seen := make(map[string]bool)
		for _, p := range s.providers {
			t := string(p.Type())
			if seen[t] {
				continue
			}
			seen[t] = true
			s.cacheManager.SetContent(t, buckets[t])
		}

		s.mu.Lock()
		s.totalItems = survivors
		s.mu.Unlock()

		// Stage 6: trend analysis over the full updated cache.
		analysis = s.trendEngine.DetectTrendingTopics(dedupResult.Items, true)
		return nil
	})

	duration := time.Since(start)
	result.DurationMS = duration.Milliseconds()
	result.Success = err == nil
	result.Analysis = analysis

	s.persistRun(&models.RunRecord{
		RunNumber:       runNumber,
		StartedAt:       start,
		Duration:        duration,
		Success:         err == nil,
		ItemsFetched:    fetched,
		ItemsAfterDedup: survivors,
		Error:           errString(err),
	})

	if err != nil {
		return result, err
	}
	s.archiveHistory()

	log.Printf("Pipeline cycle %d completed in %v: %d fetched, %d after dedup",
		runNumber, duration, fetched, survivors)
	return result, nil
}

// runStages executes the transformation stages, converting a panic inside
// any of them into a StageError recorded in the bounded error buffer.
func (s *Scheduler) runStages(runNumber int, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &models.StageError{Stage: "pipeline", Err: fmt.Errorf("%v", r)}
		}
		if err != nil {
			s.recordError(runNumber, "pipeline", err)
		}
	}()
	return fn()
}

type fetchResult struct {
	provider provider.Provider
	items    []models.ContentItem
	err      error
}

// fetchAll fires all provider fetches concurrently and waits for all of them
// to settle. One provider's failure never blocks or fails the others.
func (s *Scheduler) fetchAll(runNumber int) []models.ContentItem {
	var wg sync.WaitGroup
	results := make(chan fetchResult, len(s.providers))

	for _, p := range s.providers {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()

			// Fetches run against their own deadline, not the loop context,
			// so Stop never interrupts an in-flight cycle.
			ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
			defer cancel()

			records, err := p.Fetch(ctx, "")
			if err != nil {
				results <- fetchResult{provider: p, err: &models.ProviderError{Provider: p.Name(), Err: err}}
				return
			}
			results <- fetchResult{provider: p, items: s.normalizer.Normalize(p, records)}
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var merged []models.ContentItem
	now := time.Now()
	for result := range results {
		status := models.ProviderStatus{LastFetch: now}
		if result.err != nil {
			// Degraded: empty contribution for this provider only.
			log.Printf("Provider degraded in cycle %d: %v", runNumber, result.err)
			status.LastError = result.err.Error()
			s.recordError(runNumber, "fetch", result.err)
		} else {
			status.Available = true
			status.Items = len(result.items)
			merged = append(merged, result.items...)
		}

		s.mu.Lock()
		s.providerStatus[result.provider.Name()] = status
		s.mu.Unlock()
	}

	return merged
}

// recordError appends to the bounded ring buffer, evicting the oldest entry
// when full.
func (s *Scheduler) recordError(runNumber int, stage string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycleErrors = append(s.cycleErrors, CycleError{
		RunNumber: runNumber,
		Stage:     stage,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
	if len(s.cycleErrors) > s.maxErrors {
		s.cycleErrors = s.cycleErrors[len(s.cycleErrors)-s.maxErrors:]
	}
}

func (s *Scheduler) persistRun(rec *models.RunRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveRunRecord(rec); err != nil {
		log.Printf("Warning: failed to persist run record %d: %v", rec.RunNumber, err)
	}
}

func (s *Scheduler) archiveHistory() {
	if s.store == nil {
		return
	}
	for _, h := range s.trendEngine.HistorySnapshot() {
		snapshot := h
		if err := s.store.SaveTopicHistory(&snapshot); err != nil {
			log.Printf("Warning: failed to archive history for '%s': %v", h.Keyword, err)
		}
	}
}

// Status reports the live scheduler state.
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := models.SchedulerStatus{
		IsRunning:   s.isRunning,
		RunCount:    s.runCount,
		LastRunTime: s.lastRunTime,
		ErrorCount:  len(s.cycleErrors),
		TotalItems:  s.totalItems,
		Providers:   make(map[string]models.ProviderStatus, len(s.providerStatus)),
	}
	if s.isRunning && !s.lastRunTime.IsZero() {
		status.NextRunTime = s.lastRunTime.Add(s.interval)
	}
	for name, ps := range s.providerStatus {
		status.Providers[name] = ps
	}
	return status
}

// Errors returns a copy of the error ring buffer, newest last.
func (s *Scheduler) Errors() []CycleError {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CycleError, len(s.cycleErrors))
	copy(out, s.cycleErrors)
	return out
}

// Content returns the cached per-provider content bucket.
func (s *Scheduler) Content(providerType string) []models.ContentItem {
	return s.cacheManager.GetContent(providerType)
}

// AllContent returns the full content cache across provider types.
func (s *Scheduler) AllContent() []models.ContentItem {
	var all []models.ContentItem
	seen := make(map[string]bool)
	for _, p := range s.providers {
		t := string(p.Type())
		if seen[t] {
			continue
		}
		seen[t] = true
		all = append(all, s.cacheManager.GetContent(t)...)
	}
	return all
}

// DedupTotals returns deduplication counters accumulated across cycles.
func (s *Scheduler) DedupTotals() dedup.Stats {
	return s.dedup.Totals()
}

// IsRunning reports whether the recurring timer is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

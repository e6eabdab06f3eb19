package cache

import (
	"sync"
	"time"

	"trendag/internal/models"

	"github.com/patrickmn/go-cache"
)

// AnalysisEntry is an explicit {value, createdAt, ttl} cache record for trend
// analysis results, so callers can inspect freshness and force a refresh.
type AnalysisEntry struct {
	Result    *models.AnalysisResult
	CreatedAt time.Time
	TTL       time.Duration
}

// Valid reports whether the entry is still inside its validity window.
func (e *AnalysisEntry) Valid(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL
}

type Manager struct {
	cache *cache.Cache
	mu    sync.RWMutex
}

func NewManager(defaultTTL time.Duration) *Manager {
	return &Manager{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

func (m *Manager) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.Get(key)
}

func (m *Manager) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set(key, value, ttl)
}

func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(key)
}

func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Flush()
}

// SetContent stores a per-provider content bucket. Buckets never expire on
// their own; each cycle overwrites them.
func (m *Manager) SetContent(providerType string, items []models.ContentItem) {
	m.Set("content:"+providerType, items, cache.NoExpiration)
}

// GetContent returns the cached content bucket for one provider type.
func (m *Manager) GetContent(providerType string) []models.ContentItem {
	if cached, found := m.Get("content:" + providerType); found {
		if items, ok := cached.([]models.ContentItem); ok {
			return items
		}
	}
	return nil
}

// SetAnalysis stores the single cached analysis result.
func (m *Manager) SetAnalysis(result *models.AnalysisResult, ttl time.Duration) {
	entry := &AnalysisEntry{
		Result:    result,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	m.Set("analysis:latest", entry, ttl)
}

// GetAnalysis returns the cached analysis entry if present and still valid.
func (m *Manager) GetAnalysis() (*AnalysisEntry, bool) {
	cached, found := m.Get("analysis:latest")
	if !found {
		return nil, false
	}
	entry, ok := cached.(*AnalysisEntry)
	if !ok || !entry.Valid(time.Now()) {
		return nil, false
	}
	return entry, true
}

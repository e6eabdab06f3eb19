package models

import (
	"time"
)

// ProviderType identifies the kind of external feed an item came from.
type ProviderType string

const (
	ProviderNews   ProviderType = "news"
	ProviderSocial ProviderType = "social"
	ProviderEvents ProviderType = "events"
)

// Engagement holds the raw interaction counters reported by a provider.
type Engagement struct {
	Shares    int `json:"shares"`
	Comments  int `json:"comments"`
	Reactions int `json:"reactions"`
}

// Total returns the combined engagement count.
func (e Engagement) Total() int {
	return e.Shares + e.Comments + e.Reactions
}

// ContentItem is the uniform record every provider output is normalized into.
// Items are not mutated after scoring; deduplication only selects or discards them.
type ContentItem struct {
	ID             string       `json:"id"`
	Provider       ProviderType `json:"provider"`
	Source         string       `json:"source"`
	SourcePriority int          `json:"source_priority"`
	Title          string       `json:"title"`
	Body           string       `json:"body"`
	URL            string       `json:"url"`
	Author         string       `json:"author"`
	Language       string       `json:"language"`
	PublishedAt    time.Time    `json:"published_at"`
	Engagement     Engagement   `json:"engagement"`

	CrisisScore  float64 `json:"crisis_score"`
	MisinfoScore float64 `json:"misinfo_score"`

	// Keyword scoring metadata, filled in by the scorer stage.
	CategoryScores  map[string]float64 `json:"category_scores,omitempty"`
	PrimaryCategory string             `json:"primary_category,omitempty"`
	OverallScore    float64            `json:"overall_score"`

	// Normalized hashes computed once at ingestion.
	TitleHash     string `json:"-"`
	CombinedHash  string `json:"-"`
	NormalizedURL string `json:"-"`
}

// DuplicateGroup is an ephemeral per-cycle grouping of items detected as
// duplicates by one strategy. The survivor is included in Items.
type DuplicateGroup struct {
	Strategy string        `json:"strategy"`
	Survivor ContentItem   `json:"survivor"`
	Items    []ContentItem `json:"items"`
}

// TopicScores holds the weighted components behind a topic's composite score.
type TopicScores struct {
	Frequency     float64 `json:"frequency"`
	Velocity      float64 `json:"velocity"`
	Engagement    float64 `json:"engagement"`
	CrossPlatform float64 `json:"cross_platform"`
	Recency       float64 `json:"recency"`
	Composite     float64 `json:"composite"`
}

// Mention records one item's contribution to a topic.
type Mention struct {
	ItemID     string       `json:"item_id"`
	Provider   ProviderType `json:"provider"`
	Source     string       `json:"source"`
	Timestamp  time.Time    `json:"timestamp"`
	Engagement int          `json:"engagement"`
}

// Topic is an aggregated keyword or phrase with cross-item statistics for a
// single analysis pass. Topics are rebuilt from scratch on every call.
type Topic struct {
	Keyword          string      `json:"keyword"`
	Mentions         []Mention   `json:"mentions,omitempty"`
	TotalMentions    int         `json:"total_mentions"`
	Platforms        []string    `json:"platforms"`
	Sources          []string    `json:"sources"`
	FirstSeen        time.Time   `json:"first_seen"`
	LastSeen         time.Time   `json:"last_seen"`
	TotalEngagement  int         `json:"total_engagement"`
	AvgEngagement    float64     `json:"avg_engagement"`
	MaxCrisisScore   float64     `json:"max_crisis_score"`
	IsCrisisRelated  bool        `json:"is_crisis_related"`
	IsViralIndicator bool        `json:"is_viral_indicator"`
	Scores           TopicScores `json:"scores"`
	IsTrending       bool        `json:"is_trending"`
	IsViral          bool        `json:"is_viral"`
}

// HistoryPoint is one sample of a topic's score over time.
type HistoryPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Score         float64   `json:"score"`
	Mentions      int       `json:"mentions"`
	PlatformCount int       `json:"platform_count"`
	Engagement    int       `json:"engagement"`
}

// TopicHistory is the persisted summary of a topic across analysis calls,
// keyed by keyword and independent of per-call Topic objects.
type TopicHistory struct {
	Keyword            string         `json:"keyword"`
	PeakScore          float64        `json:"peak_score"`
	CumulativeMentions int            `json:"cumulative_mentions"`
	FirstTracked       time.Time      `json:"first_tracked"`
	LastUpdated        time.Time      `json:"last_updated"`
	Points             []HistoryPoint `json:"points"`
}

// RankedItem pairs a content item with an item-level score (viral or crisis).
type RankedItem struct {
	Item  ContentItem `json:"item"`
	Score float64     `json:"score"`
}

// PlatformStats aggregates per-provider-type figures for one analysis pass.
type PlatformStats struct {
	Items           int     `json:"items"`
	TotalEngagement int     `json:"total_engagement"`
	AvgEngagement   float64 `json:"avg_engagement"`
	Sources         int     `json:"sources"`
}

// CategoryInsight reports the average keyword score for one category.
type CategoryInsight struct {
	Category string  `json:"category"`
	AvgScore float64 `json:"avg_score"`
	Items    int     `json:"items"`
}

// Insights are derived observations attached to an analysis result.
type Insights struct {
	TopCategories       []CategoryInsight `json:"top_categories"`
	EmergingTopics      []string          `json:"emerging_topics"`
	CrossPlatformTrends []string          `json:"cross_platform_trends"`
	CrisisAlerts        []string          `json:"crisis_alerts"`
	CommonViralTerms    []string          `json:"common_viral_terms"`
}

// AnalysisResult is the full output of one trend analysis pass.
type AnalysisResult struct {
	GeneratedAt    time.Time                `json:"generated_at"`
	TotalItems     int                      `json:"total_items"`
	TotalTopics    int                      `json:"total_topics"`
	TrendingCount  int                      `json:"trending_count"`
	ViralCount     int                      `json:"viral_count"`
	CrisisCount    int                      `json:"crisis_count"`
	TrendingTopics []Topic                  `json:"trending_topics"`
	ViralTopics    []Topic                  `json:"viral_topics"`
	CrisisTopics   []Topic                  `json:"crisis_topics"`
	ViralItems     []RankedItem             `json:"viral_items"`
	CrisisItems    []RankedItem             `json:"crisis_items"`
	PlatformStats  map[string]PlatformStats `json:"platform_stats"`
	Insights       Insights                 `json:"insights"`
}

// CycleResult is returned by every pipeline run.
type CycleResult struct {
	Success    bool            `json:"success"`
	RunCount   int             `json:"run_count"`
	DurationMS int64           `json:"duration_ms"`
	Analysis   *AnalysisResult `json:"analysis,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// RunRecord is the persisted summary of one pipeline cycle.
type RunRecord struct {
	RunNumber       int           `json:"run_number"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	Success         bool          `json:"success"`
	ItemsFetched    int           `json:"items_fetched"`
	ItemsAfterDedup int           `json:"items_after_dedup"`
	Error           string        `json:"error,omitempty"`
}

// ProviderStatus reports availability of one provider as of the last cycle.
type ProviderStatus struct {
	Available bool      `json:"available"`
	Items     int       `json:"items"`
	LastError string    `json:"last_error,omitempty"`
	LastFetch time.Time `json:"last_fetch"`
}

// SchedulerStatus is the live status snapshot exposed by the scheduler.
type SchedulerStatus struct {
	IsRunning   bool                      `json:"is_running"`
	RunCount    int                       `json:"run_count"`
	LastRunTime time.Time                 `json:"last_run_time"`
	NextRunTime time.Time                 `json:"next_run_time"`
	ErrorCount  int                       `json:"error_count"`
	TotalItems  int                       `json:"total_items"`
	Providers   map[string]ProviderStatus `json:"providers"`
}

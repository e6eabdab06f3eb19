package trend

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"trendag/internal/cache"
	"trendag/internal/config"
	"trendag/internal/models"
)

const (
	crisisBonus = 1.3
	viralBonus  = 1.2

	minTokenLength = 3
)

// defaultCrisisIndicators flag topics and items as crisis-related.
var defaultCrisisIndicators = []string{
	"emergency", "urgent", "breaking", "disaster", "earthquake", "flood",
	"hurricane", "wildfire", "evacuation", "outbreak", "explosion", "crisis",
	"casualties", "rescue", "warning", "attack", "collapse",
}

// defaultViralIndicators flag topics and items as viral candidates.
var defaultViralIndicators = []string{
	"viral", "trending", "shocking", "unbelievable", "insane", "epic",
	"must see", "watch", "everyone", "blows up", "breaks the internet",
}

// Engine extracts topics from scored, deduplicated content, scores them on
// five weighted components and tracks topic history across analysis calls.
type Engine struct {
	cfg   config.TrendConfig
	cache *cache.Manager

	crisisIndicators map[string]bool
	viralIndicators  map[string]bool

	mu        sync.Mutex
	history   map[string]*models.TopicHistory
	lastItems []models.ContentItem
	analyses  int
}

func NewEngine(cfg config.TrendConfig, cacheManager *cache.Manager) *Engine {
	e := &Engine{
		cfg:              cfg,
		cache:            cacheManager,
		crisisIndicators: make(map[string]bool),
		viralIndicators:  make(map[string]bool),
		history:          make(map[string]*models.TopicHistory),
	}
	for _, term := range defaultCrisisIndicators {
		e.crisisIndicators[term] = true
	}
	for _, term := range defaultViralIndicators {
		e.viralIndicators[term] = true
	}
	return e
}

// DetectTrendingTopics runs one full analysis pass over the batch. Inside the
// cache validity window the identical cached result object is returned, with
// its original timestamp, unless force is set.
func (e *Engine) DetectTrendingTopics(items []models.ContentItem, force bool) *models.AnalysisResult {
	if !force {
		if entry, ok := e.cache.GetAnalysis(); ok {
			return entry.Result
		}
	}

	now := time.Now()
	items = sanitize(items, now)

	aggregated := e.aggregateTopics(items, now)
	topics := e.scoreTopics(aggregated, now)

	result := e.buildResult(items, topics, now)

	e.mu.Lock()
	e.updateHistoryLocked(topics, now)
	e.lastItems = items
	e.analyses++
	e.mu.Unlock()

	e.cache.SetAnalysis(result, e.cfg.AnalysisCacheTTL)
	log.Printf("Trend analysis completed: %d items, %d topics, %d trending",
		result.TotalItems, result.TotalTopics, result.TrendingCount)
	return result
}

// sanitize degrades malformed items to safe defaults instead of failing the
// analysis: missing text becomes empty, missing timestamps become call time.
func sanitize(items []models.ContentItem, now time.Time) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if item.PublishedAt.IsZero() {
			item.PublishedAt = now
		}
		if item.Provider == "" {
			item.Provider = models.ProviderNews
		}
		out = append(out, item)
	}
	return out
}

// aggregateTopics extracts candidate topics from every item and aggregates
// their mentions. Items contributing no topics are simply omitted.
func (e *Engine) aggregateTopics(items []models.ContentItem, now time.Time) map[string]*models.Topic {
	topics := make(map[string]*models.Topic)

	for _, item := range items {
		for _, keyword := range e.extractTopics(item) {
			topic, exists := topics[keyword]
			if !exists {
				topic = &models.Topic{
					Keyword:   keyword,
					FirstSeen: item.PublishedAt,
					LastSeen:  item.PublishedAt,
				}
				topics[keyword] = topic
			}

			topic.Mentions = append(topic.Mentions, models.Mention{
				ItemID:     item.ID,
				Provider:   item.Provider,
				Source:     item.Source,
				Timestamp:  item.PublishedAt,
				Engagement: item.Engagement.Total(),
			})
			topic.TotalMentions++
			topic.TotalEngagement += item.Engagement.Total()
			if item.PublishedAt.Before(topic.FirstSeen) {
				topic.FirstSeen = item.PublishedAt
			}
			if item.PublishedAt.After(topic.LastSeen) {
				topic.LastSeen = item.PublishedAt
			}
			if item.CrisisScore > topic.MaxCrisisScore {
				topic.MaxCrisisScore = item.CrisisScore
			}
			if e.containsIndicator(keyword, e.crisisIndicators) {
				topic.IsCrisisRelated = true
			}
			if e.containsIndicator(keyword, e.viralIndicators) {
				topic.IsViralIndicator = true
			}

			topic.Platforms = appendUnique(topic.Platforms, string(item.Provider))
			if item.Source != "" {
				topic.Sources = appendUnique(topic.Sources, item.Source)
			}
		}
	}

	for _, topic := range topics {
		if topic.TotalMentions > 0 {
			topic.AvgEngagement = float64(topic.TotalEngagement) / float64(topic.TotalMentions)
		}
	}
	return topics
}

// extractTopics returns the candidate topics of one item: single tokens of at
// least three characters, all 2-word phrases, and 3-word phrases only when
// they carry an indicator term or start with "breaking"/"urgent".
func (e *Engine) extractTopics(item models.ContentItem) []string {
	tokens := models.Tokenize(item.Title + " " + item.Body)

	seen := make(map[string]bool)
	var out []string
	add := func(topic string) {
		if !seen[topic] {
			seen[topic] = true
			out = append(out, topic)
		}
	}

	for _, tok := range tokens {
		if len(tok) >= minTokenLength {
			add(tok)
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		add(tokens[i] + " " + tokens[i+1])
	}
	for i := 0; i+2 < len(tokens); i++ {
		phrase := tokens[i] + " " + tokens[i+1] + " " + tokens[i+2]
		if tokens[i] == "breaking" || tokens[i] == "urgent" ||
			e.containsIndicator(phrase, e.crisisIndicators) ||
			e.containsIndicator(phrase, e.viralIndicators) {
			add(phrase)
		}
	}
	return out
}

func (e *Engine) containsIndicator(phrase string, indicators map[string]bool) bool {
	if indicators[phrase] {
		return true
	}
	for _, tok := range strings.Fields(phrase) {
		if indicators[tok] {
			return true
		}
	}
	// Multi-word indicators ("must see") match as substrings of the phrase.
	for term := range indicators {
		if strings.Contains(term, " ") && strings.Contains(phrase, term) {
			return true
		}
	}
	return false
}

// scoreTopics drops topics below the mention threshold and computes the five
// weighted component scores plus the composite for the rest.
func (e *Engine) scoreTopics(topics map[string]*models.Topic, now time.Time) []models.Topic {
	out := make([]models.Topic, 0, len(topics))

	for _, topic := range topics {
		if topic.TotalMentions < e.cfg.MinMentions {
			continue
		}

		scores := models.TopicScores{
			Frequency:     frequencyScore(topic.TotalMentions),
			Velocity:      velocityScore(topic, now),
			Engagement:    engagementScore(topic.AvgEngagement),
			CrossPlatform: crossPlatformScore(len(topic.Platforms)),
			Recency:       recencyScore(topic.LastSeen, now),
		}

		w := e.cfg.Weights
		composite := scores.Frequency*w.Frequency +
			scores.Velocity*w.Velocity +
			scores.Engagement*w.Engagement +
			scores.CrossPlatform*w.CrossPlatform +
			scores.Recency*w.Recency

		// Bonuses compose multiplicatively before the final clamp.
		if topic.IsCrisisRelated {
			composite *= crisisBonus
		}
		if topic.IsViralIndicator {
			composite *= viralBonus
		}
		scores.Composite = clamp(composite)

		topic.Scores = scores
		topic.IsTrending = scores.Composite >= e.cfg.TrendingThreshold
		topic.IsViral = scores.Composite >= e.cfg.ViralThreshold
		out = append(out, *topic)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Scores.Composite > out[j].Scores.Composite
	})
	return out
}

// Analyses returns the number of analysis passes performed.
func (e *Engine) Analyses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyses
}

// CacheValid reports whether a cached analysis is currently being served.
func (e *Engine) CacheValid() bool {
	_, ok := e.cache.GetAnalysis()
	return ok
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

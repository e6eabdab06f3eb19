package trend

import (
	"sort"
	"strings"
	"time"

	"trendag/internal/models"
)

// buildResult assembles the full analysis output: summary counts, top-N
// lists, per-platform statistics and derived insights.
func (e *Engine) buildResult(items []models.ContentItem, topics []models.Topic, now time.Time) *models.AnalysisResult {
	result := &models.AnalysisResult{
		GeneratedAt:   now,
		TotalItems:    len(items),
		TotalTopics:   len(topics),
		PlatformStats: platformStats(items),
	}

	for _, topic := range topics {
		if topic.IsTrending {
			result.TrendingCount++
			if len(result.TrendingTopics) < e.cfg.TopN {
				result.TrendingTopics = append(result.TrendingTopics, topic)
			}
		}
		if topic.IsViral {
			result.ViralCount++
			if len(result.ViralTopics) < e.cfg.TopN {
				result.ViralTopics = append(result.ViralTopics, topic)
			}
		}
		if topic.IsCrisisRelated {
			result.CrisisCount++
			if len(result.CrisisTopics) < e.cfg.TopN {
				result.CrisisTopics = append(result.CrisisTopics, topic)
			}
		}
	}

	viralItems := e.scanViralItems(items, e.cfg.ViralThreshold, now)
	if len(viralItems) > e.cfg.TopN {
		viralItems = viralItems[:e.cfg.TopN]
	}
	result.ViralItems = viralItems

	crisisItems := e.scanCrisisItems(items, e.cfg.CrisisAlertLevel, now)
	if len(crisisItems) > e.cfg.TopN {
		crisisItems = crisisItems[:e.cfg.TopN]
	}
	result.CrisisItems = crisisItems

	result.Insights = e.deriveInsights(items, topics, now)
	return result
}

func platformStats(items []models.ContentItem) map[string]models.PlatformStats {
	stats := make(map[string]models.PlatformStats)
	sources := make(map[string]map[string]bool)

	for _, item := range items {
		platform := string(item.Provider)
		s := stats[platform]
		s.Items++
		s.TotalEngagement += item.Engagement.Total()
		stats[platform] = s

		if sources[platform] == nil {
			sources[platform] = make(map[string]bool)
		}
		if item.Source != "" {
			sources[platform][item.Source] = true
		}
	}

	for platform, s := range stats {
		if s.Items > 0 {
			s.AvgEngagement = float64(s.TotalEngagement) / float64(s.Items)
		}
		s.Sources = len(sources[platform])
		stats[platform] = s
	}
	return stats
}

// deriveInsights computes the secondary observations: top categories by
// average keyword score, emerging topics, cross-platform trends, crisis
// alerts above the alert level, and common viral indicator terms.
func (e *Engine) deriveInsights(items []models.ContentItem, topics []models.Topic, now time.Time) models.Insights {
	insights := models.Insights{
		TopCategories: topCategories(items, 5),
	}

	// Emerging means first seen within the newest quarter of the history
	// window, with high velocity. A 24h window gives the usual 6h cutoff.
	emergingWindow := e.cfg.HistoryWindow / 4
	if emergingWindow <= 0 {
		emergingWindow = 6 * time.Hour
	}

	for _, topic := range topics {
		if now.Sub(topic.FirstSeen) < emergingWindow && topic.Scores.Velocity >= 0.5 {
			insights.EmergingTopics = append(insights.EmergingTopics, topic.Keyword)
		}
		if len(topic.Platforms) >= 2 && topic.IsTrending {
			insights.CrossPlatformTrends = append(insights.CrossPlatformTrends, topic.Keyword)
		}
		if topic.IsCrisisRelated && topic.Scores.Composite >= e.cfg.CrisisAlertLevel {
			insights.CrisisAlerts = append(insights.CrisisAlerts, topic.Keyword)
		}
	}

	insights.CommonViralTerms = e.commonViralTerms(items, 5)
	return insights
}

func topCategories(items []models.ContentItem, limit int) []models.CategoryInsight {
	totals := make(map[string]float64)
	counts := make(map[string]int)

	for _, item := range items {
		for category, score := range item.CategoryScores {
			totals[category] += score
			counts[category]++
		}
	}

	out := make([]models.CategoryInsight, 0, len(totals))
	for category, total := range totals {
		out = append(out, models.CategoryInsight{
			Category: category,
			AvgScore: total / float64(counts[category]),
			Items:    counts[category],
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AvgScore > out[j].AvgScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// commonViralTerms ranks the viral indicator terms by how many items mention
// them.
func (e *Engine) commonViralTerms(items []models.ContentItem, limit int) []string {
	counts := make(map[string]int)
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Body)
		for term := range e.viralIndicators {
			if strings.Contains(text, term) {
				counts[term]++
			}
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

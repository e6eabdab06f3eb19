package trend

import (
	"sort"
	"strings"
	"time"

	"trendag/internal/models"
)

// Item-level scans are independent of topic aggregation: a single post can be
// viral or crisis-worthy without forming a topic that clears the mention
// threshold.

// viralItemScore combines engagement magnitude, viral indicator terms,
// recency and a crisis boost.
func (e *Engine) viralItemScore(item models.ContentItem, now time.Time) float64 {
	text := strings.ToLower(item.Title + " " + item.Body)

	score := engagementScore(float64(item.Engagement.Total())) * 0.5

	indicators := 0
	for term := range e.viralIndicators {
		if strings.Contains(text, term) {
			indicators++
		}
	}
	boost := float64(indicators) * 0.15
	if boost > 0.3 {
		boost = 0.3
	}
	score += boost

	score += recencyScore(item.PublishedAt, now) * 0.15
	score += item.CrisisScore * 0.2

	return clamp(score)
}

// crisisItemScore combines crisis keyword matches, urgency heuristics and
// engagement.
func (e *Engine) crisisItemScore(item models.ContentItem, now time.Time) float64 {
	text := strings.ToLower(item.Title + " " + item.Body)

	matches := 0
	for term := range e.crisisIndicators {
		if strings.Contains(text, term) {
			matches++
		}
	}
	score := float64(matches) * 0.2
	if score > 0.6 {
		score = 0.6
	}

	if hasUrgencyMarkers(item.Title) {
		score += 0.25
	}
	score += engagementScore(float64(item.Engagement.Total())) * 0.15

	if item.CrisisScore > score {
		score = item.CrisisScore
	}
	return clamp(score)
}

// hasUrgencyMarkers checks for the tonal cues of urgent reporting: an
// urgent/breaking prefix or an all-caps leading word.
func hasUrgencyMarkers(title string) bool {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return false
	}

	lowered := strings.ToLower(trimmed)
	for _, prefix := range []string{"urgent", "breaking", "alert", "just in"} {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}

	first := strings.Fields(trimmed)[0]
	if len(first) >= 4 && first == strings.ToUpper(first) && first != strings.ToLower(first) {
		return true
	}
	return false
}

func (e *Engine) scanViralItems(items []models.ContentItem, minScore float64, now time.Time) []models.RankedItem {
	var out []models.RankedItem
	for _, item := range items {
		if score := e.viralItemScore(item, now); score >= minScore {
			out = append(out, models.RankedItem{Item: item, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (e *Engine) scanCrisisItems(items []models.ContentItem, minScore float64, now time.Time) []models.RankedItem {
	var out []models.RankedItem
	for _, item := range items {
		if score := e.crisisItemScore(item, now); score >= minScore {
			out = append(out, models.RankedItem{Item: item, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// GetViralContent returns items from the last analyzed batch whose item-level
// viral score is at least minScore.
func (e *Engine) GetViralContent(minScore float64) []models.RankedItem {
	e.mu.Lock()
	items := e.lastItems
	e.mu.Unlock()
	return e.scanViralItems(items, minScore, time.Now())
}

// GetCrisisContent returns items from the last analyzed batch whose
// item-level crisis score is at least minScore.
func (e *Engine) GetCrisisContent(minScore float64) []models.RankedItem {
	e.mu.Lock()
	items := e.lastItems
	e.mu.Unlock()
	return e.scanCrisisItems(items, minScore, time.Now())
}

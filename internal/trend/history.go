package trend

import (
	"sort"
	"time"

	"trendag/internal/models"
)

// updateHistoryLocked appends one history point per topic for this analysis
// call and prunes points older than the retention window. Callers hold e.mu.
func (e *Engine) updateHistoryLocked(topics []models.Topic, now time.Time) {
	cutoff := now.Add(-e.cfg.HistoryRetention)

	for _, topic := range topics {
		h, exists := e.history[topic.Keyword]
		if !exists {
			h = &models.TopicHistory{
				Keyword:      topic.Keyword,
				FirstTracked: now,
			}
			e.history[topic.Keyword] = h
		}

		h.Points = append(h.Points, models.HistoryPoint{
			Timestamp:     now,
			Score:         topic.Scores.Composite,
			Mentions:      topic.TotalMentions,
			PlatformCount: len(topic.Platforms),
			Engagement:    topic.TotalEngagement,
		})
		h.CumulativeMentions += topic.TotalMentions
		if topic.Scores.Composite > h.PeakScore {
			h.PeakScore = topic.Scores.Composite
		}
		h.LastUpdated = now
	}

	// Prune old points; drop topics with nothing left in the window.
	for keyword, h := range e.history {
		kept := h.Points[:0]
		for _, p := range h.Points {
			if p.Timestamp.After(cutoff) {
				kept = append(kept, p)
			}
		}
		h.Points = kept
		if len(h.Points) == 0 {
			delete(e.history, keyword)
		}
	}
}

// History returns topic history summaries, optionally filtered by keyword
// substring. Results are copies, sorted by peak score.
func (e *Engine) History(keywordFilter string) []models.TopicHistory {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []models.TopicHistory
	for keyword, h := range e.history {
		if keywordFilter != "" && !containsFold(keyword, keywordFilter) {
			continue
		}
		cp := *h
		cp.Points = make([]models.HistoryPoint, len(h.Points))
		copy(cp.Points, h.Points)
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PeakScore > out[j].PeakScore })
	return out
}

// LoadHistory seeds the in-memory history, used at startup to restore
// archived summaries.
func (e *Engine) LoadHistory(histories []models.TopicHistory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range histories {
		h := histories[i]
		e.history[h.Keyword] = &h
	}
}

// HistorySnapshot returns a copy of all tracked histories for archiving.
func (e *Engine) HistorySnapshot() []models.TopicHistory {
	return e.History("")
}

package provider

import (
	"time"

	"trendag/internal/models"

	"github.com/google/uuid"
	"github.com/pemistahl/lingua-go"
)

// Normalizer converts heterogeneous provider records into uniform
// ContentItems exactly once at ingestion, so downstream stages never check
// field presence.
type Normalizer struct {
	detector     lingua.LanguageDetector
	minURLLength int
}

func NewNormalizer(minURLLength int) *Normalizer {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English, lingua.German, lingua.French, lingua.Spanish,
			lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
		).
		Build()

	return &Normalizer{
		detector:     detector,
		minURLLength: minURLLength,
	}
}

// Normalize maps raw records from one provider into ContentItems. Missing
// timestamps become the call time; missing sources fall back to the provider
// name. Hashes are computed here and never again.
func (n *Normalizer) Normalize(p Provider, records []Record) []models.ContentItem {
	now := time.Now()
	items := make([]models.ContentItem, 0, len(records))

	for _, rec := range records {
		if rec.Title == "" && rec.Body == "" {
			continue
		}

		source := rec.Source
		if source == "" {
			source = p.Name()
		}
		publishedAt := rec.PublishedAt
		if publishedAt.IsZero() {
			publishedAt = now
		}

		item := models.ContentItem{
			ID:             uuid.NewString(),
			Provider:       p.Type(),
			Source:         source,
			SourcePriority: p.Priority(),
			Title:          rec.Title,
			Body:           rec.Body,
			URL:            rec.URL,
			Author:         rec.Author,
			Language:       n.detectLanguage(rec.Title + " " + rec.Body),
			PublishedAt:    publishedAt,
			Engagement: models.Engagement{
				Shares:    rec.Shares,
				Comments:  rec.Comments,
				Reactions: rec.Reactions,
			},
		}
		item.ComputeHashes(n.minURLLength)
		items = append(items, item)
	}

	return items
}

func (n *Normalizer) detectLanguage(text string) string {
	if text == "" {
		return "en"
	}
	language, exists := n.detector.DetectLanguageOf(text)
	if !exists {
		return "en"
	}

	switch language {
	case lingua.English:
		return "en"
	case lingua.German:
		return "de"
	case lingua.French:
		return "fr"
	case lingua.Spanish:
		return "es"
	case lingua.Portuguese:
		return "pt"
	case lingua.Italian:
		return "it"
	case lingua.Dutch:
		return "nl"
	case lingua.Russian:
		return "ru"
	default:
		return "en"
	}
}

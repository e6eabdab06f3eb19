package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendag/internal/models"
)

func TestStaticProvider(t *testing.T) {
	records := []Record{
		{Title: "First story"},
		{Title: "Second story"},
	}
	p := NewStaticProvider("seed", models.ProviderNews, 3, records)

	if p.Name() != "seed" || p.Type() != models.ProviderNews || p.Priority() != 3 {
		t.Error("Unexpected provider metadata")
	}

	got, err := p.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}

	// Returned slice is a copy; mutating it must not affect later fetches.
	got[0].Title = "mutated"
	again, _ := p.Fetch(context.Background(), "")
	if again[0].Title != "First story" {
		t.Error("Expected fetches to be isolated from caller mutation")
	}

	p.SetRecords(records[:1])
	got, _ = p.Fetch(context.Background(), "")
	if len(got) != 1 {
		t.Errorf("Expected 1 record after SetRecords, got %d", len(got))
	}
}

func TestFailingProvider(t *testing.T) {
	wantErr := errors.New("connection refused")
	p := NewFailingProvider("broken", models.ProviderSocial, wantErr)

	_, err := p.Fetch(context.Background(), "")
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected the configured error, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(12)
	p := NewStaticProvider("wire", models.ProviderNews, 3, nil)

	published := time.Now().Add(-2 * time.Hour)
	records := []Record{
		{
			Title:       "Flood warning issued for the valley",
			Body:        "Residents are urged to move to higher ground.",
			URL:         "https://www.example.com/flood-warning",
			Source:      "river-desk",
			PublishedAt: published,
			Shares:      3, Comments: 2, Reactions: 5,
		},
		{Title: "Untimestamped story"},
		{}, // no text at all, dropped
	}

	items := n.Normalize(p, records)

	if len(items) != 2 {
		t.Fatalf("Expected 2 items (empty record dropped), got %d", len(items))
	}

	first := items[0]
	if first.ID == "" {
		t.Error("Expected a generated ID")
	}
	if first.Provider != models.ProviderNews {
		t.Errorf("Expected provider type news, got %q", first.Provider)
	}
	if first.Source != "river-desk" {
		t.Errorf("Expected the record source kept, got %q", first.Source)
	}
	if first.SourcePriority != 3 {
		t.Errorf("Expected the provider priority, got %d", first.SourcePriority)
	}
	if !first.PublishedAt.Equal(published) {
		t.Error("Expected the record timestamp kept")
	}
	if first.Engagement.Total() != 10 {
		t.Errorf("Expected engagement total 10, got %d", first.Engagement.Total())
	}
	if first.CombinedHash == "" || first.NormalizedURL == "" {
		t.Error("Expected hashes computed at ingestion")
	}
	if first.Language == "" {
		t.Error("Expected a detected language tag")
	}

	second := items[1]
	if second.Source != "wire" {
		t.Errorf("Expected the provider name as source fallback, got %q", second.Source)
	}
	if second.PublishedAt.IsZero() {
		t.Error("Expected a zero timestamp to default to ingestion time")
	}

	if items[0].ID == items[1].ID {
		t.Error("Expected unique IDs per item")
	}
}

func TestNormalize_EnglishDetection(t *testing.T) {
	n := NewNormalizer(12)
	p := NewStaticProvider("wire", models.ProviderNews, 1, nil)

	items := n.Normalize(p, []Record{
		{Title: "The city council approved the new public transit plan this morning"},
	})
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Language != "en" {
		t.Errorf("Expected English detection, got %q", items[0].Language)
	}
}

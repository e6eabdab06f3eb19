package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trendag/internal/models"

	"github.com/mmcdole/gofeed"
)

// RSSProvider fetches content from a set of RSS/Atom feed URLs. It backs the
// news and events provider types.
type RSSProvider struct {
	name         string
	providerType models.ProviderType
	priority     int
	urls         []string
	parser       *gofeed.Parser
}

func NewRSSProvider(name string, providerType models.ProviderType, priority int, urls []string) *RSSProvider {
	return &RSSProvider{
		name:         name,
		providerType: providerType,
		priority:     priority,
		urls:         urls,
		parser:       gofeed.NewParser(),
	}
}

func (p *RSSProvider) Name() string              { return p.name }
func (p *RSSProvider) Type() models.ProviderType { return p.providerType }
func (p *RSSProvider) Priority() int             { return p.priority }

type feedResult struct {
	URL     string
	Records []Record
	Error   error
}

// Fetch retrieves all configured feeds in parallel. Individual feed failures
// are tolerated; the fetch fails only when every feed fails.
func (p *RSSProvider) Fetch(ctx context.Context, query string) ([]Record, error) {
	var wg sync.WaitGroup
	results := make(chan feedResult, len(p.urls))

	for _, url := range p.urls {
		wg.Add(1)
		go func(feedURL string) {
			defer wg.Done()
			records, err := p.fetchFeed(ctx, feedURL)
			results <- feedResult{URL: feedURL, Records: records, Error: err}
		}(url)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []Record
	failures := 0
	var lastErr error
	for result := range results {
		if result.Error != nil {
			failures++
			lastErr = result.Error
			continue
		}
		all = append(all, result.Records...)
	}

	if failures == len(p.urls) && failures > 0 {
		return nil, fmt.Errorf("all %d feeds failed, last error: %v", failures, lastErr)
	}
	return all, nil
}

func (p *RSSProvider) fetchFeed(ctx context.Context, url string) ([]Record, error) {
	feed, err := p.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %v", url, err)
	}

	var records []Record
	for _, item := range feed.Items {
		authorName := ""
		if item.Author != nil {
			authorName = item.Author.Name
		}

		body := item.Description
		if body == "" {
			body = item.Content
		}

		rec := Record{
			Title:  item.Title,
			Body:   convertHTMLToMarkdown(body),
			URL:    item.Link,
			Author: authorName,
			Source: feed.Title,
		}
		if item.PublishedParsed != nil {
			rec.PublishedAt = *item.PublishedParsed
		} else {
			rec.PublishedAt = time.Now()
		}

		records = append(records, rec)
	}

	return records, nil
}

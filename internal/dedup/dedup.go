package dedup

import (
	"sync"
	"time"

	"trendag/internal/config"
	"trendag/internal/models"
)

// Strategy names reported on duplicate groups and counters.
const (
	StrategyExact = "exact"
	StrategyURL   = "url"
	StrategyTitle = "title"
	StrategyFuzzy = "fuzzy"
)

const (
	fuzzyTitleWeight = 0.7
	fuzzyBodyWeight  = 0.3
)

// Stats are per-run counters plus running totals across cycles.
type Stats struct {
	ExactMatches int           `json:"exact_matches"`
	URLMatches   int           `json:"url_matches"`
	TitleMatches int           `json:"title_matches"`
	FuzzyMatches int           `json:"fuzzy_matches"`
	GroupsFound  int           `json:"groups_found"`
	ItemsRemoved int           `json:"items_removed"`
	Duration     time.Duration `json:"duration"`
}

// Result is the output of one deduplication run.
type Result struct {
	Items  []models.ContentItem    `json:"items"`
	Groups []models.DuplicateGroup `json:"groups"`
	Stats  Stats                   `json:"stats"`
}

// Deduplicator detects cross-provider duplicates with four ordered
// strategies and keeps one survivor per group. It is stateless apart from
// running counters and a bounded token-set cache.
type Deduplicator struct {
	titleThreshold float64
	fuzzyThreshold float64

	mu         sync.Mutex
	tokenCache map[string]map[string]bool
	totals     Stats
}

// maxCachedTokenSets bounds the token cache; ClearCache resets it between
// long stretches of cycles.
const maxCachedTokenSets = 4096

func New(cfg config.DedupConfig) *Deduplicator {
	return &Deduplicator{
		titleThreshold: cfg.TitleSimilarity,
		fuzzyThreshold: cfg.FuzzySimilarity,
		tokenCache:     make(map[string]map[string]bool),
	}
}

// Deduplicate runs the four passes over the batch. Once an item joins a
// group it is excluded from later passes. Items are never mutated, only
// selected or discarded.
func (d *Deduplicator) Deduplicate(items []models.ContentItem) Result {
	start := time.Now()

	grouped := make([]bool, len(items))
	var groups []models.DuplicateGroup
	stats := Stats{}

	d.passExact(items, grouped, &groups, &stats)
	d.passURL(items, grouped, &groups, &stats)
	d.passTitle(items, grouped, &groups, &stats)
	d.passFuzzy(items, grouped, &groups, &stats)

	// Survivors: ungrouped items plus the winner of each group, in input order.
	survivorIDs := make(map[string]bool, len(groups))
	for i := range groups {
		groups[i].Survivor = selectSurvivor(groups[i].Items)
		survivorIDs[groups[i].Survivor.ID] = true
	}

	var out []models.ContentItem
	for i, item := range items {
		if !grouped[i] || survivorIDs[item.ID] {
			out = append(out, item)
		}
	}

	stats.GroupsFound = len(groups)
	stats.ItemsRemoved = len(items) - len(out)
	stats.Duration = time.Since(start)

	d.mu.Lock()
	d.totals.ExactMatches += stats.ExactMatches
	d.totals.URLMatches += stats.URLMatches
	d.totals.TitleMatches += stats.TitleMatches
	d.totals.FuzzyMatches += stats.FuzzyMatches
	d.totals.GroupsFound += stats.GroupsFound
	d.totals.ItemsRemoved += stats.ItemsRemoved
	d.mu.Unlock()

	return Result{Items: out, Groups: groups, Stats: stats}
}

// passExact groups items sharing an identical hash of the normalized
// title+body.
func (d *Deduplicator) passExact(items []models.ContentItem, grouped []bool, groups *[]models.DuplicateGroup, stats *Stats) {
	byHash := make(map[string][]int)
	for i, item := range items {
		if grouped[i] || item.CombinedHash == "" {
			continue
		}
		byHash[item.CombinedHash] = append(byHash[item.CombinedHash], i)
	}

	for _, indices := range byHash {
		if len(indices) < 2 {
			continue
		}
		group := models.DuplicateGroup{Strategy: StrategyExact}
		for _, idx := range indices {
			grouped[idx] = true
			group.Items = append(group.Items, items[idx])
		}
		*groups = append(*groups, group)
		stats.ExactMatches += len(indices) - 1
	}
}

// passURL groups items sharing an identical normalized URL. URLs too short
// to be meaningful were already dropped at normalization.
func (d *Deduplicator) passURL(items []models.ContentItem, grouped []bool, groups *[]models.DuplicateGroup, stats *Stats) {
	byURL := make(map[string][]int)
	for i, item := range items {
		if grouped[i] || item.NormalizedURL == "" {
			continue
		}
		byURL[item.NormalizedURL] = append(byURL[item.NormalizedURL], i)
	}

	for _, indices := range byURL {
		if len(indices) < 2 {
			continue
		}
		group := models.DuplicateGroup{Strategy: StrategyURL}
		for _, idx := range indices {
			grouped[idx] = true
			group.Items = append(group.Items, items[idx])
		}
		*groups = append(*groups, group)
		stats.URLMatches += len(indices) - 1
	}
}

// passTitle groups items whose normalized title token sets have Jaccard
// similarity at or above the threshold. The scan is greedy left-to-right: a
// candidate joins a group when it is similar to ANY current member, so a
// group can chain through a common partner without all members being
// pairwise similar. This is deliberate and must not be "fixed" into a
// transitive closure.
func (d *Deduplicator) passTitle(items []models.ContentItem, grouped []bool, groups *[]models.DuplicateGroup, stats *Stats) {
	for i := range items {
		if grouped[i] {
			continue
		}

		memberIdx := []int{i}
		for j := i + 1; j < len(items); j++ {
			if grouped[j] {
				continue
			}
			for _, m := range memberIdx {
				if d.titleSimilarity(items[m], items[j]) >= d.titleThreshold {
					memberIdx = append(memberIdx, j)
					break
				}
			}
		}

		if len(memberIdx) < 2 {
			continue
		}
		group := models.DuplicateGroup{Strategy: StrategyTitle}
		for _, idx := range memberIdx {
			grouped[idx] = true
			group.Items = append(group.Items, items[idx])
		}
		*groups = append(*groups, group)
		stats.TitleMatches += len(memberIdx) - 1
	}
}

// passFuzzy groups remaining items on a weighted title+body Jaccard score,
// with the same greedy scan as the title pass.
func (d *Deduplicator) passFuzzy(items []models.ContentItem, grouped []bool, groups *[]models.DuplicateGroup, stats *Stats) {
	for i := range items {
		if grouped[i] {
			continue
		}

		memberIdx := []int{i}
		for j := i + 1; j < len(items); j++ {
			if grouped[j] {
				continue
			}
			for _, m := range memberIdx {
				if d.fuzzySimilarity(items[m], items[j]) >= d.fuzzyThreshold {
					memberIdx = append(memberIdx, j)
					break
				}
			}
		}

		if len(memberIdx) < 2 {
			continue
		}
		group := models.DuplicateGroup{Strategy: StrategyFuzzy}
		for _, idx := range memberIdx {
			grouped[idx] = true
			group.Items = append(group.Items, items[idx])
		}
		*groups = append(*groups, group)
		stats.FuzzyMatches += len(memberIdx) - 1
	}
}

func (d *Deduplicator) titleSimilarity(a, b models.ContentItem) float64 {
	return jaccard(d.tokens("t:"+a.ID, a.Title), d.tokens("t:"+b.ID, b.Title))
}

func (d *Deduplicator) fuzzySimilarity(a, b models.ContentItem) float64 {
	title := jaccard(d.tokens("t:"+a.ID, a.Title), d.tokens("t:"+b.ID, b.Title))
	body := jaccard(d.tokens("b:"+a.ID, a.Body), d.tokens("b:"+b.ID, b.Body))
	return fuzzyTitleWeight*title + fuzzyBodyWeight*body
}

// tokens returns the cached normalized token set for a text.
func (d *Deduplicator) tokens(key, text string) map[string]bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if set, ok := d.tokenCache[key]; ok {
		return set
	}
	if len(d.tokenCache) >= maxCachedTokenSets {
		d.tokenCache = make(map[string]map[string]bool)
	}
	set := models.TokenSet(text)
	d.tokenCache[key] = set
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// selectSurvivor picks the group member with the lexicographically greatest
// (source priority, crisis score, combined length, engagement) tuple.
func selectSurvivor(group []models.ContentItem) models.ContentItem {
	best := group[0]
	for _, item := range group[1:] {
		if betterSurvivor(item, best) {
			best = item
		}
	}
	return best
}

func betterSurvivor(a, b models.ContentItem) bool {
	if a.SourcePriority != b.SourcePriority {
		return a.SourcePriority > b.SourcePriority
	}
	if a.CrisisScore != b.CrisisScore {
		return a.CrisisScore > b.CrisisScore
	}
	alen, blen := len(a.Title)+len(a.Body), len(b.Title)+len(b.Body)
	if alen != blen {
		return alen > blen
	}
	return a.Engagement.Total() > b.Engagement.Total()
}

// ClearCache drops the token-set cache so memory does not grow without bound
// across repeated cycles.
func (d *Deduplicator) ClearCache() {
	d.mu.Lock()
	d.tokenCache = make(map[string]map[string]bool)
	d.mu.Unlock()
}

// Totals returns counters accumulated across all runs.
func (d *Deduplicator) Totals() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totals
}

package scorer

import (
	"sort"
	"strings"
	"sync"

	"trendag/internal/config"
	"trendag/internal/models"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

const (
	coverageWeight = 0.7
	densityWeight  = 0.3
)

// CategoryMatch holds the match details of one text against one category.
type CategoryMatch struct {
	Category         string   `json:"category"`
	UniqueMatches    int      `json:"unique_matches"`
	TotalOccurrences int      `json:"total_occurrences"`
	Coverage         float64  `json:"coverage"`
	Density          float64  `json:"density"`
	Score            float64  `json:"score"`
	MatchedTerms     []string `json:"matched_terms,omitempty"`
}

// Stats are running counters exposed for observability.
type Stats struct {
	ItemsScored  int `json:"items_scored"`
	SpamFiltered int `json:"spam_filtered"`
	Categories   int `json:"categories"`
	Keywords     int `json:"keywords"`
}

// Scorer is the weighted multi-category lexical scoring engine. All keyword
// state lives in this injected configuration object; mutation goes through
// AddKeywords/RemoveKeywords, which rebuild the matcher atomically.
type Scorer struct {
	mu            sync.RWMutex
	categories    map[string]config.CategoryConfig
	spamCategory  string
	spamThreshold float64
	caseSensitive bool
	wholeWord     bool

	// Aho-Corasick automaton over the full vocabulary, used as a single-pass
	// pre-screen before per-term occurrence counting.
	matcher     *ahocorasick.Matcher
	vocab       []string
	termToCats  map[string][]string
	itemsScored int
	spamDropped int
}

func New(cfg config.ScorerConfig) (*Scorer, error) {
	s := &Scorer{
		categories:    make(map[string]config.CategoryConfig, len(cfg.Categories)),
		spamCategory:  cfg.SpamCategory,
		spamThreshold: cfg.SpamThreshold,
		caseSensitive: cfg.CaseSensitive,
		wholeWord:     cfg.WholeWord,
	}

	for name, cat := range cfg.Categories {
		if err := validateCategory(name, cat); err != nil {
			return nil, err
		}
		s.categories[name] = copyCategory(cat)
	}
	if cfg.SpamThreshold < 0 || cfg.SpamThreshold > 1 {
		return nil, &models.ValidationError{Field: "spam threshold", Reason: "must be in [0,1]"}
	}

	s.rebuildLocked()
	return s, nil
}

func validateCategory(name string, cat config.CategoryConfig) error {
	if strings.TrimSpace(name) == "" {
		return &models.ValidationError{Field: "category name", Reason: "must not be empty"}
	}
	if len(cat.Terms) == 0 {
		return &models.ValidationError{Field: "category '" + name + "'", Reason: "must have at least one term"}
	}
	if cat.Threshold < 0 || cat.Threshold > 1 {
		return &models.ValidationError{Field: "category '" + name + "' threshold", Reason: "must be in [0,1]"}
	}
	if cat.Weight < 0 {
		return &models.ValidationError{Field: "category '" + name + "' weight", Reason: "must not be negative"}
	}
	return nil
}

func copyCategory(cat config.CategoryConfig) config.CategoryConfig {
	terms := make([]string, len(cat.Terms))
	copy(terms, cat.Terms)
	return config.CategoryConfig{Terms: terms, Threshold: cat.Threshold, Weight: cat.Weight}
}

// rebuildLocked reconstructs the automaton from the current categories.
// Callers must hold s.mu (the constructor runs before the scorer is shared).
func (s *Scorer) rebuildLocked() {
	s.vocab = s.vocab[:0]
	s.termToCats = make(map[string][]string)

	for name, cat := range s.categories {
		for _, term := range cat.Terms {
			key := s.canonical(term)
			if key == "" {
				continue
			}
			if _, seen := s.termToCats[key]; !seen {
				s.vocab = append(s.vocab, key)
			}
			s.termToCats[key] = append(s.termToCats[key], name)
		}
	}

	if len(s.vocab) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(s.vocab)
	} else {
		s.matcher = nil
	}
}

func (s *Scorer) canonical(term string) string {
	term = strings.TrimSpace(term)
	if !s.caseSensitive {
		term = strings.ToLower(term)
	}
	return term
}

// MatchCategory scores a text against a single category.
// Coverage is uniqueMatches over the category vocabulary size, density is
// totalOccurrences over the text word count; the score is the clamped
// weighted sum of the two.
func (s *Scorer) MatchCategory(text, category string) (CategoryMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, exists := s.categories[category]
	if !exists {
		return CategoryMatch{}, &models.ValidationError{Field: "category", Reason: "unknown category '" + category + "'"}
	}

	present := s.presentTerms(text)
	return s.matchCategoryLocked(text, category, cat, present), nil
}

// presentTerms runs the single-pass pre-screen and returns the set of
// vocabulary terms that appear somewhere in the text as a substring.
func (s *Scorer) presentTerms(text string) map[string]bool {
	present := make(map[string]bool)
	if s.matcher == nil {
		return present
	}
	haystack := text
	if !s.caseSensitive {
		haystack = strings.ToLower(haystack)
	}
	for _, idx := range s.matcher.Match([]byte(haystack)) {
		if idx < len(s.vocab) {
			present[s.vocab[idx]] = true
		}
	}
	return present
}

func (s *Scorer) matchCategoryLocked(text, name string, cat config.CategoryConfig, present map[string]bool) CategoryMatch {
	match := CategoryMatch{Category: name}
	words := len(strings.Fields(text))
	if words == 0 || len(cat.Terms) == 0 {
		return match
	}

	haystack := text
	if !s.caseSensitive {
		haystack = strings.ToLower(haystack)
	}

	for _, term := range cat.Terms {
		key := s.canonical(term)
		if !present[key] {
			continue
		}
		n := s.countOccurrences(haystack, key)
		if n == 0 {
			continue
		}
		match.UniqueMatches++
		match.TotalOccurrences += n
		match.MatchedTerms = append(match.MatchedTerms, term)
	}

	match.Coverage = float64(match.UniqueMatches) / float64(len(cat.Terms))
	match.Density = float64(match.TotalOccurrences) / float64(words)
	match.Score = clamp(coverageWeight*match.Coverage + densityWeight*match.Density)
	return match
}

// countOccurrences counts term hits in the prepared haystack. In whole-word
// mode a hit must align with token boundaries, so "art" does not match
// "start"; multi-word terms are matched as token n-grams.
func (s *Scorer) countOccurrences(haystack, term string) int {
	if !s.wholeWord {
		return strings.Count(haystack, term)
	}

	termTokens := strings.Fields(term)
	if len(termTokens) == 0 {
		return 0
	}
	textTokens := tokenizeWords(haystack)

	count := 0
	for i := 0; i+len(termTokens) <= len(textTokens); i++ {
		matched := true
		for j, tt := range termTokens {
			if textTokens[i+j] != tt {
				matched = false
				break
			}
		}
		if matched {
			count++
		}
	}
	return count
}

// tokenizeWords splits on non-alphanumeric runes without dropping stop words;
// whole-word matching must see every word the text contains.
func tokenizeWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9')
	})
}

// ScoreItem computes all category scores for one item and returns a copy with
// the scoring metadata filled in. Scoring is a pure function of the text and
// the configured keyword set.
func (s *Scorer) ScoreItem(item models.ContentItem) models.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text := item.Title + " " + item.Body
	present := s.presentTerms(text)

	scores := make(map[string]float64, len(s.categories))
	overall := 0.0
	primary := ""
	best := 0.0

	names := s.categoryNamesLocked()
	for _, name := range names {
		cat := s.categories[name]
		match := s.matchCategoryLocked(text, name, cat, present)
		scores[name] = match.Score
		overall += match.Score * cat.Weight
		if match.Score > best {
			best = match.Score
			primary = name
		}
	}

	item.CategoryScores = scores
	item.PrimaryCategory = primary
	item.OverallScore = overall
	if crisis, ok := scores["crisis"]; ok && crisis > item.CrisisScore {
		item.CrisisScore = crisis
	}
	if misinfo, ok := scores["misinformation"]; ok && misinfo > item.MisinfoScore {
		item.MisinfoScore = misinfo
	}
	return item
}

// categoryNamesLocked returns category names in stable order so argmax ties
// resolve deterministically.
func (s *Scorer) categoryNamesLocked() []string {
	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScoreBatch runs the spam pre-filter and then scores the remaining items.
// Spam items are dropped before any downstream stage sees them.
func (s *Scorer) ScoreBatch(items []models.ContentItem) []models.ContentItem {
	kept := make([]models.ContentItem, 0, len(items))
	dropped := 0

	for _, item := range items {
		scored := s.ScoreItem(item)
		if s.isSpam(scored) {
			dropped++
			continue
		}
		kept = append(kept, scored)
	}

	s.mu.Lock()
	s.itemsScored += len(items)
	s.spamDropped += dropped
	s.mu.Unlock()

	return kept
}

func (s *Scorer) isSpam(item models.ContentItem) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.spamCategory == "" {
		return false
	}
	score, ok := item.CategoryScores[s.spamCategory]
	return ok && score >= s.spamThreshold
}

// AddKeywords appends terms to a category, creating the category with default
// threshold and weight when it does not exist yet.
func (s *Scorer) AddKeywords(category string, terms []string) error {
	if strings.TrimSpace(category) == "" {
		return &models.ValidationError{Field: "category name", Reason: "must not be empty"}
	}
	if len(terms) == 0 {
		return &models.ValidationError{Field: "terms", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, exists := s.categories[category]
	if !exists {
		cat = config.CategoryConfig{Threshold: 0.3, Weight: 1.0}
	}

	existing := make(map[string]bool, len(cat.Terms))
	for _, t := range cat.Terms {
		existing[s.canonical(t)] = true
	}
	for _, t := range terms {
		key := s.canonical(t)
		if key == "" || existing[key] {
			continue
		}
		cat.Terms = append(cat.Terms, strings.TrimSpace(t))
		existing[key] = true
	}

	s.categories[category] = cat
	s.rebuildLocked()
	return nil
}

// RemoveKeywords removes terms from a category. Removing from an unknown
// category is a validation error.
func (s *Scorer) RemoveKeywords(category string, terms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, exists := s.categories[category]
	if !exists {
		return &models.ValidationError{Field: "category", Reason: "unknown category '" + category + "'"}
	}

	remove := make(map[string]bool, len(terms))
	for _, t := range terms {
		remove[s.canonical(t)] = true
	}

	kept := cat.Terms[:0]
	for _, t := range cat.Terms {
		if !remove[s.canonical(t)] {
			kept = append(kept, t)
		}
	}
	cat.Terms = kept
	s.categories[category] = cat
	s.rebuildLocked()
	return nil
}

// SetCategoryWeight adjusts a category's composite weight at runtime.
func (s *Scorer) SetCategoryWeight(category string, weight float64) error {
	if weight < 0 {
		return &models.ValidationError{Field: "weight", Reason: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, exists := s.categories[category]
	if !exists {
		return &models.ValidationError{Field: "category", Reason: "unknown category '" + category + "'"}
	}
	cat.Weight = weight
	s.categories[category] = cat
	return nil
}

// SetSpamThreshold adjusts the spam pre-filter threshold at runtime.
func (s *Scorer) SetSpamThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return &models.ValidationError{Field: "spam threshold", Reason: "must be in [0,1]"}
	}
	s.mu.Lock()
	s.spamThreshold = threshold
	s.mu.Unlock()
	return nil
}

// Categories returns a copy of the current category configuration.
func (s *Scorer) Categories() map[string]config.CategoryConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]config.CategoryConfig, len(s.categories))
	for name, cat := range s.categories {
		out[name] = copyCategory(cat)
	}
	return out
}

// Stats returns running counters.
func (s *Scorer) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keywords := 0
	for _, cat := range s.categories {
		keywords += len(cat.Terms)
	}
	return Stats{
		ItemsScored:  s.itemsScored,
		SpamFiltered: s.spamDropped,
		Categories:   len(s.categories),
		Keywords:     keywords,
	}
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

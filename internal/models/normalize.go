package models

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// stopWords are dropped during text normalization so hashes and token sets
// compare on meaningful words only.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true, "was": true,
	"were": true, "will": true, "with": true,
}

// IsStopWord reports whether a lowercased token is in the shared stop-word list.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// NormalizeText lowercases, strips punctuation, collapses whitespace and drops
// stop words. It is the single normalization used for hashing, deduplication
// and topic extraction.
func NormalizeText(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// Tokenize returns the normalized tokens of a text, stop words removed.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, lowered)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the unique normalized tokens of a text.
func TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		set[tok] = true
	}
	return set
}

// HashText returns a stable hash of the normalized text.
func HashText(text string) string {
	h := fnv.New64a()
	h.Write([]byte(NormalizeText(text)))
	return fmt.Sprintf("%016x", h.Sum64())
}

// NormalizeURL strips scheme, "www.", query string, fragment and trailing
// slash so the same page fetched via different links compares equal. It
// returns "" for URLs shorter than minLength after normalization.
func NormalizeURL(rawURL string, minLength int) string {
	u := strings.TrimSpace(strings.ToLower(rawURL))
	if u == "" {
		return ""
	}

	for _, prefix := range []string{"https://", "http://"} {
		u = strings.TrimPrefix(u, prefix)
	}
	u = strings.TrimPrefix(u, "www.")

	if idx := strings.IndexAny(u, "?#"); idx != -1 {
		u = u[:idx]
	}
	u = strings.TrimSuffix(u, "/")

	if len(u) < minLength {
		return ""
	}
	return u
}

// ComputeHashes fills in the normalized hash fields of an item.
func (c *ContentItem) ComputeHashes(minURLLength int) {
	c.TitleHash = HashText(c.Title)
	c.CombinedHash = HashText(c.Title + " " + c.Body)
	c.NormalizedURL = NormalizeURL(c.URL, minURLLength)
}

// Package similarity computes the pairwise signals used by duplicate
// detection. Every function here is pure and symmetric in its arguments.
package similarity

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

const minFingerprintRunes = 3

// Scorer combines title and keyword similarity with configured weights.
type Scorer struct {
	titleWeight   float64
	keywordWeight float64
	stopwords     map[string]struct{}
	maxTokens     int
}

func New(cfg config.SimilarityConfig) *Scorer {
	s := &Scorer{
		titleWeight:   cfg.TitleWeight,
		keywordWeight: cfg.KeywordWeight,
		stopwords:     make(map[string]struct{}, len(cfg.Stopwords)),
		maxTokens:     cfg.FingerprintMaxTokens,
	}
	for _, w := range cfg.Stopwords {
		s.stopwords[strings.ToLower(w)] = struct{}{}
	}
	return s
}

// Jaccard returns |A∩B| / |A∪B|, or 0 when either set is empty.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	inter := 0
	for v := range setB {
		if _, ok := setA[v]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// TitleTokens splits a normalized title into its sorted, unique token set
// without stopwords.
func (s *Scorer) TitleTokens(normalizedTitle string) []string {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalizedTitle) {
		if _, stop := s.stopwords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// URLEquals reports equal canonical URLs. Items without a URL never match.
func URLEquals(a, b *news.NormalizedItem) bool {
	return a.NormalizedURL != "" && a.NormalizedURL == b.NormalizedURL
}

// TitleSimilarity is the Jaccard similarity of the title token sets.
func TitleSimilarity(a, b *news.NormalizedItem) float64 {
	return Jaccard(a.TitleTokens, b.TitleTokens)
}

// KeywordSimilarity is the Jaccard similarity of the core keyword sets.
func KeywordSimilarity(a, b *news.NormalizedItem) float64 {
	return Jaccard(a.CoreKeywords, b.CoreKeywords)
}

// EntityOverlap is the Jaccard similarity of the entity sets.
func EntityOverlap(a, b *news.NormalizedItem) float64 {
	return Jaccard(a.Entities, b.Entities)
}

// SharesHighProfile reports whether both items name the same high-profile
// entity.
func SharesHighProfile(a, b *news.NormalizedItem) bool {
	for _, x := range a.HighProfile {
		for _, y := range b.HighProfile {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Combined blends title and keyword similarity with the configured weights.
func (s *Scorer) Combined(a, b *news.NormalizedItem) float64 {
	return s.titleWeight*TitleSimilarity(a, b) + s.keywordWeight*KeywordSimilarity(a, b)
}

// Fingerprint hashes the sorted union of core keywords and title tokens of
// at least three runes, keeping the first maxTokens entries. Items without
// any such token get 0, which callers must treat as "no fingerprint".
func (s *Scorer) Fingerprint(coreKeywords, titleTokens []string) uint64 {
	set := make(map[string]struct{}, len(coreKeywords)+len(titleTokens))
	for _, k := range coreKeywords {
		set[k] = struct{}{}
	}
	for _, tok := range titleTokens {
		if utf8.RuneCountInString(tok) < minFingerprintRunes {
			continue
		}
		if _, stop := s.stopwords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	if len(set) == 0 {
		return 0
	}

	tokens := make([]string, 0, len(set))
	for tok := range set {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	if len(tokens) > s.maxTokens {
		tokens = tokens[:s.maxTokens]
	}

	h := xxhash.Sum64String(strings.Join(tokens, "\x1f"))
	if h == 0 {
		h = 1
	}
	return h
}

package rss

import (
	"math"
	"strings"
	"time"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

// keywordSaturation is the number of music keyword hits that gives a full
// keyword score.
const keywordSaturation = 5

// Gate drops feed entries that are stale or not about music.
type Gate struct {
	maxAge       time.Duration
	minRelevance float64
	domainScore  float64
	keywords     *news.Matcher
	now          func() time.Time
}

// GateStats counts what one Filter call dropped.
type GateStats struct {
	Stale    int
	OffTopic int
}

// NewGate builds a gate from the feed settings. A zero MaxAge or
// MinRelevance turns that check off.
func NewGate(cfg config.FeedsConfig, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{
		maxAge:       cfg.MaxAge,
		minRelevance: cfg.MinRelevance,
		domainScore:  cfg.DomainScore,
		keywords:     news.NewMatcher(cfg.MusicKeywords),
		now:          now,
	}
}

// Relevance scores how much an entry is about music, in [0,1].
func (g *Gate) Relevance(title, description string) float64 {
	hits := g.keywords.Count(title + " " + description)
	keywordScore := math.Min(float64(hits)/keywordSaturation, 1)
	return keywordScore*0.6 + g.domainScore*0.4
}

// Filter keeps the entries that pass both checks, in their original order.
// Entries without a parsed date are never considered stale.
func (g *Gate) Filter(items []news.RawItem) ([]news.RawItem, GateStats) {
	var stats GateStats
	cutoff := g.now().Add(-g.maxAge)

	kept := make([]news.RawItem, 0, len(items))
	for _, it := range items {
		if g.maxAge > 0 && it.PublishedParsed != nil && it.PublishedParsed.Before(cutoff) {
			stats.Stale++
			continue
		}
		if g.minRelevance > 0 && strings.TrimSpace(it.Title) != "" &&
			g.Relevance(it.Title, it.Description) < g.minRelevance {
			stats.OffTopic++
			continue
		}
		kept = append(kept, it)
	}
	return kept, stats
}

package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

// Reason names the rule that picked the surviving item of a pair.
type Reason string

const (
	ReasonTier        Reason = "source_tier"
	ReasonDescription Reason = "description_length"
	ReasonRecency     Reason = "recency"
	ReasonWeighted    Reason = "weighted_score"
)

// Resolution is the surviving item of a pair and why it won.
type Resolution struct {
	Winner *news.NormalizedItem
	Loser  *news.NormalizedItem
	Reason Reason
}

// Resolver picks which of two duplicates to keep.
type Resolver struct {
	cfg   config.DedupConfig
	tiers map[string]int
}

// NewResolver builds a resolver from the tie-break settings and source tiers.
func NewResolver(cfg config.DedupConfig, sources config.SourcesConfig) *Resolver {
	tiers := make(map[string]int, len(sources.Tiers))
	for src, tier := range sources.Tiers {
		tiers[news.SourceKey(src)] = tier
	}
	return &Resolver{cfg: cfg, tiers: tiers}
}

// Tier returns the reputation tier of a source; unknown sources are 0.
// A bare name such as "Billboard" also matches "billboard.com".
func (r *Resolver) Tier(source string) int {
	key := news.SourceKey(source)
	if t, ok := r.tiers[key]; ok {
		return t
	}
	if key != "" && !strings.Contains(key, ".") {
		return r.tiers[strings.ReplaceAll(key, " ", "")+".com"]
	}
	return 0
}

// Resolve picks the survivor of two duplicates. The first decisive test
// wins; on a full tie the incumbent stays.
func (r *Resolver) Resolve(incumbent, challenger *news.NormalizedItem) Resolution {
	keep := Resolution{Winner: incumbent, Loser: challenger}
	swap := Resolution{Winner: challenger, Loser: incumbent}

	ti, tc := r.Tier(incumbent.Source), r.Tier(challenger.Source)
	if ti != tc && absInt(ti-tc) >= r.cfg.TierGap {
		if ti > tc {
			keep.Reason = ReasonTier
			return keep
		}
		swap.Reason = ReasonTier
		return swap
	}

	di, dc := runeLen(incumbent.Description), runeLen(challenger.Description)
	ratio := 1 + r.cfg.DescriptionRatio
	switch {
	case float64(dc) > float64(di)*ratio:
		swap.Reason = ReasonDescription
		return swap
	case float64(di) > float64(dc)*ratio:
		keep.Reason = ReasonDescription
		return keep
	}

	if incumbent.PublishedAt != nil && challenger.PublishedAt != nil {
		switch {
		case challenger.PublishedAt.Sub(*incumbent.PublishedAt) > r.cfg.RecencyGap:
			swap.Reason = ReasonRecency
			return swap
		case incumbent.PublishedAt.Sub(*challenger.PublishedAt) > r.cfg.RecencyGap:
			keep.Reason = ReasonRecency
			return keep
		}
	}

	if r.weighted(challenger, tc) > r.weighted(incumbent, ti) {
		swap.Reason = ReasonWeighted
		return swap
	}
	keep.Reason = ReasonWeighted
	return keep
}

func (r *Resolver) weighted(item *news.NormalizedItem, tier int) float64 {
	return r.cfg.FallbackTierWeight*float64(tier) +
		r.cfg.FallbackTitleWeight*float64(runeLen(item.Title)) +
		r.cfg.FallbackDescriptionWeight*float64(runeLen(item.Description))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

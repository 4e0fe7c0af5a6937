// Package dedup decides which records describe the same event and which one
// of them survives.
package dedup

import (
	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/similarity"
)

// Rule identifies the check that produced a positive verdict.
type Rule int

const (
	RuleNone Rule = iota
	RuleURL
	RuleHighProfile
	RuleTitle
	RuleFingerprint
	RuleEntityBlend
	RuleSameSource
)

func (r Rule) String() string {
	switch r {
	case RuleURL:
		return "url"
	case RuleHighProfile:
		return "high_profile"
	case RuleTitle:
		return "title"
	case RuleFingerprint:
		return "fingerprint"
	case RuleEntityBlend:
		return "entity_blend"
	case RuleSameSource:
		return "same_source"
	default:
		return "none"
	}
}

// Verdict is the outcome of comparing two items. Rule is RuleNone unless
// Duplicate is set.
type Verdict struct {
	Duplicate bool
	Rule      Rule
	// Title is the title token similarity, Similarity the combined score.
	Title      float64
	Similarity float64
}

// Detector holds no state between calls; Compare is safe for concurrent use.
type Detector struct {
	cfg    config.DedupConfig
	scorer *similarity.Scorer
}

// NewDetector builds a detector using the thresholds in cfg.
func NewDetector(cfg config.DedupConfig, scorer *similarity.Scorer) *Detector {
	return &Detector{cfg: cfg, scorer: scorer}
}

// Compare runs the checks in order and stops at the first one that fires.
// The verdict does not depend on argument order.
func (d *Detector) Compare(a, b *news.NormalizedItem) Verdict {
	title := similarity.TitleSimilarity(a, b)
	v := Verdict{Title: title, Similarity: d.scorer.Combined(a, b)}

	switch {
	case similarity.URLEquals(a, b):
		v.Rule = RuleURL
	case similarity.SharesHighProfile(a, b) && title >= d.cfg.HighProfileTitleThreshold:
		v.Rule = RuleHighProfile
	case title >= d.cfg.TitleThreshold:
		v.Rule = RuleTitle
	case a.Fingerprint != 0 && a.Fingerprint == b.Fingerprint:
		v.Rule = RuleFingerprint
	case title >= d.cfg.BlendTitleThreshold &&
		d.cfg.BlendTitleWeight*title+d.cfg.BlendEntityWeight*similarity.EntityOverlap(a, b) >= d.cfg.BlendThreshold:
		v.Rule = RuleEntityBlend
	case d.sameSourceBurst(a, b, title):
		v.Rule = RuleSameSource
	default:
		return v
	}
	v.Duplicate = true
	return v
}

// sameSourceBurst catches one outlet posting several updates on one story.
func (d *Detector) sameSourceBurst(a, b *news.NormalizedItem, title float64) bool {
	if title < d.cfg.SameSourceTitleThreshold {
		return false
	}
	src := news.SourceKey(a.Source)
	if src == "" || src != news.SourceKey(b.Source) {
		return false
	}
	if a.PublishedAt == nil || b.PublishedAt == nil {
		return false
	}
	gap := a.PublishedAt.Sub(*b.PublishedAt)
	if gap < 0 {
		gap = -gap
	}
	return gap <= d.cfg.SameSourceWindow
}

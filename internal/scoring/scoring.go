// Package scoring computes importance and trending scores for classified
// items. Both scores are weighted sums of sub-scores in [0,1], clamped to
// [0,1].
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

// ErrNonFinite is returned when a weight or sub-score produced NaN or Inf.
var ErrNonFinite = errors.New("score is not finite")

// Score is the importance of an item, with trending when enabled.
type Score struct {
	Importance float64
	Trending   *float64
	Breakdown  news.ScoreBreakdown
}

// Scorer computes importance and trending scores.
type Scorer struct {
	cfg         config.ScoringConfig
	credibility map[string]float64
	defaultCred float64

	highImpact *news.Matcher
	top        *news.Matcher
	mid        *news.Matcher
	activity   *news.Matcher
	weights    map[string]float64
	buzz       *news.Matcher

	now func() time.Time
}

// New builds a scorer. now is the clock recency is measured against; nil
// means time.Now.
func New(cfg config.ScoringConfig, sources config.SourcesConfig, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	cred := make(map[string]float64, len(sources.Credibility))
	for src, v := range sources.Credibility {
		cred[news.SourceKey(src)] = v
	}

	keywords := make([]string, 0, len(cfg.ActivityKeywords))
	weights := make(map[string]float64, len(cfg.ActivityKeywords))
	for _, wk := range cfg.ActivityKeywords {
		k := strings.ToLower(strings.TrimSpace(wk.Keyword))
		if w, ok := weights[k]; ok && w >= wk.Weight {
			continue
		}
		weights[k] = wk.Weight
		keywords = append(keywords, k)
	}

	return &Scorer{
		cfg:         cfg,
		credibility: cred,
		defaultCred: sources.DefaultCredibility,
		highImpact:  news.NewMatcher(cfg.HighImpactKeywords),
		top:         news.NewMatcher(cfg.TopSubjects),
		mid:         news.NewMatcher(cfg.MidSubjects),
		activity:    news.NewMatcher(keywords),
		weights:     weights,
		buzz:        news.NewMatcher(cfg.BuzzKeywords),
		now:         now,
	}
}

func (s *Scorer) Score(item *news.NormalizedItem) (Score, error) {
	text := item.Title + " " + item.Description

	b := news.ScoreBreakdown{
		Credibility: clamp(s.Credibility(item.Source)),
		Keywords:    math.Min(s.cfg.KeywordStep*float64(s.highImpact.Count(text)), s.cfg.KeywordCap),
		Subject:     s.subject(text),
		Activity:    clamp(s.activityScore(text)),
		Recency:     s.Recency(item.PublishedAt),
		Social:      s.buzzScore(text),
	}

	w := s.cfg.Weights
	importance := w.Credibility*b.Credibility +
		w.Keywords*b.Keywords +
		w.Subject*b.Subject +
		w.Activity*b.Activity +
		w.Recency*b.Recency +
		w.Social*b.Social
	if !finite(importance) {
		return Score{}, fmt.Errorf("importance for %q: %w", item.Title, ErrNonFinite)
	}
	importance = clamp(importance)

	out := Score{Importance: importance, Breakdown: b}
	if s.cfg.ComputeTrending {
		tw := s.cfg.TrendingWeights
		trending := tw.Importance*importance + tw.Recency*b.Recency + tw.Buzz*b.Social + tw.Subject*b.Subject
		if !finite(trending) {
			return Score{}, fmt.Errorf("trending for %q: %w", item.Title, ErrNonFinite)
		}
		trending = clamp(trending)
		out.Trending = &trending
	}
	return out, nil
}

// Credibility looks the source up by host; unknown sources get the default.
func (s *Scorer) Credibility(source string) float64 {
	key := news.SourceKey(source)
	if v, ok := s.credibility[key]; ok {
		return v
	}
	if key != "" && !strings.Contains(key, ".") {
		if v, ok := s.credibility[strings.ReplaceAll(key, " ", "")+".com"]; ok {
			return v
		}
	}
	return s.defaultCred
}

// Recency steps down with age. A missing timestamp is neutral and a
// timestamp in the future counts as fresh.
func (s *Scorer) Recency(published *time.Time) float64 {
	if published == nil {
		return s.cfg.RecencyUnknown
	}
	age := s.now().Sub(*published)
	if age < 0 {
		return 1
	}
	for _, step := range s.cfg.RecencySteps {
		if age <= step.MaxAge {
			return step.Score
		}
	}
	return s.cfg.RecencyStale
}

func (s *Scorer) subject(text string) float64 {
	switch {
	case s.top.Any(text):
		return s.cfg.SubjectTop
	case s.mid.Any(text):
		return s.cfg.SubjectMid
	default:
		return s.cfg.SubjectUnknown
	}
}

func (s *Scorer) activityScore(text string) float64 {
	best := 0.0
	for _, kw := range s.activity.Matches(text) {
		best = math.Max(best, s.weights[kw])
	}
	return best
}

func (s *Scorer) buzzScore(text string) float64 {
	return math.Min(s.cfg.BuzzBase+s.cfg.BuzzStep*float64(s.buzz.Count(text)), 1)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

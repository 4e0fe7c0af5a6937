// Package pipeline runs one batch through normalization, deduplication,
// enrichment and selection.
//
// A Pipeline owns every component it uses; nothing is shared through
// package variables, so several pipelines with different configurations
// can run side by side.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/musicnews/internal/annotate"
	"github.com/deusflow/musicnews/internal/classify"
	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/dedup"
	"github.com/deusflow/musicnews/internal/metrics"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/scoring"
	"github.com/deusflow/musicnews/internal/selector"
)

type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock replaces time.Now for recency scoring and run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline turns a raw batch into ranked, classified items.
type Pipeline struct {
	cfg *config.Config

	annotator  *annotate.Annotator
	engine     *dedup.Engine
	classifier *classify.Classifier
	tagger     *classify.Tagger
	scorer     *scoring.Scorer

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	p.annotator = annotate.New(cfg)
	p.engine = dedup.NewEngine(
		dedup.NewDetector(cfg.Dedup, p.annotator.Scorer()),
		dedup.NewResolver(cfg.Dedup, cfg.Sources),
		cfg.Workers,
		cfg.Dedup.ParallelThreshold,
		p.logger,
	)
	p.classifier = classify.NewClassifier(cfg.Classifier)
	p.tagger = classify.NewTagger(cfg.Tags)
	p.scorer = scoring.New(cfg.Scoring, cfg.Sources, p.now)
	return p
}

// Result is everything one Run produced.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Skipped  []news.Skip
	Clusters []*dedup.Cluster
	// MergeRules counts duplicate merges by the rule that matched.
	MergeRules map[string]int
	// Items holds one enriched item per cluster, in cluster order.
	Items  []*news.ClassifiedItem
	Ranked []*news.ClassifiedItem

	Fallbacks int
}

// CategoryCounts counts the enriched items per category. Every category is
// present, with zero when nothing landed in it.
func (r *Result) CategoryCounts() map[news.Category]int {
	counts := make(map[news.Category]int, len(news.AllCategories()))
	for _, c := range news.AllCategories() {
		counts[c] = 0
	}
	for _, it := range r.Items {
		counts[it.Category]++
	}
	return counts
}

// Run processes one batch. The only error is an empty batch; per-record
// problems are reported in the result.
func (p *Pipeline) Run(batch []news.RawItem) (*Result, error) {
	if len(batch) == 0 {
		return nil, news.ErrNothingToProcess
	}

	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}
	log := p.logger.With("component", "pipeline", "run_id", res.RunID)
	p.metrics.AddReceived(len(batch))

	items := make([]*news.NormalizedItem, 0, len(batch))
	for i, raw := range batch {
		if reason := skipReason(raw); reason != "" {
			res.Skipped = append(res.Skipped, news.Skip{Index: i, Title: raw.Title, Reason: reason})
			p.metrics.IncrementSkipped()
			log.Warn("record skipped", "index", i, "source", raw.Source, "reason", reason)
			continue
		}
		items = append(items, p.annotator.Annotate(i, raw))
	}

	deduped := p.engine.Deduplicate(items)
	res.Clusters = deduped.Clusters
	res.MergeRules = deduped.MergesByRule()
	p.metrics.AddDuplicatesRemoved(deduped.Removed())

	res.Items = p.enrichAll(deduped.Representatives())
	for _, it := range res.Items {
		if it.Fallback {
			res.Fallbacks++
			p.metrics.IncrementFallbacks()
			log.Warn("fallback scoring applied", "item", it.Item.ID, "title", it.Item.Title, "reason", it.FallbackReason)
		}
	}

	res.Ranked = selector.Select(res.Items, p.cfg.Selection)
	p.metrics.AddRanked(len(res.Ranked))

	res.Duration = p.now().Sub(res.StartedAt)
	log.Info("batch processed",
		"received", len(batch),
		"skipped", len(res.Skipped),
		"duplicates_removed", deduped.Removed(),
		"clusters", len(res.Clusters),
		"merge_rules", res.MergeRules,
		"fallbacks", res.Fallbacks,
		"ranked", len(res.Ranked),
		"mode", p.cfg.Selection.Mode,
	)
	return res, nil
}

func skipReason(raw news.RawItem) string {
	switch {
	case strings.TrimSpace(raw.Title) == "":
		return "missing title"
	case strings.TrimSpace(raw.Description) == "":
		return "missing description"
	}
	return ""
}

// enrichAll classifies, tags and scores each representative. Items are
// independent, so they are processed by a bounded group of goroutines.
func (p *Pipeline) enrichAll(reps []*news.NormalizedItem) []*news.ClassifiedItem {
	out := make([]*news.ClassifiedItem, len(reps))

	var g errgroup.Group
	g.SetLimit(max(1, p.cfg.Workers))
	for i, item := range reps {
		i, item := i, item
		g.Go(func() error {
			out[i] = p.enrich(item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Pipeline) enrich(item *news.NormalizedItem) (out *news.ClassifiedItem) {
	defer func() {
		if r := recover(); r != nil {
			out = p.fallback(item, fmt.Sprintf("panic: %v", r))
		}
	}()

	score, err := p.scorer.Score(item)
	if err != nil {
		return p.fallback(item, err.Error())
	}
	return &news.ClassifiedItem{
		Item:       item,
		Category:   p.classifier.Classify(item),
		Tags:       p.tagger.Tags(item),
		Importance: score.Importance,
		Trending:   score.Trending,
		Breakdown:  score.Breakdown,
	}
}

func (p *Pipeline) fallback(item *news.NormalizedItem, reason string) *news.ClassifiedItem {
	return &news.ClassifiedItem{
		Item:           item,
		Category:       news.CategoryNews,
		Tags:           news.EmptyTags(),
		Importance:     p.cfg.Scoring.FallbackImportance,
		Fallback:       true,
		FallbackReason: reason,
	}
}

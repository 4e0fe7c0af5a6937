package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/deusflow/musicnews/internal/archive"
	"github.com/deusflow/musicnews/internal/cache"
	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/metrics"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/pipeline"
	"github.com/deusflow/musicnews/internal/publish"
	"github.com/deusflow/musicnews/internal/ratelimit"
	"github.com/deusflow/musicnews/internal/retry"
	"github.com/deusflow/musicnews/internal/rss"
	"github.com/deusflow/musicnews/internal/scraper"
	"github.com/deusflow/musicnews/internal/server"
	"github.com/deusflow/musicnews/internal/storage"
	"github.com/deusflow/musicnews/internal/summary"
	"github.com/deusflow/musicnews/internal/telegram"
)

// Source yields the raw batch for one run.
type Source interface {
	Collect(ctx context.Context) ([]news.RawItem, error)
}

// Archiver stores a copy of the report under name.
type Archiver interface {
	UploadReport(ctx context.Context, name string, data []byte) (string, error)
}

// Publisher hands the ranked items of a run to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, runID string, items []*news.ClassifiedItem) (int, error)
}

// Deliverer sends the digest to readers and returns the messages sent.
type Deliverer interface {
	SendDigest(ctx context.Context, items []*news.ClassifiedItem, date time.Time) (int, error)
}

// Deps are the collaborators of a run. Archiver, Publisher and Deliverer
// are optional.
type Deps struct {
	Source     Source
	Summarizer summary.Summarizer
	Writer     *storage.ReportWriter
	Archiver   Archiver
	Publisher  Publisher
	Deliverer  Deliverer
}

// App runs the collect, process and distribute cycle.
type App struct {
	cfg        *config.Config
	production bool

	pipeline *pipeline.Pipeline
	deps     Deps
	server   *server.Server
	cache    *cache.Cache

	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	closers []func() error
}

// New wires the production collaborators from cfg. Telegram delivery is
// configured only in production mode; archive and publication only when
// their sections are filled in.
func New(ctx context.Context, cfg *config.Config, production bool, logger *slog.Logger) (*App, error) {
	feeds, err := rss.LoadFeeds(cfg.Feeds.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load RSS feeds list: %w", err)
	}
	rc := retry.FromConfig(cfg.Retry)

	var scr *scraper.Scraper
	if cfg.Feeds.ScrapeMissing {
		scr = scraper.New(cfg.Feeds.RequestTimeout, logger)
	}
	deps := Deps{
		Source: feedSource{collector: rss.NewCollector(cfg.Feeds, rc, scr, logger), feeds: feeds},
		Writer: storage.NewReportWriter(cfg.Output.Path, cfg.Output.ArchiveDir),
	}

	a := NewWithDeps(cfg, production, deps, logger, metrics.New())

	limiter := ratelimit.NewAIRateLimiter(cfg.Summary.MaxRequests, cfg.Summary.RequestsPerMinute, logger)
	chain := summary.Chain{}
	if cfg.Summary.GeminiAPIKey != "" {
		g, err := summary.NewGemini(ctx, cfg.Summary, limiter, a.cache, logger)
		if err != nil {
			logger.Warn("Gemini summaries disabled", "error", err)
		} else {
			chain = append(chain, g)
			a.closers = append(a.closers, func() error { g.Close(); return nil })
			a.server.AddStats("gemini", limiter.GetStats)
		}
	} else {
		logger.Info("GEMINI_API_KEY not set, using extractive summaries")
	}
	a.deps.Summarizer = append(chain, summary.Brief{})

	if cfg.S3.Bucket != "" {
		up, err := archive.New(ctx, cfg.S3, rc, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.deps.Archiver = up
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := publish.New(cfg.Kafka, rc, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.deps.Publisher = pub
		a.closers = append(a.closers, pub.Close)
	}
	if production {
		tg, err := telegram.New(cfg.Telegram, rc, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.deps.Deliverer = tg
	}
	return a, nil
}

// NewWithDeps builds an app around the given collaborators.
func NewWithDeps(cfg *config.Config, production bool, deps Deps, logger *slog.Logger, m *metrics.Metrics) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	if deps.Summarizer == nil {
		deps.Summarizer = summary.Brief{}
	}
	a := &App{
		cfg:        cfg,
		production: production,
		deps:       deps,
		server:     server.New(m, logger),
		cache:      cache.New(),
		metrics:    m,
		logger:     logger.With("component", "app"),
		now:        time.Now,
	}
	a.pipeline = pipeline.New(cfg,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
		pipeline.WithClock(func() time.Time { return a.now() }),
	)
	a.server.AddStats("summary_cache", func() map[string]interface{} {
		return map[string]interface{}{"entries": a.cache.Len()}
	})
	return a
}

// WithClock replaces time.Now for the pipeline and report timestamps.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

func (a *App) Server() *server.Server {
	return a.server
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Close releases the clients opened by New.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// RunOnce collects, processes and distributes one batch.
func (a *App) RunOnce(ctx context.Context) (*pipeline.Result, error) {
	res, err := a.runOnce(ctx)
	if errors.Is(err, news.ErrNothingToProcess) {
		a.logger.Info("no news to process")
		return nil, err
	}
	if err != nil {
		a.metrics.SetError(err.Error())
		a.logger.Error("run failed", "error", err)
		return res, err
	}
	return res, nil
}

func (a *App) runOnce(ctx context.Context) (*pipeline.Result, error) {
	start := time.Now()

	items, err := a.deps.Source.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	a.logger.Info("news collected", "items", len(items))

	res, err := a.pipeline.Run(items)
	if err != nil {
		return nil, err
	}

	n := summary.Attach(ctx, a.deps.Summarizer, res.Ranked, a.cfg.Summary.MaxItems, a.logger, a.metrics)
	a.logger.Info("summaries attached", "count", n)
	a.preview(res.Ranked, 2)

	report := storage.BuildReport(res.RunID, res.Ranked, res.StartedAt)
	archivePath, err := a.deps.Writer.Save(report)
	if err != nil {
		return res, err
	}
	a.logger.Info("report saved", "path", a.cfg.Output.Path, "archive", archivePath)

	if a.deps.Archiver != nil {
		a.upload(ctx, report, archivePath)
	}

	if a.deps.Publisher != nil {
		sent, err := a.deps.Publisher.Publish(ctx, res.RunID, res.Ranked)
		a.metrics.AddPublished(sent)
		if err != nil {
			a.logger.Warn("publication incomplete", "published", sent, "error", err)
		}
	}

	if a.production && a.deps.Deliverer != nil && len(res.Ranked) > 0 {
		sent, err := a.deps.Deliverer.SendDigest(ctx, res.Ranked, res.StartedAt)
		for i := 0; i < sent; i++ {
			a.metrics.IncrementTelegramMessages()
		}
		if err != nil {
			return res, fmt.Errorf("telegram delivery: %w", err)
		}
		a.logger.Info("digest delivered", "messages", sent)
	}

	a.metrics.RecordProcessingTime(time.Since(start))
	a.metrics.SetLastRun(res.RunID)
	a.server.RecordRun(summarize(res, len(items)))
	return res, nil
}

func (a *App) upload(ctx context.Context, report *storage.Report, archivePath string) {
	data, err := report.Marshal()
	if err != nil {
		a.logger.Warn("archive skipped", "error", err)
		return
	}
	name := filepath.Base(archivePath)
	if archivePath == "" {
		name = fmt.Sprintf("music_news_%s.json", report.Metadata.GeneratedAt.Format("20060102_150405"))
	}
	if _, err := a.deps.Archiver.UploadReport(ctx, name, data); err != nil {
		a.logger.Warn("report upload failed", "error", err)
	}
}

func (a *App) preview(items []*news.ClassifiedItem, n int) {
	for i, it := range items {
		if i >= n {
			break
		}
		a.logger.Info("top story",
			"rank", i+1,
			"category", it.Category,
			"importance", fmt.Sprintf("%.3f", it.Importance),
			"title", it.Item.Title,
			"url", it.Item.URL,
		)
	}
}

func summarize(res *pipeline.Result, received int) server.RunSummary {
	dups := 0
	for _, c := range res.Clusters {
		dups += len(c.Members) - 1
	}
	return server.RunSummary{
		RunID:             res.RunID,
		StartedAt:         res.StartedAt,
		DurationMS:        res.Duration.Milliseconds(),
		Received:          received,
		Skipped:           len(res.Skipped),
		DuplicatesRemoved: dups,
		MergeRules:        res.MergeRules,
		Ranked:            len(res.Ranked),
		Categories:        res.CategoryCounts(),
	}
}

// Serve keeps the monitoring server up and, when interval is positive,
// runs the pipeline on that schedule until ctx is cancelled. A failed run
// is reported on /health and does not stop the loop.
func (a *App) Serve(ctx context.Context, port string, interval time.Duration) error {
	go a.cache.RunJanitor(ctx, time.Hour)

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.ListenAndServe(ctx, port) }()

	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return <-errCh
			case err := <-errCh:
				return err
			case <-ticker.C:
				if _, err := a.RunOnce(ctx); err != nil && !errors.Is(err, news.ErrNothingToProcess) {
					a.logger.Warn("scheduled run failed", "error", err)
				}
			}
		}
	}
	return <-errCh
}

type feedSource struct {
	collector *rss.Collector
	feeds     []rss.Feed
}

func (f feedSource) Collect(ctx context.Context) ([]news.RawItem, error) {
	return f.collector.Collect(ctx, f.feeds)
}

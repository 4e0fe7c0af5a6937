package rss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/retry"
	"github.com/deusflow/musicnews/internal/scraper"
)

// Feed is one entry of the feeds file:
//
//	feeds:
//	  - name: billboard.com
//	    url: https://www.billboard.com/feed/
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type FeedsFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the RSS feeds list from a YAML file.
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file FeedsFile
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode feeds %s: %w", path, err)
	}

	feeds := file.Feeds[:0]
	for _, fd := range file.Feeds {
		if strings.TrimSpace(fd.URL) == "" {
			continue
		}
		feeds = append(feeds, fd)
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured in %s", path)
	}
	return feeds, nil
}

const leadChars = 600

// Collector downloads feeds and turns their entries into raw items.
type Collector struct {
	parser  *gofeed.Parser
	cfg     config.FeedsConfig
	retry   retry.RetryConfig
	scraper *scraper.Scraper
	gate    *Gate
	workers int
	logger  *slog.Logger
}

// NewCollector builds a collector. scr may be nil, in which case entries
// without a description are left for the pipeline to skip. Entries are
// filtered by age and music relevance as configured in cfg.
func NewCollector(cfg config.FeedsConfig, rc retry.RetryConfig, scr *scraper.Scraper, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "musicnews/1.0"

	return &Collector{
		parser:  parser,
		cfg:     cfg,
		retry:   rc,
		scraper: scr,
		gate:    NewGate(cfg, time.Now),
		workers: 4,
		logger:  logger.With("component", "rss"),
	}
}

// Collect fetches every feed. A failing feed is logged and skipped; an error
// is returned only when no feed could be read at all.
func (c *Collector) Collect(ctx context.Context, feeds []Feed) ([]news.RawItem, error) {
	perFeed := make([][]news.RawItem, len(feeds))
	failed := make([]bool, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, fd := range feeds {
		i, fd := i, fd
		g.Go(func() error {
			items, err := c.fetch(gctx, fd)
			if err != nil {
				failed[i] = true
				c.logger.Warn("error parsing RSS", "feed", fd.URL, "error", err)
				return nil
			}
			perFeed[i] = items
			c.logger.Info("feed loaded", "feed", fd.URL, "items", len(items))
			return nil
		})
	}
	_ = g.Wait()

	var all []news.RawItem
	ok := 0
	for i, items := range perFeed {
		if !failed[i] {
			ok++
		}
		all = append(all, items...)
	}
	c.logger.Info("processed RSS feeds", "ok", ok, "total", len(feeds), "items", len(all))

	if len(feeds) > 0 && ok == 0 {
		return nil, errors.New("no feed could be loaded")
	}
	return all, ctx.Err()
}

func (c *Collector) fetch(ctx context.Context, fd Feed) ([]news.RawItem, error) {
	var feed *gofeed.Feed
	err := retry.WithRetry(ctx, c.retry, func() error {
		var err error
		feed, err = c.parser.ParseURLWithContext(fd.URL, ctx)
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	items := ItemsFromFeed(sourceName(fd, feed), feed, c.cfg.MaxPerFeed)
	if c.cfg.ScrapeMissing && c.scraper != nil {
		for i := range items {
			if items[i].Description != "" || items[i].URL == "" {
				continue
			}
			lead, err := c.scraper.Lead(ctx, items[i].URL, leadChars)
			if err != nil {
				c.logger.Debug("article scrape failed", "url", items[i].URL, "error", err)
				continue
			}
			items[i].Description = lead
		}
	}

	kept, stats := c.gate.Filter(items)
	if stats.Stale > 0 || stats.OffTopic > 0 {
		c.logger.Info("feed entries dropped", "feed", fd.URL,
			"stale", stats.Stale, "off_topic", stats.OffTopic, "kept", len(kept))
	}
	return kept, nil
}

// ItemsFromFeed converts at most limit entries of feed (0 = all). Markup is
// stripped from descriptions; full content is used when the summary is empty.
func ItemsFromFeed(source string, feed *gofeed.Feed, limit int) []news.RawItem {
	entries := feed.Items
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]news.RawItem, 0, len(entries))
	for _, it := range entries {
		if it == nil {
			continue
		}
		desc := scraper.HTMLToText(it.Description)
		if desc == "" {
			desc = scraper.HTMLToText(it.Content)
		}

		raw := news.RawItem{
			Title:       strings.TrimSpace(scraper.HTMLToText(it.Title)),
			Description: desc,
			URL:         strings.TrimSpace(it.Link),
			Source:      source,
			Published:   it.Published,
		}
		switch {
		case it.PublishedParsed != nil:
			raw.PublishedParsed = it.PublishedParsed
		case it.UpdatedParsed != nil:
			raw.PublishedParsed = it.UpdatedParsed
			if raw.Published == "" {
				raw.Published = it.Updated
			}
		}
		out = append(out, raw)
	}
	return out
}

// sourceName prefers the configured name, then the host of the site.
func sourceName(fd Feed, feed *gofeed.Feed) string {
	if fd.Name != "" {
		return fd.Name
	}
	for _, link := range []string{feed.Link, fd.URL} {
		if u, err := url.Parse(link); err == nil && u.Host != "" {
			return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		}
	}
	return feed.Title
}

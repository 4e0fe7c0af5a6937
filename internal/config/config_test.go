package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `selection:
  mode: global
  limit: 5
dedup:
  same_source_window: 12h
feeds:
  max_per_feed: 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MAX_NEWS_LIMIT", "3")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RETRY_DELAY", "500ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Selection.Mode != ModeGlobal {
		t.Errorf("mode = %q, want file value", cfg.Selection.Mode)
	}
	if cfg.Selection.Limit != 3 {
		t.Errorf("limit = %d, env should win over the file", cfg.Selection.Limit)
	}
	if cfg.Dedup.SameSourceWindow != 12*time.Hour {
		t.Errorf("same_source_window = %v", cfg.Dedup.SameSourceWindow)
	}
	if cfg.Feeds.MaxPerFeed != 7 || cfg.Feeds.Path != "configs/feeds.yaml" {
		t.Errorf("feeds = %+v, want file value over defaults", cfg.Feeds)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Retry.Delay != 500*time.Millisecond {
		t.Errorf("retry delay = %v", cfg.Retry.Delay)
	}
	if len(cfg.Classifier.Categories) == 0 {
		t.Errorf("defaults lost for sections the file does not mention")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("selection: [not, a, map]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"importance weights", func(c *Config) { c.Scoring.Weights.Credibility += 0.2 }, "importance weights"},
		{"trending weights", func(c *Config) { c.Scoring.TrendingWeights.Buzz = 0 }, "trending weights"},
		{"similarity weights", func(c *Config) { c.Similarity.TitleWeight = 0.9 }, "similarity"},
		{"threshold range", func(c *Config) { c.Dedup.TitleThreshold = 1.5 }, "title_threshold"},
		{"tier gap", func(c *Config) { c.Dedup.TierGap = 0 }, "tier_gap"},
		{"unknown category", func(c *Config) { c.Classifier.Categories[0].Name = "GOSSIP" }, "unknown category"},
		{"duplicate category", func(c *Config) {
			c.Classifier.Categories = append(c.Classifier.Categories, c.Classifier.Categories[0])
		}, "configured twice"},
		{"selection mode", func(c *Config) { c.Selection.Mode = "random" }, "selection mode"},
		{"caps", func(c *Config) { c.Selection.PerCategory = 0 }, "caps"},
		{"trending off", func(c *Config) {
			c.Selection.RankBy = RankByTrending
			c.Scoring.ComputeTrending = false
		}, "compute_trending"},
		{"workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"feed age", func(c *Config) { c.Feeds.MaxAge = -time.Hour }, "max_age"},
		{"relevance range", func(c *Config) { c.Feeds.MinRelevance = 2 }, "min_relevance"},
		{"relevance keywords", func(c *Config) { c.Feeds.MusicKeywords = nil }, "music_keywords"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

// Package config holds every tunable of the pipeline and its collaborators.
//
// Values come from Default(), then an optional YAML file, then environment
// variables. Validate is always applied last.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModePerCategory = "per-category"
	ModeGlobal      = "global"

	RankByImportance = "importance"
	RankByTrending   = "trending"
)

// Config holds every setting of the pipeline and its collaborators.
type Config struct {
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Sources    SourcesConfig    `yaml:"sources"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Tags       TagsConfig       `yaml:"tags"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Selection  SelectionConfig  `yaml:"selection"`

	// DateLayouts are tried in order before the free-form parser.
	DateLayouts []string `yaml:"date_layouts"`
	// Workers bounds parallel comparison and enrichment.
	Workers int `yaml:"workers"`

	Feeds      FeedsConfig      `yaml:"feeds"`
	Output     OutputConfig     `yaml:"output"`
	Summary    SummaryConfig    `yaml:"summary"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	S3         S3Config         `yaml:"s3"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Retry      RetryConfig      `yaml:"retry"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text | json
	Debug     bool   `yaml:"debug"`
}

type NormalizerConfig struct {
	BoilerplateWords []string `yaml:"boilerplate_words"`
	// AllowedPunctuation lists the non-alphanumeric runes kept in titles.
	AllowedPunctuation string   `yaml:"allowed_punctuation"`
	URLQueryAllowList  []string `yaml:"url_query_allow_list"`
}

type ExtractionConfig struct {
	HighProfileEntities []string `yaml:"high_profile_entities"`
	HeadlineStopwords   []string `yaml:"headline_stopwords"`
	GenericPhrases      []string `yaml:"generic_phrases"`
	ActionVerbs         []string `yaml:"action_verbs"`
	DomainNouns         []string `yaml:"domain_nouns"`
}

type SimilarityConfig struct {
	TitleWeight   float64 `yaml:"title_weight"`
	KeywordWeight float64 `yaml:"keyword_weight"`
	// Stopwords are dropped from title token sets and fingerprints.
	Stopwords            []string `yaml:"stopwords"`
	FingerprintMaxTokens int      `yaml:"fingerprint_max_tokens"`
}

// DedupConfig holds the duplicate detection thresholds and tie-breaks.
type DedupConfig struct {
	HighProfileTitleThreshold float64       `yaml:"high_profile_title_threshold"`
	TitleThreshold            float64       `yaml:"title_threshold"`
	BlendTitleThreshold       float64       `yaml:"blend_title_threshold"`
	BlendTitleWeight          float64       `yaml:"blend_title_weight"`
	BlendEntityWeight         float64       `yaml:"blend_entity_weight"`
	BlendThreshold            float64       `yaml:"blend_threshold"`
	SameSourceTitleThreshold  float64       `yaml:"same_source_title_threshold"`
	SameSourceWindow          time.Duration `yaml:"same_source_window"`

	TierGap                   int           `yaml:"tier_gap"`
	DescriptionRatio          float64       `yaml:"description_ratio"`
	RecencyGap                time.Duration `yaml:"recency_gap"`
	FallbackTierWeight        float64       `yaml:"fallback_tier_weight"`
	FallbackTitleWeight       float64       `yaml:"fallback_title_weight"`
	FallbackDescriptionWeight float64       `yaml:"fallback_description_weight"`

	// ParallelThreshold is the batch size from which pairwise verdicts are
	// precomputed by Workers goroutines.
	ParallelThreshold int `yaml:"parallel_threshold"`
}

type SourcesConfig struct {
	Tiers              map[string]int     `yaml:"tiers"`
	Credibility        map[string]float64 `yaml:"credibility"`
	DefaultCredibility float64            `yaml:"default_credibility"`
}

type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type ClassifierConfig struct {
	// Categories are evaluated in order; the first one wins a tie.
	Categories []CategoryRule `yaml:"categories"`
}

type TagRule struct {
	Keyword string `yaml:"keyword"`
	Label   string `yaml:"label"`
}

type TagsConfig struct {
	Genre               []TagRule `yaml:"genre"`
	Industry            []TagRule `yaml:"industry"`
	Region              []TagRule `yaml:"region"`
	MaxTagsPerDimension int       `yaml:"max_tags_per_dimension"`
}

type WeightedKeyword struct {
	Keyword string  `yaml:"keyword"`
	Weight  float64 `yaml:"weight"`
}

type RecencyStep struct {
	MaxAge time.Duration `yaml:"max_age"`
	Score  float64       `yaml:"score"`
}

type ImportanceWeights struct {
	Credibility float64 `yaml:"credibility"`
	Keywords    float64 `yaml:"keywords"`
	Subject     float64 `yaml:"subject"`
	Activity    float64 `yaml:"activity"`
	Recency     float64 `yaml:"recency"`
	Social      float64 `yaml:"social"`
}

func (w ImportanceWeights) sum() float64 {
	return w.Credibility + w.Keywords + w.Subject + w.Activity + w.Recency + w.Social
}

type TrendingWeights struct {
	Importance float64 `yaml:"importance"`
	Recency    float64 `yaml:"recency"`
	Buzz       float64 `yaml:"buzz"`
	Subject    float64 `yaml:"subject"`
}

func (w TrendingWeights) sum() float64 {
	return w.Importance + w.Recency + w.Buzz + w.Subject
}

type ScoringConfig struct {
	Weights         ImportanceWeights `yaml:"weights"`
	TrendingWeights TrendingWeights   `yaml:"trending_weights"`
	ComputeTrending bool              `yaml:"compute_trending"`

	HighImpactKeywords []string `yaml:"high_impact_keywords"`
	KeywordStep        float64  `yaml:"keyword_step"`
	KeywordCap         float64  `yaml:"keyword_cap"`

	TopSubjects    []string `yaml:"top_subjects"`
	MidSubjects    []string `yaml:"mid_subjects"`
	SubjectTop     float64  `yaml:"subject_top"`
	SubjectMid     float64  `yaml:"subject_mid"`
	SubjectUnknown float64  `yaml:"subject_unknown"`

	ActivityKeywords []WeightedKeyword `yaml:"activity_keywords"`

	RecencySteps   []RecencyStep `yaml:"recency_steps"`
	RecencyStale   float64       `yaml:"recency_stale"`
	RecencyUnknown float64       `yaml:"recency_unknown"`

	BuzzKeywords []string `yaml:"buzz_keywords"`
	BuzzBase     float64  `yaml:"buzz_base"`
	BuzzStep     float64  `yaml:"buzz_step"`

	// FallbackImportance is assigned to items whose scoring failed.
	FallbackImportance float64 `yaml:"fallback_importance"`
}

type SelectionConfig struct {
	Mode        string `yaml:"mode"`
	PerCategory int    `yaml:"per_category"`
	Limit       int    `yaml:"limit"`
	RankBy      string `yaml:"rank_by"`
}

type FeedsConfig struct {
	Path           string        `yaml:"path"`
	MaxPerFeed     int           `yaml:"max_per_feed"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ScrapeMissing fetches the article page for items whose feed entry
	// carries no description.
	ScrapeMissing bool `yaml:"scrape_missing"`

	// MaxAge drops dated entries older than this; 0 keeps everything.
	// Undated entries are always kept.
	MaxAge time.Duration `yaml:"max_age"`
	// MinRelevance is the music relevance an entry needs to be kept, 0 disables
	// the check. Relevance is min(hits/5, 1)*0.6 + DomainScore*0.4.
	MinRelevance  float64  `yaml:"min_relevance"`
	DomainScore   float64  `yaml:"domain_score"`
	MusicKeywords []string `yaml:"music_keywords"`
}

type OutputConfig struct {
	Path       string `yaml:"path"`
	ArchiveDir string `yaml:"archive_dir"`
}

type SummaryConfig struct {
	GeminiAPIKey      string        `yaml:"gemini_api_key"`
	Model             string        `yaml:"model"`
	MaxRequests       int           `yaml:"max_requests"` // per day, 0 = unlimited
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	MaxItems          int           `yaml:"max_items"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// Load builds the configuration. An empty path falls back to MUSICNEWS_CONFIG;
// when both are empty only defaults and environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MUSICNEWS_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Summary.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", cfg.Summary.GeminiAPIKey)
	cfg.Summary.MaxRequests = getEnvIntOrDefault("MAX_GEMINI_REQUESTS", cfg.Summary.MaxRequests)
	cfg.Telegram.Token = getEnvOrDefault("TELEGRAM_TOKEN", cfg.Telegram.Token)
	cfg.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)

	cfg.Feeds.Path = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.Feeds.Path)
	if os.Getenv("SCRAPE_MISSING_DESCRIPTIONS") == "true" {
		cfg.Feeds.ScrapeMissing = true
	}
	cfg.Feeds.MaxAge = getEnvDurationOrDefault("MAX_NEWS_AGE", cfg.Feeds.MaxAge)
	cfg.Output.Path = getEnvOrDefault("OUTPUT_PATH", cfg.Output.Path)
	cfg.Output.ArchiveDir = getEnvOrDefault("ARCHIVE_DIR", cfg.Output.ArchiveDir)

	cfg.Selection.Mode = getEnvOrDefault("SELECTION_MODE", cfg.Selection.Mode)
	cfg.Selection.RankBy = getEnvOrDefault("RANK_BY", cfg.Selection.RankBy)
	cfg.Selection.PerCategory = getEnvIntOrDefault("MAX_NEWS_PER_CATEGORY", cfg.Selection.PerCategory)
	cfg.Selection.Limit = getEnvIntOrDefault("MAX_NEWS_LIMIT", cfg.Selection.Limit)
	cfg.Workers = getEnvIntOrDefault("PIPELINE_WORKERS", cfg.Workers)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	cfg.Kafka.Topic = getEnvOrDefault("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.S3.Bucket = getEnvOrDefault("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Prefix = getEnvOrDefault("S3_PREFIX", cfg.S3.Prefix)
	cfg.S3.Region = getEnvOrDefault("AWS_REGION", cfg.S3.Region)

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		cfg.Monitoring.Enabled = true
	}
	cfg.Monitoring.Port = getEnvOrDefault("MONITORING_PORT", cfg.Monitoring.Port)

	cfg.Retry.Attempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.Retry.Attempts)
	cfg.Retry.Delay = getEnvDurationOrDefault("RETRY_DELAY", cfg.Retry.Delay)

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports the first inconsistency found.
func (c *Config) Validate() error {
	if !approxOne(c.Similarity.TitleWeight + c.Similarity.KeywordWeight) {
		return errors.New("similarity title_weight and keyword_weight must sum to 1")
	}
	if !approxOne(c.Scoring.Weights.sum()) {
		return fmt.Errorf("importance weights must sum to 1, got %.3f", c.Scoring.Weights.sum())
	}
	if !approxOne(c.Scoring.TrendingWeights.sum()) {
		return fmt.Errorf("trending weights must sum to 1, got %.3f", c.Scoring.TrendingWeights.sum())
	}

	thresholds := map[string]float64{
		"high_profile_title_threshold": c.Dedup.HighProfileTitleThreshold,
		"title_threshold":              c.Dedup.TitleThreshold,
		"blend_title_threshold":        c.Dedup.BlendTitleThreshold,
		"blend_threshold":              c.Dedup.BlendThreshold,
		"same_source_title_threshold":  c.Dedup.SameSourceTitleThreshold,
		"default_credibility":          c.Sources.DefaultCredibility,
		"fallback_importance":          c.Scoring.FallbackImportance,
		"min_relevance":                c.Feeds.MinRelevance,
		"domain_score":                 c.Feeds.DomainScore,
	}
	for name, v := range thresholds {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}
	if !approxOne(c.Dedup.BlendTitleWeight + c.Dedup.BlendEntityWeight) {
		return errors.New("dedup blend weights must sum to 1")
	}
	if c.Dedup.SameSourceWindow < 0 || c.Dedup.RecencyGap < 0 {
		return errors.New("dedup time windows must not be negative")
	}
	if c.Feeds.MaxAge < 0 {
		return errors.New("feeds max_age must not be negative")
	}
	if c.Feeds.MinRelevance > 0 && len(c.Feeds.MusicKeywords) == 0 {
		return errors.New("feeds min_relevance needs music_keywords")
	}
	if c.Dedup.TierGap < 1 {
		return errors.New("tier_gap must be at least 1")
	}
	if c.Similarity.FingerprintMaxTokens < 1 {
		return errors.New("fingerprint_max_tokens must be positive")
	}

	if len(c.Classifier.Categories) == 0 {
		return errors.New("at least one category rule is required")
	}
	seen := make(map[string]bool)
	for _, rule := range c.Classifier.Categories {
		if !knownCategory(rule.Name) {
			return fmt.Errorf("unknown category %q", rule.Name)
		}
		if seen[rule.Name] {
			return fmt.Errorf("category %q configured twice", rule.Name)
		}
		seen[rule.Name] = true
	}
	if c.Tags.MaxTagsPerDimension < 1 {
		return errors.New("max_tags_per_dimension must be positive")
	}

	switch c.Selection.Mode {
	case ModePerCategory, ModeGlobal:
	default:
		return fmt.Errorf("selection mode must be %q or %q", ModePerCategory, ModeGlobal)
	}
	switch c.Selection.RankBy {
	case RankByImportance, RankByTrending:
	default:
		return fmt.Errorf("rank_by must be %q or %q", RankByImportance, RankByTrending)
	}
	if c.Selection.PerCategory < 1 || c.Selection.Limit < 1 {
		return errors.New("selection caps must be positive")
	}
	if c.Selection.RankBy == RankByTrending && !c.Scoring.ComputeTrending {
		return errors.New("rank_by trending requires compute_trending")
	}
	if c.Workers < 1 {
		return errors.New("workers must be positive")
	}
	return nil
}

// knownCategory mirrors news.AllCategories; config cannot import news.
func knownCategory(name string) bool {
	switch name {
	case "NEWS", "REPORT", "INSIGHT", "INTERVIEW", "COLUMN":
		return true
	}
	return false
}

func approxOne(v float64) bool {
	return math.Abs(v-1) < 1e-6
}

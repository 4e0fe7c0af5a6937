package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/musicnews/internal/cache"
	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/ratelimit"
)

const maxPromptChars = 6000

type generateFunc func(ctx context.Context, prompt string) (string, error)

// Gemini summarizes with a Gemini model. Requests are paced and budgeted by
// the rate limiter and results are cached per story.
type Gemini struct {
	client   *genai.Client
	generate generateFunc

	limiter *ratelimit.AIRateLimiter
	cache   *cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
}

func NewGemini(ctx context.Context, cfg config.SummaryConfig, limiter *ratelimit.AIRateLimiter, c *cache.Cache, logger *slog.Logger) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	g := newGemini(func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", errors.New("no response from Gemini")
		}
		var b strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		return b.String(), nil
	}, cfg.CacheTTL, limiter, c, logger)
	g.client = client
	return g, nil
}

func newGemini(generate generateFunc, ttl time.Duration, limiter *ratelimit.AIRateLimiter, c *cache.Cache, logger *slog.Logger) *Gemini {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New()
	}
	return &Gemini{
		generate: generate,
		limiter:  limiter,
		cache:    c,
		ttl:      ttl,
		logger:   logger.With("component", "gemini"),
	}
}

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Summarize(ctx context.Context, item *news.ClassifiedItem) (string, error) {
	key := cacheKey(item.Item)
	if cached, ok := g.cache.GetString(key); ok {
		if g.limiter != nil {
			g.limiter.RecordCacheHit()
		}
		g.logger.Debug("summary served from cache", "item", item.Item.ID)
		return cached, nil
	}

	if g.limiter != nil {
		if err := g.limiter.Acquire(ctx); err != nil {
			return "", err
		}
	}

	raw, err := g.generate(ctx, buildPrompt(item.Item))
	if err != nil {
		return "", err
	}
	text := Finish(SanitizeAIText(raw), briefMaxRunes)
	if text == "" {
		return "", ErrEmptySummary
	}

	g.cache.Set(key, text, g.ttl)
	return text, nil
}

// cacheKey is shared by every report of the same story, so a duplicate that
// wins in a later run reuses the summary.
func cacheKey(n *news.NormalizedItem) string {
	if n.Fingerprint != 0 {
		return cache.GenerateKey("fp", fmt.Sprintf("%x", n.Fingerprint))
	}
	return cache.GenerateKey("title", n.NormalizedTitle, n.NormalizedURL)
}

func buildPrompt(n *news.NormalizedItem) string {
	content := strings.ReplaceAll(n.Description, "\r", "")
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) > maxPromptChars {
		runes := []rune(content)
		trimmed := string(runes[:maxPromptChars])
		if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
			trimmed = trimmed[:idx+1]
		}
		content = trimmed + "\n[TRUNCATED]"
	}

	return fmt.Sprintf(`Summarize this music industry news item in English.

Title: %s
Content: %s
Source: %s

Requirements:
- Two or three natural sentences, 120 to 200 characters in total.
- Say who (artist or band, exact name), what (album, tour, single, deal), when and where if known.
- Keep artist and brand names as written.
- No generic phrases such as "news was updated" and no commentary about yourself.

Summary:`, n.Title, content, n.URL)
}

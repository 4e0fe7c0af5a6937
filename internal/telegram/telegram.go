package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/retry"
)

// MaxMessageChars keeps messages under the Telegram limit of 4096.
const MaxMessageChars = 4000

const defaultBaseURL = "https://api.telegram.org"

// Client sends messages to one Telegram chat through the Bot API.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	retry   retry.RetryConfig
	logger  *slog.Logger
}

// New returns a client for cfg. Token and chat ID are both required.
func New(cfg config.TelegramConfig, rc retry.RetryConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("TELEGRAM_TOKEN is not set")
	}
	if cfg.ChatID == "" {
		return nil, errors.New("TELEGRAM_CHAT_ID is not set")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   rc,
		logger:  logger.With("component", "telegram"),
	}, nil
}

// WithBaseURL points the client at another API host.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// SendDigest formats items and sends the digest, split into as many
// messages as needed. It returns the number of messages delivered.
func (c *Client) SendDigest(ctx context.Context, items []*news.ClassifiedItem, date time.Time) (int, error) {
	messages := FormatDigest(items, date)
	for i, msg := range messages {
		if err := c.SendMessage(ctx, msg); err != nil {
			return i, fmt.Errorf("message %d/%d: %w", i+1, len(messages), err)
		}
	}
	return len(messages), nil
}

// SendMessage sends one HTML message with retries. Client errors other than
// rate limiting are not retried.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	attempt := 0
	err := retry.WithRetry(ctx, c.retry, func() error {
		attempt++
		err := c.sendMessageOnce(ctx, text)
		if err != nil {
			c.logger.Warn("error sending to Telegram", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return err
	}
	c.logger.Info("message sent to Telegram", "attempt", attempt, "chars", utf8.RuneCountInString(text))
	return nil
}

type apiError struct {
	status      int
	description string
}

func (e *apiError) Error() string {
	if e.description != "" {
		return fmt.Sprintf("telegram API error: status %d: %s", e.status, e.description)
	}
	return fmt.Sprintf("telegram API error: status %d", e.status)
}

func (c *Client) sendMessageOnce(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("error make JSON: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var result struct {
		Description string `json:"description"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &result)
	apiErr := &apiError{status: resp.StatusCode, description: result.Description}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return retry.Permanent(apiErr)
	}
	return apiErr
}

// FormatDigest renders the ranked items as HTML messages of at most
// MaxMessageChars characters. Items are never split across messages.
func FormatDigest(items []*news.ClassifiedItem, date time.Time) []string {
	if len(items) == 0 {
		return nil
	}

	header := fmt.Sprintf("🎵 <b>Music News</b> | %s\n\n", date.Format("Jan 2, 2006"))
	footer := "\n📱 Music News Bot"

	var messages []string
	var b strings.Builder
	b.WriteString(header)
	for i, it := range items {
		entry := formatItem(it, i+1, true)
		if utf8.RuneCountInString(header)+utf8.RuneCountInString(entry)+utf8.RuneCountInString(footer) > MaxMessageChars {
			entry = formatItem(it, i+1, false)
		}
		if utf8.RuneCountInString(b.String())+utf8.RuneCountInString(entry)+utf8.RuneCountInString(footer) > MaxMessageChars &&
			b.Len() > len(header) {
			messages = append(messages, b.String()+footer)
			b.Reset()
			b.WriteString(header)
		}
		b.WriteString(entry)
	}
	messages = append(messages, b.String()+footer)
	return messages
}

var categoryEmoji = map[news.Category]string{
	news.CategoryNews:      "📰",
	news.CategoryReport:    "📊",
	news.CategoryInsight:   "💡",
	news.CategoryInterview: "🎤",
	news.CategoryColumn:    "✍️",
}

const (
	maxSummaryChars = 600
	maxTitleChars   = 200
	maxURLChars     = 1000
)

// formatItem renders one digest entry. The summary is left out when
// withSummary is false, for entries that would not fit a message otherwise.
func formatItem(it *news.ClassifiedItem, number int, withSummary bool) string {
	n := it.Item
	emoji, ok := categoryEmoji[it.Category]
	if !ok {
		emoji = "📰"
	}

	var b strings.Builder
	title := html.EscapeString(shorten(n.Title, maxTitleChars, false))
	if n.URL != "" && utf8.RuneCountInString(n.URL) <= maxURLChars {
		fmt.Fprintf(&b, "%s <b>%d.</b> <a href=\"%s\">%s</a>\n", emoji, number, html.EscapeString(n.URL), title)
	} else {
		fmt.Fprintf(&b, "%s <b>%d.</b> %s\n", emoji, number, title)
	}

	text := it.Summary
	if text == "" {
		text = n.Description
	}
	if text = strings.TrimSpace(text); text != "" && withSummary {
		b.WriteString(html.EscapeString(shorten(text, maxSummaryChars, true)))
		b.WriteString("\n")
	}

	var labels []string
	labels = append(labels, it.Tags.Genre...)
	labels = append(labels, it.Tags.Industry...)
	labels = append(labels, it.Tags.Region...)
	if len(labels) > 0 {
		tags := make([]string, len(labels))
		for i, l := range labels {
			tags[i] = "#" + strings.ReplaceAll(strings.ReplaceAll(l, "-", "_"), " ", "_")
		}
		fmt.Fprintf(&b, "<i>%s</i> ", html.EscapeString(strings.Join(tags, " ")))
	}
	fmt.Fprintf(&b, "<i>%s · %s</i>\n\n", html.EscapeString(n.Source), it.Category)
	return b.String()
}

// shorten cuts text to limit runes. With atSentence it prefers ending on the
// last full sentence; otherwise "..." marks the cut.
func shorten(text string, limit int, atSentence bool) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	cut := string([]rune(text)[:limit])
	if atSentence {
		if i := strings.LastIndex(cut, ". "); i > 0 {
			return cut[:i+1]
		}
	}
	return strings.TrimSpace(cut) + "..."
}

package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/logger"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/retry"
)

func digestItem(i int, summary string) *news.ClassifiedItem {
	return &news.ClassifiedItem{
		Item: &news.NormalizedItem{
			RawItem: news.RawItem{
				Title:  fmt.Sprintf("Story %d <live>", i),
				URL:    fmt.Sprintf("https://example.com/story-%d?a=1&b=2", i),
				Source: "billboard.com",
			},
			ID: fmt.Sprintf("id-%d", i),
		},
		Category: news.CategoryNews,
		Tags:     news.Tags{Genre: []string{"HIP-HOP"}, Industry: []string{"TOUR"}, Region: []string{}},
		Summary:  summary,
	}
}

func TestFormatDigest(t *testing.T) {
	date := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)

	if msgs := FormatDigest(nil, date); msgs != nil {
		t.Errorf("empty digest = %v", msgs)
	}

	msgs := FormatDigest([]*news.ClassifiedItem{digestItem(1, "Short & sweet.")}, date)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	msg := msgs[0]
	for _, want := range []string{"Apr 3, 2026", "Story 1 &lt;live&gt;", "a=1&amp;b=2", "Short &amp; sweet.", "#HIP_HOP #TOUR", "billboard.com · NEWS"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	var many []*news.ClassifiedItem
	long := strings.Repeat("Lorem ipsum dolor sit amet. ", 30)
	for i := 1; i <= 20; i++ {
		many = append(many, digestItem(i, long))
	}
	msgs = FormatDigest(many, date)
	if len(msgs) < 2 {
		t.Fatalf("expected the digest to be split, got %d message(s)", len(msgs))
	}
	joined := strings.Join(msgs, "")
	for i, m := range msgs {
		if n := utf8.RuneCountInString(m); n > MaxMessageChars {
			t.Errorf("message %d has %d chars", i, n)
		}
	}
	last := -1
	for i := 1; i <= 20; i++ {
		idx := strings.Index(joined, fmt.Sprintf("<b>%d.</b>", i))
		if idx < 0 || idx < last {
			t.Fatalf("item %d missing or out of order", i)
		}
		last = idx
	}
}

func TestFormatDigest_OversizedEntry(t *testing.T) {
	date := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		title       string
		summary     string
		url         string
		wantSummary bool
	}{
		{"long title", strings.Repeat("Festival ", 1000), "Lineup announced.", "https://example.com/a", true},
		{"escaped title and summary", strings.Repeat("&", 5000), strings.Repeat("&", 600), "https://example.com/b", false},
		{"huge url", "Tour dates", "Dates announced.", "https://example.com/" + strings.Repeat("x", 5000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := digestItem(1, tt.summary)
			it.Item.Title = tt.title
			it.Item.URL = tt.url

			msgs := FormatDigest([]*news.ClassifiedItem{it}, date)
			if len(msgs) != 1 {
				t.Fatalf("got %d messages, want 1", len(msgs))
			}
			if n := utf8.RuneCountInString(msgs[0]); n > MaxMessageChars {
				t.Errorf("message has %d chars, limit is %d", n, MaxMessageChars)
			}
			if utf8.RuneCountInString(tt.title) > maxTitleChars && !strings.Contains(msgs[0], "...") {
				t.Errorf("long title should be marked as cut")
			}
			if utf8.RuneCountInString(tt.url) > maxURLChars && strings.Contains(msgs[0], "href") {
				t.Errorf("oversized url should not be linked")
			}
			hasSummary := strings.Contains(msgs[0], html.EscapeString(shorten(tt.summary, maxSummaryChars, true)))
			if hasSummary != tt.wantSummary {
				t.Errorf("summary present = %v, want %v", hasSummary, tt.wantSummary)
			}
		})
	}
}

type fakeAPI struct {
	mu       sync.Mutex
	statuses []int
	texts    []string
	calls    int
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)

		f.mu.Lock()
		defer f.mu.Unlock()
		status := http.StatusOK
		if f.calls < len(f.statuses) {
			status = f.statuses[f.calls]
		}
		f.calls++
		if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
			t.Errorf("unexpected payload %v", payload)
		}
		if status == http.StatusOK {
			f.texts = append(f.texts, payload["text"].(string))
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":false,"description":"nope"}`))
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	c, err := New(config.TelegramConfig{Token: "TOKEN", ChatID: "42"}, retry.RetryConfig{MaxAttempts: 3}, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return c.WithBaseURL(srv.URL)
}

func TestSendMessage(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		api := &fakeAPI{statuses: []int{http.StatusBadGateway, http.StatusOK}}
		if err := newTestClient(t, api).SendMessage(context.Background(), "hello"); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
		if api.calls != 2 || len(api.texts) != 1 {
			t.Errorf("calls = %d, delivered = %d", api.calls, len(api.texts))
		}
	})

	t.Run("client error is permanent", func(t *testing.T) {
		api := &fakeAPI{statuses: []int{http.StatusBadRequest, http.StatusOK}}
		err := newTestClient(t, api).SendMessage(context.Background(), "hello")
		if err == nil || !strings.Contains(err.Error(), "nope") {
			t.Fatalf("expected the API description in the error, got %v", err)
		}
		if api.calls != 1 {
			t.Errorf("calls = %d, want 1", api.calls)
		}
	})
}

func TestSendDigest(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)
	n, err := c.SendDigest(context.Background(), []*news.ClassifiedItem{digestItem(1, "One."), digestItem(2, "Two.")}, time.Now())
	if err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if n != 1 || len(api.texts) != 1 {
		t.Errorf("sent %d messages, api got %d", n, len(api.texts))
	}

	if _, err := New(config.TelegramConfig{Token: "x"}, retry.RetryConfig{}, nil); err == nil {
		t.Errorf("expected an error without a chat ID")
	}
}

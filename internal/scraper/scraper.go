package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ArticleContent is the readable part of an article page.
type ArticleContent struct {
	Title   string
	Content string
	URL     string
}

// "The post X appeared first on Y." trailers added by WordPress feeds.
var appearedFirst = regexp.MustCompile(`(?i)the post .{0,200}? appeared first on .{0,100}?\.?\s*$`)

var junkPhrases = []string{
	"Read more", "Continue reading", "Click here to", "Subscribe to our newsletter",
	"Sign up for", "Follow us on", "Share this article", "Advertisement",
	"Cookie", "Privacy Policy", "Log in",
}

// HTMLToText turns a feed description or page fragment into plain text.
// Scripts, styles and embeds are dropped and whitespace is collapsed.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return cleanContent(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanContent(fragment)
	}
	doc.Find("script, style, iframe, noscript, figure, img, video").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return cleanContent(doc.Text())
}

type Scraper struct {
	client *http.Client
	logger *slog.Logger
}

func New(timeout time.Duration, logger *slog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "scraper"),
	}
}

// ExtractArticle downloads url and returns its title and body text.
func (s *Scraper) ExtractArticle(ctx context.Context, url string) (*ArticleContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "musicnews/1.0 (+https://github.com/deusflow/musicnews)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	content := extractContent(doc)
	if content == "" {
		return nil, fmt.Errorf("can't get content from %s", url)
	}
	s.logger.Debug("article extracted", "url", url, "chars", len(content))
	return &ArticleContent{
		Title:   extractTitle(doc),
		Content: content,
		URL:     url,
	}, nil
}

// Lead returns the first paragraphs of the article, at most maxChars long.
func (s *Scraper) Lead(ctx context.Context, url string, maxChars int) (string, error) {
	article, err := s.ExtractArticle(ctx, url)
	if err != nil {
		return "", err
	}
	text := article.Content
	if maxChars > 0 && len(text) > maxChars {
		cut := text[:maxChars]
		if i := strings.LastIndex(cut, ". "); i > maxChars/3 {
			cut = cut[:i+1]
		}
		text = strings.TrimSpace(cut)
	}
	return text, nil
}

// extractContent tries the body selectors used by the music outlets we
// follow, then generic article markup.
func extractContent(doc *goquery.Document) string {
	selectors := []string{
		".c-content p",       // Billboard, Rolling Stone, Variety
		".body-text p",       // Pitchfork
		".article-body p",    // NME, Stereogum
		".entry-content p",   // WordPress outlets
		".post-content p",
		"article p",
		"main p",
		"p",
	}

	doc.Find("script, style, aside, nav, footer, figure").Remove()

	var paragraphs []string
	for _, selector := range selectors {
		var found []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				found = append(found, text)
			}
		})
		if len(found) > len(paragraphs) {
			paragraphs = found
		}
		if len(paragraphs) >= 3 {
			break
		}
	}
	return cleanContent(strings.Join(paragraphs, "\n\n"))
}

func extractTitle(doc *goquery.Document) string {
	selectors := []string{
		"h1",
		`meta[property="og:title"]`,
		"title",
	}

	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			title, _ = sel.Attr("content")
			title = strings.TrimSpace(title)
		}
		if title != "" {
			return title
		}
	}
	return ""
}

func cleanContent(content string) string {
	if content == "" {
		return ""
	}
	content = strings.ReplaceAll(content, "\u00a0", " ")
	content = appearedFirst.ReplaceAllString(strings.TrimSpace(content), "")
	for _, phrase := range junkPhrases {
		content = strings.ReplaceAll(content, phrase, "")
	}
	// Descriptions are a single paragraph downstream.
	return strings.Join(strings.Fields(content), " ")
}

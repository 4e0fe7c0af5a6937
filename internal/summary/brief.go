package summary

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/musicnews/internal/news"
)

const briefMaxRunes = 200

type briefRule struct {
	words    []string
	template string
}

// Checked in order against the lower-cased title.
var briefRules = []briefRule{
	{[]string{"album", " ep ", "ep,"}, "%s has news about a new album."},
	{[]string{"single", "song", "track"}, "%s has released new music."},
	{[]string{"tour", "concert", "live", "festival"}, "%s has announced live dates."},
	{[]string{"chart", "number one", "no. 1", "top"}, "%s made a notable chart move."},
	{[]string{"deal", "signs", "contract", "label"}, "%s has signed a new deal."},
}

// Brief builds an extractive summary from the item itself: who the story is
// about, what happened and the lead sentence of the description. It never
// calls out and never fails on a non-empty title.
type Brief struct{}

func (Brief) Summarize(_ context.Context, item *news.ClassifiedItem) (string, error) {
	n := item.Item
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return "", ErrEmptySummary
	}

	who := subject(n)
	lower := " " + strings.ToLower(title) + " "
	what := ""
	for _, rule := range briefRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				what = fmt.Sprintf(rule.template, who)
				break
			}
		}
		if what != "" {
			break
		}
	}
	if what == "" {
		what = title
	}

	parts := []string{Finish(what, 0)}
	if lead := leadSentence(n.Description); lead != "" && !strings.EqualFold(lead, title) {
		parts = append(parts, Finish(lead, 0))
	}
	if n.PublishedAt != nil {
		parts = append(parts, fmt.Sprintf("Reported %s.", n.PublishedAt.UTC().Format("Jan 2, 2006")))
	}
	return Finish(strings.Join(parts, " "), briefMaxRunes), nil
}

// subject prefers a named entity found in the title, keeping the title's
// own casing, then falls back to the first word.
func subject(n *news.NormalizedItem) string {
	candidates := append(append([]string{}, n.HighProfile...), n.Entities...)
	for _, e := range candidates {
		if e == "" {
			continue
		}
		if start, end := indexFold(n.Title, e); start >= 0 {
			return n.Title[start:end]
		}
	}
	if fields := strings.Fields(n.Title); len(fields) > 0 {
		return strings.Trim(fields[0], ",:;'\"")
	}
	return "The artist"
}

// indexFold finds substr in s ignoring case and returns the byte range of
// the match in s, or -1, -1.
func indexFold(s, substr string) (int, int) {
	width := utf8.RuneCountInString(substr)
	for start := range s {
		end, runes := start, 0
		for end < len(s) && runes < width {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			runes++
		}
		if runes < width {
			break
		}
		if strings.EqualFold(s[start:end], substr) {
			return start, end
		}
	}
	return -1, -1
}

func leadSentence(desc string) string {
	desc = strings.Join(strings.Fields(desc), " ")
	if i := strings.Index(desc, ". "); i >= 0 {
		desc = desc[:i+1]
	}
	return strings.TrimSpace(desc)
}

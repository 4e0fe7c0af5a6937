// Package extract pulls entity-like spans and vocabulary keywords out of
// headline text.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

const (
	minQuotedRunes = 2
	maxQuotedRunes = 50
	maxSpanTokens  = 3
)

// A single quote must open after a boundary and close before one, so the
// apostrophe in "Swift's" does not start a match.
var quotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`“([^”]+)”`),
	regexp.MustCompile(`‘([^’]+)’`),
	regexp.MustCompile(`(?:^|[\s(\[])'([^']+)'(?:$|[\s,.;:!?)\]])`),
}

// Extractor finds entities, high-profile names and core keywords.
type Extractor struct {
	highProfile *news.Matcher
	breakers    map[string]struct{}
	generic     map[string]struct{}
	actions     *news.Matcher
	nouns       *news.Matcher
}

func New(cfg config.ExtractionConfig) *Extractor {
	e := &Extractor{
		highProfile: news.NewMatcher(cfg.HighProfileEntities),
		breakers:    make(map[string]struct{}),
		generic:     make(map[string]struct{}),
		actions:     news.NewMatcher(cfg.ActionVerbs),
		nouns:       news.NewMatcher(cfg.DomainNouns),
	}
	for _, list := range [][]string{cfg.HeadlineStopwords, cfg.ActionVerbs, cfg.DomainNouns} {
		for _, w := range list {
			e.breakers[strings.ToLower(w)] = struct{}{}
		}
	}
	for _, p := range cfg.GenericPhrases {
		e.generic[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return e
}

// Entities returns quoted phrases, capitalized spans and known high-profile
// names found in the text, lower-cased, sorted and de-duplicated.
func (e *Extractor) Entities(title, description string) []string {
	text := title + "\n" + description
	set := make(map[string]struct{})

	for _, q := range quoted(text) {
		set[q] = struct{}{}
	}
	for _, part := range []string{title, description} {
		for _, span := range e.capitalizedSpans(part) {
			set[span] = struct{}{}
		}
	}
	for _, hp := range e.highProfile.Matches(text) {
		set[hp] = struct{}{}
	}
	return sortedKeys(set)
}

// HighProfile returns only the configured high-profile names present.
func (e *Extractor) HighProfile(title, description string) []string {
	found := e.highProfile.Matches(title + "\n" + description)
	sort.Strings(found)
	return found
}

// CoreKeywords is the entity set plus action verbs and domain nouns.
func (e *Extractor) CoreKeywords(title, description string, entities []string) []string {
	text := title + "\n" + description
	set := make(map[string]struct{}, len(entities))
	for _, ent := range entities {
		set[ent] = struct{}{}
	}
	for _, k := range e.actions.Matches(text) {
		set[k] = struct{}{}
	}
	for _, k := range e.nouns.Matches(text) {
		set[k] = struct{}{}
	}
	return sortedKeys(set)
}

func quoted(text string) []string {
	var out []string
	for _, re := range quotePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			q := strings.TrimSpace(m[1])
			n := utf8.RuneCountInString(q)
			if n < minQuotedRunes || n > maxQuotedRunes {
				continue
			}
			out = append(out, strings.ToLower(q))
		}
	}
	return out
}

// capitalizedSpans walks the text word by word and collects runs of
// capitalized words. Headline stopwords, vocabulary words and punctuation
// end a run; runs are cut into chunks of at most three words and single
// words are dropped.
func (e *Extractor) capitalizedSpans(text string) []string {
	var (
		spans []string
		run   []string
	)
	flush := func() {
		for len(run) > 0 {
			n := len(run)
			if n > maxSpanTokens {
				n = maxSpanTokens
			}
			if n >= 2 {
				span := strings.ToLower(strings.Join(run[:n], " "))
				if _, generic := e.generic[span]; !generic {
					spans = append(spans, span)
				}
			}
			run = run[n:]
		}
	}

	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, isEdgePunct)
		if word == "" || !startsUpper(word) {
			flush()
			continue
		}
		if _, stop := e.breakers[strings.ToLower(word)]; stop {
			flush()
			continue
		}
		run = append(run, word)
		// Trailing punctuation such as "Swift," closes the run after this word.
		if last, _ := utf8.DecodeLastRuneInString(field); isEdgePunct(last) {
			flush()
		}
	}
	flush()
	return spans
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func isEdgePunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

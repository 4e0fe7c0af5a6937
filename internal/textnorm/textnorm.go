// Package textnorm canonicalizes titles and URLs so that independently
// published copies of a story compare equal.
package textnorm

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/deusflow/musicnews/internal/config"
)

var duplicateSlashes = regexp.MustCompile(`/{2,}`)

// Normalizer cleans titles and URLs for comparison.
type Normalizer struct {
	boilerplate map[string]struct{}
	allowed     map[rune]struct{}
	queryAllow  map[string]struct{}
}

func New(cfg config.NormalizerConfig) *Normalizer {
	n := &Normalizer{
		boilerplate: make(map[string]struct{}, len(cfg.BoilerplateWords)),
		allowed:     make(map[rune]struct{}),
		queryAllow:  make(map[string]struct{}, len(cfg.URLQueryAllowList)),
	}
	for _, w := range cfg.BoilerplateWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			n.boilerplate[w] = struct{}{}
		}
	}
	for _, r := range cfg.AllowedPunctuation {
		n.allowed[r] = struct{}{}
	}
	for _, q := range cfg.URLQueryAllowList {
		n.queryAllow[strings.ToLower(q)] = struct{}{}
	}
	return n
}

// Text folds case, drops characters outside the allow-list, collapses
// whitespace and strips boilerplate words from both ends. Applying it twice
// gives the same result as applying it once.
func (n *Normalizer) Text(s string) string {
	// cases.Caser keeps state, so each call gets its own.
	s = norm.NFKC.String(cases.Fold().String(norm.NFKC.String(s)))

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		if _, ok := n.allowed[r]; ok {
			return r
		}
		return ' '
	}, s)

	var tokens []string
	for _, tok := range strings.Fields(mapped) {
		// Allowed punctuation only survives inside a word ("k-pop", "r&b").
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}

	for len(tokens) > 0 && n.isBoilerplate(tokens[0]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && n.isBoilerplate(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func (n *Normalizer) isBoilerplate(tok string) bool {
	_, ok := n.boilerplate[tok]
	return ok
}

// URL returns host+path(+allowed query) in lower case with the scheme,
// "www.", fragment and redundant slashes removed.
func (n *Normalizer) URL(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err == nil && u.Host == "" && !strings.Contains(raw, "://") {
		u, err = url.Parse("http://" + raw)
	}
	if err != nil || u.Host == "" {
		// Scheme-less or broken input still gets the string-level cleanup.
		s := raw
		if i := strings.Index(s, "://"); i >= 0 {
			s = s[i+3:]
		}
		s = strings.TrimPrefix(s, "//")
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimPrefix(s, "www.")
		s = duplicateSlashes.ReplaceAllString(s, "/")
		return strings.TrimRight(s, "/")
	}

	host := strings.TrimPrefix(u.Host, "www.")
	path := duplicateSlashes.ReplaceAllString(u.EscapedPath(), "/")
	path = strings.TrimRight(path, "/")

	var kept []string
	for key, values := range u.Query() {
		if _, ok := n.queryAllow[key]; !ok {
			continue
		}
		for _, v := range values {
			kept = append(kept, url.QueryEscape(key)+"="+url.QueryEscape(v))
		}
	}
	sort.Strings(kept)

	out := host + path
	if len(kept) > 0 {
		out += "?" + strings.Join(kept, "&")
	}
	return out
}

package news

import (
	"regexp"
	"strings"
)

// Matcher finds dictionary keywords in free text, case-insensitively.
//
// Phrases and keywords longer than three bytes match as substrings. Short
// keywords must stand as whole words, otherwise "ai" would match "said" and
// "us" would match "music".
type Matcher struct {
	terms []term
}

type term struct {
	keyword string
	re      *regexp.Regexp // nil for substring terms
}

func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true

		t := term{keyword: k}
		if !strings.Contains(k, " ") && len(k) <= 3 {
			t.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
		}
		m.terms = append(m.terms, t)
	}
	return m
}

// Matches returns the matched keywords in dictionary order.
func (m *Matcher) Matches(text string) []string {
	text = strings.ToLower(text)
	var found []string
	for _, t := range m.terms {
		if t.match(text) {
			found = append(found, t.keyword)
		}
	}
	return found
}

func (m *Matcher) Count(text string) int {
	return len(m.Matches(text))
}

func (m *Matcher) Any(text string) bool {
	text = strings.ToLower(text)
	for _, t := range m.terms {
		if t.match(text) {
			return true
		}
	}
	return false
}

func (t term) match(lowered string) bool {
	if t.re != nil {
		return t.re.MatchString(lowered)
	}
	return strings.Contains(lowered, t.keyword)
}

package summary

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	disclaimerLine   = regexp.MustCompile(`(?i)^\s*(note|disclaimer)\s*:`)
	disclaimerParens = regexp.MustCompile(`(?i)\((note|disclaimer)\s*:[^)]*\)`)
	disclaimerSquare = regexp.MustCompile(`(?i)\[(note|disclaimer)\s*:[^\]]*\]`)
	labelPrefix      = regexp.MustCompile(`(?i)^\s*(summary|tl;dr)\s*[:：]\s*`)
	spaces           = regexp.MustCompile(`\s+`)
)

// SanitizeAIText removes model disclaimers and labels from generated text
// and collapses whitespace.
func SanitizeAIText(s string) string {
	s = disclaimerParens.ReplaceAllString(s, " ")
	s = disclaimerSquare.ReplaceAllString(s, " ")

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if disclaimerLine.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(labelPrefix.ReplaceAllString(line, ""))
		if line != "" {
			kept = append(kept, line)
		}
	}

	out := spaces.ReplaceAllString(strings.Join(kept, " "), " ")
	return strings.Trim(strings.TrimSpace(out), "\"'“”‘’")
}

// Finish ends text with a period and keeps it within maxRunes, cutting at
// a sentence boundary when one is available.
func Finish(text string, maxRunes int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	sentences := strings.SplitAfter(text, ". ")
	var b strings.Builder
	for _, sentence := range sentences {
		if utf8.RuneCountInString(b.String()+sentence) > maxRunes {
			break
		}
		b.WriteString(sentence)
	}
	if out := strings.TrimSpace(b.String()); out != "" {
		return out
	}

	runes := []rune(text)
	if maxRunes < 4 {
		return string(runes[:maxRunes])
	}
	return strings.TrimSpace(string(runes[:maxRunes-3])) + "..."
}

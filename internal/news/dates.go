package news

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateParser turns feed date strings into timestamps. Configured layouts are
// tried first; the free-form parser is the last resort.
type DateParser struct {
	layouts []string
}

func NewDateParser(layouts []string) *DateParser {
	return &DateParser{layouts: layouts}
}

func (p *DateParser) Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range p.layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Resolve prefers a collector-parsed timestamp and falls back to parsing the
// raw text. It returns nil when no usable date exists.
func (p *DateParser) Resolve(raw RawItem) *time.Time {
	if raw.PublishedParsed != nil && !raw.PublishedParsed.IsZero() {
		t := *raw.PublishedParsed
		return &t
	}
	if t, ok := p.Parse(raw.Published); ok {
		return &t
	}
	return nil
}

// SourceKey reduces a source name or URL to the form used in lookup tables:
// lower-case host without scheme, "www." or path.
func SourceKey(source string) string {
	s := strings.ToLower(strings.TrimSpace(source))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}

package news

import (
	"errors"
	"time"
)

// ErrNothingToProcess is returned when a batch contains no records at all.
var ErrNothingToProcess = errors.New("nothing to process")

// RawItem is a record as handed over by a collector.
type RawItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	// Published is the date text exactly as the feed carried it.
	Published string `json:"published,omitempty"`
	// PublishedParsed is set when the collector already parsed the date.
	PublishedParsed *time.Time `json:"published_at,omitempty"`
}

// NormalizedItem is a RawItem annotated for comparison. It is built once per
// raw record and treated as read-only afterwards.
type NormalizedItem struct {
	RawItem

	ID    string
	Index int // position in the input batch

	NormalizedTitle string
	NormalizedURL   string
	TitleTokens     []string // sorted, unique, stopwords removed
	Entities        []string // sorted, unique, lower-case
	HighProfile     []string // subset of Entities from the high-profile list
	CoreKeywords    []string // sorted, unique
	Fingerprint     uint64   // 0 when the item carries no usable tokens

	// PublishedAt is nil when the date was missing or unparsable.
	PublishedAt *time.Time
}

// Category is the editorial class of an item.
type Category string

const (
	CategoryNews      Category = "NEWS"
	CategoryReport    Category = "REPORT"
	CategoryInsight   Category = "INSIGHT"
	CategoryInterview Category = "INTERVIEW"
	CategoryColumn    Category = "COLUMN"
)

// AllCategories returns every category in canonical priority order.
func AllCategories() []Category {
	return []Category{CategoryNews, CategoryReport, CategoryInsight, CategoryInterview, CategoryColumn}
}

func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Tags are the labels of an item per dimension.
type Tags struct {
	Genre    []string `json:"genre"`
	Industry []string `json:"industry"`
	Region   []string `json:"region"`
}

// EmptyTags has non-nil slices so that JSON output always carries arrays.
func EmptyTags() Tags {
	return Tags{Genre: []string{}, Industry: []string{}, Region: []string{}}
}

// ScoreBreakdown keeps the importance sub-scores, each within [0,1].
type ScoreBreakdown struct {
	Credibility float64 `json:"credibility"`
	Keywords    float64 `json:"keywords"`
	Subject     float64 `json:"subject"`
	Activity    float64 `json:"activity"`
	Recency     float64 `json:"recency"`
	Social      float64 `json:"social"`
}

// ClassifiedItem is a cluster representative after classification and
// scoring. Fallback is set when enrichment failed and defaults were used.
type ClassifiedItem struct {
	Item       *NormalizedItem
	Category   Category
	Tags       Tags
	Importance float64
	Trending   *float64
	Breakdown  ScoreBreakdown

	// Summary is filled in by a summarizer after ranking.
	Summary string

	Fallback       bool
	FallbackReason string
}

// TrendingOr returns the trending score, or def when it was not computed.
func (c ClassifiedItem) TrendingOr(def float64) float64 {
	if c.Trending == nil {
		return def
	}
	return *c.Trending
}

// Skip describes a raw record excluded before normalization.
type Skip struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Package classify assigns a category and tag sets to deduplicated items.
package classify

import (
	"strings"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

type rule struct {
	category news.Category
	matcher  *news.Matcher
}

// Classifier votes by keyword count. Rules keep their configured order,
// which also breaks ties.
type Classifier struct {
	rules []rule
}

func NewClassifier(cfg config.ClassifierConfig) *Classifier {
	c := &Classifier{}
	for _, r := range cfg.Categories {
		c.rules = append(c.rules, rule{
			category: news.Category(r.Name),
			matcher:  news.NewMatcher(r.Keywords),
		})
	}
	return c
}

// Classify returns the category with the most keyword hits in title and
// description. With no hits at all the item is NEWS.
func (c *Classifier) Classify(item *news.NormalizedItem) news.Category {
	text := item.Title + " " + item.Description

	best, bestScore := news.CategoryNews, 0
	for _, r := range c.rules {
		if score := r.matcher.Count(text); score > bestScore {
			best, bestScore = r.category, score
		}
	}
	return best
}

type dimension struct {
	matcher *news.Matcher
	labels  map[string]string
}

func newDimension(rules []config.TagRule) dimension {
	keywords := make([]string, 0, len(rules))
	labels := make(map[string]string, len(rules))
	for _, r := range rules {
		k := strings.ToLower(strings.TrimSpace(r.Keyword))
		if _, ok := labels[k]; ok || k == "" {
			continue
		}
		labels[k] = r.Label
		keywords = append(keywords, k)
	}
	return dimension{matcher: news.NewMatcher(keywords), labels: labels}
}

// extract returns distinct labels in rule order, at most limit of them.
func (d dimension) extract(text string, limit int) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, kw := range d.matcher.Matches(text) {
		label := d.labels[kw]
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Tagger assigns genre, industry and region labels.
type Tagger struct {
	genre    dimension
	industry dimension
	region   dimension
	limit    int
}

func NewTagger(cfg config.TagsConfig) *Tagger {
	return &Tagger{
		genre:    newDimension(cfg.Genre),
		industry: newDimension(cfg.Industry),
		region:   newDimension(cfg.Region),
		limit:    cfg.MaxTagsPerDimension,
	}
}

// Tags matches the dictionaries against title, description and URL.
// Region is only consulted when neither genre nor industry matched.
func (t *Tagger) Tags(item *news.NormalizedItem) news.Tags {
	text := item.Title + " " + item.Description + " " + item.URL

	tags := news.EmptyTags()
	tags.Genre = t.genre.extract(text, t.limit)
	tags.Industry = t.industry.extract(text, t.limit)
	if len(tags.Genre) == 0 && len(tags.Industry) == 0 {
		tags.Region = t.region.extract(text, t.limit)
	}
	return tags
}

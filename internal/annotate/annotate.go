// Package annotate turns raw collector records into comparable
// NormalizedItems.
package annotate

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/extract"
	"github.com/deusflow/musicnews/internal/news"
	"github.com/deusflow/musicnews/internal/similarity"
	"github.com/deusflow/musicnews/internal/textnorm"
)

// Annotator builds normalized items from raw records.
type Annotator struct {
	normalizer *textnorm.Normalizer
	extractor  *extract.Extractor
	scorer     *similarity.Scorer
	dates      *news.DateParser
}

func New(cfg *config.Config) *Annotator {
	return &Annotator{
		normalizer: textnorm.New(cfg.Normalizer),
		extractor:  extract.New(cfg.Extraction),
		scorer:     similarity.New(cfg.Similarity),
		dates:      news.NewDateParser(cfg.DateLayouts),
	}
}

// Scorer exposes the similarity scorer the annotator fingerprints with, so
// the detector compares with the same stopwords and weights.
func (a *Annotator) Scorer() *similarity.Scorer {
	return a.scorer
}

func (a *Annotator) Annotate(index int, raw news.RawItem) *news.NormalizedItem {
	title := strings.TrimSpace(raw.Title)
	desc := strings.TrimSpace(raw.Description)

	normTitle := a.normalizer.Text(title)
	tokens := a.scorer.TitleTokens(normTitle)
	entities := a.extractor.Entities(title, desc)
	keywords := a.extractor.CoreKeywords(title, desc, entities)

	item := &news.NormalizedItem{
		RawItem:         raw,
		Index:           index,
		NormalizedTitle: normTitle,
		NormalizedURL:   a.normalizer.URL(raw.URL),
		TitleTokens:     tokens,
		Entities:        entities,
		HighProfile:     a.extractor.HighProfile(title, desc),
		CoreKeywords:    keywords,
		Fingerprint:     a.scorer.Fingerprint(keywords, tokens),
		PublishedAt:     a.dates.Resolve(raw),
	}
	item.ID = itemID(item)
	return item
}

// itemID is stable across runs for the same story from the same outlet.
func itemID(item *news.NormalizedItem) string {
	key := item.NormalizedURL + "|" + news.SourceKey(item.Source) + "|" + item.NormalizedTitle
	return strconv.FormatUint(xxhash.Sum64String(key), 16)
}

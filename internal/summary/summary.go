// Package summary writes short English summaries for ranked items.
package summary

import (
	"context"
	"errors"
	"log/slog"

	"github.com/deusflow/musicnews/internal/metrics"
	"github.com/deusflow/musicnews/internal/news"
)

// ErrEmptySummary is returned when a summarizer produced nothing usable.
var ErrEmptySummary = errors.New("empty summary")

type Summarizer interface {
	Summarize(ctx context.Context, item *news.ClassifiedItem) (string, error)
}

// Chain tries each summarizer in order and returns the first success.
type Chain []Summarizer

func (c Chain) Summarize(ctx context.Context, item *news.ClassifiedItem) (string, error) {
	var errs []error
	for _, s := range c {
		out, err := s.Summarize(ctx, item)
		if err == nil && out != "" {
			return out, nil
		}
		if err == nil {
			err = ErrEmptySummary
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrEmptySummary
	}
	return "", errors.Join(errs...)
}

// Attach fills Summary on the first limit items. Failures leave the field
// empty and are logged; they never abort the run.
func Attach(ctx context.Context, s Summarizer, items []*news.ClassifiedItem, limit int, logger *slog.Logger, m *metrics.Metrics) int {
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	done := 0
	for _, it := range items[:limit] {
		if ctx.Err() != nil {
			break
		}
		text, err := s.Summarize(ctx, it)
		if err != nil {
			logger.Warn("summary failed", "item", it.Item.ID, "error", err)
			if m != nil {
				m.IncrementFailedSummaries()
			}
			continue
		}
		it.Summary = text
		done++
		if m != nil {
			m.IncrementSummaries()
		}
	}
	return done
}

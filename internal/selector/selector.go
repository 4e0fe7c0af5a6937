// Package selector ranks classified items and cuts them down to the
// published set. Equal keys keep their input order.
package selector

import (
	"sort"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/news"
)

// Key extracts the ranking value of an item.
type Key func(*news.ClassifiedItem) float64

func ByImportance(c *news.ClassifiedItem) float64 {
	return c.Importance
}

// ByTrending falls back to importance for items without a trending score.
func ByTrending(c *news.ClassifiedItem) float64 {
	return c.TrendingOr(c.Importance)
}

func KeyFor(rankBy string) Key {
	if rankBy == config.RankByTrending {
		return ByTrending
	}
	return ByImportance
}

// PerCategory keeps the top n of every category, then ranks the union.
func PerCategory(items []*news.ClassifiedItem, n int, key Key) []*news.ClassifiedItem {
	if n <= 0 || len(items) == 0 {
		return nil
	}

	groups := make(map[news.Category][]*news.ClassifiedItem)
	for _, it := range items {
		groups[it.Category] = append(groups[it.Category], it)
	}

	keep := make(map[*news.ClassifiedItem]bool, len(items))
	for _, group := range groups {
		for _, it := range top(group, n, key) {
			keep[it] = true
		}
	}

	out := make([]*news.ClassifiedItem, 0, len(keep))
	for _, it := range items {
		if keep[it] {
			out = append(out, it)
		}
	}
	rank(out, key)
	return out
}

// Global ranks everything together and keeps the first n.
func Global(items []*news.ClassifiedItem, n int, key Key) []*news.ClassifiedItem {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	return top(items, n, key)
}

// Select applies the configured mode.
func Select(items []*news.ClassifiedItem, cfg config.SelectionConfig) []*news.ClassifiedItem {
	key := KeyFor(cfg.RankBy)
	if cfg.Mode == config.ModeGlobal {
		return Global(items, cfg.Limit, key)
	}
	return PerCategory(items, cfg.PerCategory, key)
}

func top(items []*news.ClassifiedItem, n int, key Key) []*news.ClassifiedItem {
	sorted := make([]*news.ClassifiedItem, len(items))
	copy(sorted, items)
	rank(sorted, key)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func rank(items []*news.ClassifiedItem, key Key) {
	sort.SliceStable(items, func(i, j int) bool {
		return key(items[i]) > key(items[j])
	})
}

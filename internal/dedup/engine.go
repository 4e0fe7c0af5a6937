package dedup

import (
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/musicnews/internal/news"
)

// Cluster groups items judged to report the same event.
type Cluster struct {
	Representative *news.NormalizedItem
	// Members holds every item of the cluster, representative included, in
	// batch order.
	Members []*news.NormalizedItem
}

// Decision records one positive verdict taken during the greedy pass.
type Decision struct {
	Candidate *news.NormalizedItem
	Matched   []*news.NormalizedItem // representatives the candidate matched
	Verdict   Verdict                // verdict against the first match
	Winner    *news.NormalizedItem
	Reason    Reason
}

// Result is the outcome of one Deduplicate call.
type Result struct {
	Clusters  []*Cluster
	Decisions []Decision
}

// MergesByRule counts the merge decisions by the rule that fired first.
func (r *Result) MergesByRule() map[string]int {
	out := make(map[string]int)
	for _, d := range r.Decisions {
		out[d.Verdict.Rule.String()]++
	}
	return out
}

// Representatives returns the surviving item of every cluster in slot order.
func (r *Result) Representatives() []*news.NormalizedItem {
	out := make([]*news.NormalizedItem, len(r.Clusters))
	for i, c := range r.Clusters {
		out[i] = c.Representative
	}
	return out
}

// Removed is the number of items that did not survive.
func (r *Result) Removed() int {
	total := 0
	for _, c := range r.Clusters {
		total += len(c.Members)
	}
	return total - len(r.Clusters)
}

// Engine clusters a batch with a greedy pass over the items.
type Engine struct {
	detector          *Detector
	resolver          *Resolver
	workers           int
	parallelThreshold int
	logger            *slog.Logger
}

// NewEngine builds an engine. With more than one worker, batches of at least
// parallelThreshold items have their pair matrix computed concurrently.
func NewEngine(detector *Detector, resolver *Resolver, workers, parallelThreshold int, logger *slog.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		detector:          detector,
		resolver:          resolver,
		workers:           workers,
		parallelThreshold: parallelThreshold,
		logger:            logger.With("component", "dedup"),
	}
}

// Deduplicate makes one greedy pass over items in order. Each item is
// compared with every accepted representative; clusters it matches are
// merged and the resolver picks the surviving representative. Accepted
// representatives stay pairwise non-duplicate throughout.
func (e *Engine) Deduplicate(items []*news.NormalizedItem) *Result {
	pos := make(map[*news.NormalizedItem]int, len(items))
	for i, it := range items {
		pos[it] = i
	}

	compare := e.detector.Compare
	if e.workers > 1 && len(items) >= e.parallelThreshold && len(items) > 1 {
		m := e.precompute(items)
		compare = func(a, b *news.NormalizedItem) Verdict {
			return m.get(pos[a], pos[b])
		}
	}

	res := &Result{}
	for _, cand := range items {
		var (
			matched []int
			first   Verdict
		)
		for ci, cl := range res.Clusters {
			v := compare(cl.Representative, cand)
			if !v.Duplicate {
				continue
			}
			if len(matched) == 0 {
				first = v
			}
			matched = append(matched, ci)
		}

		if len(matched) == 0 {
			res.Clusters = append(res.Clusters, &Cluster{
				Representative: cand,
				Members:        []*news.NormalizedItem{cand},
			})
			continue
		}

		target := res.Clusters[matched[0]]
		rep := target.Representative
		reps := []*news.NormalizedItem{rep}
		var reason Reason
		for _, ci := range matched[1:] {
			other := res.Clusters[ci]
			reps = append(reps, other.Representative)
			r := e.resolver.Resolve(rep, other.Representative)
			rep = r.Winner
			target.Members = append(target.Members, other.Members...)
		}
		r := e.resolver.Resolve(rep, cand)
		rep, reason = r.Winner, r.Reason
		target.Members = append(target.Members, cand)
		sort.SliceStable(target.Members, func(i, j int) bool {
			return pos[target.Members[i]] < pos[target.Members[j]]
		})
		target.Representative = rep

		if len(matched) > 1 {
			res.Clusters = removeClusters(res.Clusters, matched[1:])
		}

		res.Decisions = append(res.Decisions, Decision{
			Candidate: cand,
			Matched:   reps,
			Verdict:   first,
			Winner:    rep,
			Reason:    reason,
		})
		e.logger.Debug("duplicate merged",
			"candidate", cand.ID,
			"rule", first.Rule.String(),
			"title_similarity", first.Title,
			"matched", len(reps),
			"winner", rep.ID,
			"reason", string(reason),
		)
	}
	return res
}

func removeClusters(clusters []*Cluster, drop []int) []*Cluster {
	skip := make(map[int]bool, len(drop))
	for _, i := range drop {
		skip[i] = true
	}
	out := clusters[:0]
	for i, c := range clusters {
		if !skip[i] {
			out = append(out, c)
		}
	}
	return out
}

// verdictMatrix stores the upper triangle of all pairwise verdicts.
type verdictMatrix struct {
	n int
	v []Verdict
}

func (m *verdictMatrix) index(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*(2*m.n-i-1)/2 + (j - i - 1)
}

func (m *verdictMatrix) get(i, j int) Verdict {
	return m.v[m.index(i, j)]
}

// precompute fills the matrix row by row with bounded parallelism. Each
// comparison is independent, so the greedy pass over the matrix yields the
// same clusters as the sequential pass.
func (e *Engine) precompute(items []*news.NormalizedItem) *verdictMatrix {
	n := len(items)
	m := &verdictMatrix{n: n, v: make([]Verdict, n*(n-1)/2)}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := 0; i < n-1; i++ {
		i := i
		g.Go(func() error {
			for j := i + 1; j < n; j++ {
				m.v[m.index(i, j)] = e.detector.Compare(items[i], items[j])
			}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Debug("pairwise verdicts precomputed", "items", n, "pairs", len(m.v), "workers", e.workers)
	return m
}

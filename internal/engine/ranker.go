package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/voltlab/designdex/internal/domain/query"
	"github.com/voltlab/designdex/internal/domain/record"
)

// DefaultParallelThreshold is the corpus size above which candidates are
// scored on the worker pool instead of inline.
const DefaultParallelThreshold = 256

// Ranker scores every admitted candidate, orders them, and truncates to
// the requested result count. Output order is fully deterministic: score
// descending, record id ascending on ties.
type Ranker struct {
	scorer            *Scorer
	pool              *ants.Pool
	parallelThreshold int
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithPool sets a worker pool for scoring large corpora. Without a pool
// all scoring runs inline.
func WithPool(pool *ants.Pool) Option {
	return func(r *Ranker) { r.pool = pool }
}

// WithParallelThreshold sets the corpus size at which scoring moves to
// the pool. Values below 1 keep the default.
func WithParallelThreshold(n int) Option {
	return func(r *Ranker) {
		if n >= 1 {
			r.parallelThreshold = n
		}
	}
}

// NewRanker creates a ranker over the given scorer.
func NewRanker(scorer *Scorer, opts ...Option) *Ranker {
	r := &Ranker{scorer: scorer, parallelThreshold: DefaultParallelThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank evaluates the whole corpus against the query: bound-failing
// records are excluded, the rest are scored, sorted, and truncated to
// the query limit. The int reports how many candidates were actually
// scored (the admitted set; zero for bound-only queries, which score
// nothing). An empty corpus or an all-excluded corpus yields an empty
// slice, not an error. The borrowed corpus is never mutated.
func (r *Ranker) Rank(ctx context.Context, q *query.Query, corpus []record.DesignRecord) ([]ScoredResult, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("rank: %w", err)
	}

	admitted := make([]record.DesignRecord, 0, len(corpus))
	for _, rec := range corpus {
		if PassesBounds(q.Bounds(), rec) {
			admitted = append(admitted, rec)
		}
	}

	if q.BoundOnly() {
		return rankBoundOnly(q, admitted), 0, nil
	}

	var (
		results []ScoredResult
		err     error
	)
	if r.pool != nil && len(admitted) >= r.parallelThreshold {
		results, err = r.scoreParallel(q, admitted)
	} else {
		results, err = r.scoreSequential(q, admitted)
	}
	if err != nil {
		return nil, 0, err
	}

	// Scoring order is unspecified (records may have been scored on the
	// pool); the sort re-establishes determinism.
	sort.Slice(results, func(i, j int) bool {
		if results[i].OverallScore != results[j].OverallScore {
			return results[i].OverallScore > results[j].OverallScore
		}
		return results[i].Record.ID() < results[j].Record.ID()
	})

	if q.MinScore() > 0 {
		kept := results[:0]
		for _, res := range results {
			if res.OverallScore >= q.MinScore() {
				kept = append(kept, res)
			}
		}
		results = kept
	}

	if len(results) > q.Limit() {
		results = results[:q.Limit()]
	}
	return results, len(admitted), nil
}

func (r *Ranker) scoreSequential(q *query.Query, admitted []record.DesignRecord) ([]ScoredResult, error) {
	results := make([]ScoredResult, 0, len(admitted))
	for _, rec := range admitted {
		res, err := r.scorer.Score(q, rec)
		if err != nil {
			return nil, fmt.Errorf("score record %s: %w", rec.ID(), err)
		}
		results = append(results, res)
	}
	return results, nil
}

// scoreParallel fans candidate scoring out over the pool and joins before
// returning. Records are independent, so execution order does not matter.
func (r *Ranker) scoreParallel(q *query.Query, admitted []record.DesignRecord) ([]ScoredResult, error) {
	results := make([]ScoredResult, len(admitted))
	errs := make([]error, len(admitted))

	var wg sync.WaitGroup
	for i := range admitted {
		wg.Add(1)
		idx := i
		task := func() {
			defer wg.Done()
			res, err := r.scorer.Score(q, admitted[idx])
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = res
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool saturated or released; score inline rather than drop.
			task()
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("score record %s: %w", admitted[i].ID(), err)
		}
	}
	return results, nil
}

// rankBoundOnly handles queries that carry bounds but no targets: the
// filter is the whole search, so admitted records come back with a zero
// score, no details, in id order.
func rankBoundOnly(q *query.Query, admitted []record.DesignRecord) []ScoredResult {
	sort.Slice(admitted, func(i, j int) bool {
		return admitted[i].ID() < admitted[j].ID()
	})

	n := len(admitted)
	if n > q.Limit() {
		n = q.Limit()
	}
	results := make([]ScoredResult, 0, n)
	for _, rec := range admitted[:n] {
		results = append(results, ScoredResult{Record: rec})
	}
	return results
}

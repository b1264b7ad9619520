package search

import (
	"context"
	"fmt"
	"time"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
	"github.com/voltlab/designdex/internal/domain/query"
	"github.com/voltlab/designdex/internal/engine"
	"github.com/voltlab/designdex/internal/metrics"
)

// DefaultTextLimit is the result count for natural-language searches
// when the request omits one. Extracted queries are fuzzier than form
// input, so the default is tighter than query.DefaultLimit.
const DefaultTextLimit = 5

// Service handles design similarity search over the corpus snapshot.
type Service struct {
	table   *attribute.Table
	ranker  *engine.Ranker
	corpus  CorpusProvider
	extract Extractor
	opts    query.Options
}

// New creates a search service. extract may be nil when no extraction
// provider is configured; Search then rejects natural-language requests.
func New(
	table *attribute.Table, ranker *engine.Ranker,
	corpus CorpusProvider, extract Extractor, opts query.Options,
) *Service {
	return &Service{table: table, ranker: ranker, corpus: corpus, extract: extract, opts: opts}
}

// SearchForm ranks the corpus against an already-structured query, the
// path a search form or an external extractor feeds.
func (s *Service) SearchForm(ctx context.Context, raw query.Raw) ([]engine.ScoredResult, error) {
	q, err := query.New(s.table, raw, s.opts)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, &q)
}

// SearchText extracts parameters from a natural-language request and
// ranks the corpus against them. Returns the extracted parameters so the
// caller can show what was understood.
func (s *Service) SearchText(ctx context.Context, text string, limit int) (map[string]any, []engine.ScoredResult, error) {
	if s.extract == nil {
		return nil, nil, fmt.Errorf("%w: no extraction provider configured", domain.ErrExtractionFailed)
	}
	if limit == 0 {
		limit = DefaultTextLimit
	}

	params, err := s.extract.ExtractParameters(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("extract parameters: %w", err)
	}

	targets := pruneParams(params)
	if len(targets) == 0 {
		return nil, nil, fmt.Errorf(
			"%w: no transformer parameters found in request", domain.ErrInvalidQuery)
	}

	results, err := s.SearchForm(ctx, query.Raw{Targets: targets, Limit: limit})
	if err != nil {
		return nil, nil, err
	}
	return targets, results, nil
}

func (s *Service) rank(ctx context.Context, q *query.Query) ([]engine.ScoredResult, error) {
	corpus := s.corpus.Snapshot()

	start := time.Now()
	results, scored, err := s.ranker.Rank(ctx, q, corpus)
	metrics.RankDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RankRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RankRequestsTotal.WithLabelValues("success").Inc()
	metrics.RankCandidatesScored.Add(float64(scored))
	return results, nil
}

// pruneParams drops the empty and null-ish values language models tend
// to emit for parameters they did not find.
func pruneParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" || t == "null" {
				continue
			}
		}
		out[k] = v
	}
	return out
}

package engine

import (
	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
	"github.com/voltlab/designdex/internal/domain/query"
	"github.com/voltlab/designdex/internal/domain/record"
)

// Scorer computes the weighted similarity of one design record against
// a query across every participating attribute.
type Scorer struct {
	table *attribute.Table
	cmp   Comparator
}

// NewScorer creates a record scorer over the given attribute universe.
func NewScorer(table *attribute.Table, cmp Comparator) *Scorer {
	return &Scorer{table: table, cmp: cmp}
}

// Table returns the attribute universe the scorer resolves against.
func (s *Scorer) Table() *attribute.Table { return s.table }

// Score computes the weighted mean of per-attribute scores over the
// query's participating attributes. The mean keeps the overall score in
// [0,1] however many attributes the query names, and is invariant under
// target reordering. Details come out in attribute declaration order.
func (s *Scorer) Score(q *query.Query, rec record.DesignRecord) (ScoredResult, error) {
	specs := s.table.Participating(q.Targets())
	if len(specs) == 0 {
		return ScoredResult{}, domain.ErrEmptyQuery
	}

	details := make([]MatchDetail, 0, len(specs))
	var weightedSum, weightTotal float64

	for _, spec := range specs {
		queryValue := q.Targets()[spec.Name()]
		designValue := rec.Value(spec.Name())

		score, err := s.cmp.Compare(spec, queryValue, designValue)
		if err != nil {
			return ScoredResult{}, err
		}

		details = append(details, MatchDetail{
			Attribute:   spec.Name(),
			QueryValue:  queryValue,
			DesignValue: designValue,
			Score:       score,
		})
		weightedSum += spec.Weight() * score
		weightTotal += spec.Weight()
	}

	return ScoredResult{
		Record:       rec,
		OverallScore: weightedSum / weightTotal,
		Details:      details,
	}, nil
}

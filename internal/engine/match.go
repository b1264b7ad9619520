package engine

import (
	"github.com/voltlab/designdex/internal/domain/attribute"
	"github.com/voltlab/designdex/internal/domain/record"
)

// MatchDetail explains how one query attribute scored against one record.
// DesignValue is absent when the catalog has no data for the attribute.
type MatchDetail struct {
	Attribute   string
	QueryValue  attribute.Value
	DesignValue attribute.Value
	Score       float64
}

// ScoredResult is one ranked candidate with its per-attribute breakdown.
// Details are ordered by attribute declaration order, so two calls over
// the same query render identically.
type ScoredResult struct {
	Record       record.DesignRecord
	OverallScore float64
	Details      []MatchDetail
}

package engine

import (
	"fmt"
	"math"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
)

// DefaultNeutralScore is the score assigned when a queried attribute is
// absent from a record: incomplete catalog rows are neither rewarded nor
// punished. The policy is configurable because either extreme skews
// rankings on sparse catalogs.
const DefaultNeutralScore = 0.5

// Comparator scores a single (query value, design value) pair on a 0..1
// scale according to the attribute's kind and tolerance rule.
type Comparator struct {
	neutralScore float64
}

// NewComparator creates a comparator with the given neutral-absence score.
func NewComparator(neutralScore float64) (Comparator, error) {
	if neutralScore < 0 || neutralScore > 1 {
		return Comparator{}, fmt.Errorf("neutral score must be between 0 and 1, got %v", neutralScore)
	}
	return Comparator{neutralScore: neutralScore}, nil
}

// NeutralScore returns the score used for absent design values.
func (c Comparator) NeutralScore() float64 { return c.neutralScore }

// Compare scores one attribute pair. Absent design values score the
// neutral-absence score. A value whose runtime type contradicts the
// spec's declared kind aborts with ErrInvalidAttributeKind: that is a
// catalog or configuration defect, not something to coerce through.
func (c Comparator) Compare(spec attribute.Spec, query, design attribute.Value) (float64, error) {
	if design.IsAbsent() {
		return c.neutralScore, nil
	}

	switch spec.Kind() {
	case attribute.Numeric:
		if !query.IsNumber() || !design.IsNumber() {
			return 0, domain.NewFieldError(domain.ErrInvalidAttributeKind, spec.Name())
		}
		return compareNumeric(spec.Tolerance(), query.Number(), design.Number()), nil
	case attribute.Categorical:
		if !query.IsText() || !design.IsText() {
			return 0, domain.NewFieldError(domain.ErrInvalidAttributeKind, spec.Name())
		}
		if spec.SameClass(query.Text(), design.Text()) {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, domain.NewFieldError(domain.ErrInvalidAttributeKind, spec.Name())
	}
}

// compareNumeric maps the deviation between query and design onto [0,1]:
// zero deviation scores 1, deviation at the tolerance scores 0, linear
// in between. A zero tolerance degenerates to exact match.
func compareNumeric(tol attribute.Tolerance, query, design float64) float64 {
	span := tol.Value()
	if tol.Mode() == attribute.Relative && query != 0 {
		span = tol.Value() * math.Abs(query)
	}
	// query == 0 under a relative rule falls through with span = tol.Value(),
	// i.e. absolute semantics, avoiding division by zero.

	diff := math.Abs(query - design)
	if span == 0 {
		if diff == 0 {
			return 1
		}
		return 0
	}

	score := 1 - diff/span
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
)

// Query limits.
const (
	// DefaultLimit is the result count used when the request omits one.
	DefaultLimit = 10
	MaxLimit     = 100
)

// Raw is the unvalidated search input as a transport layer hands it over:
// a sparse attribute map from a form or a language-model extractor.
type Raw struct {
	Targets  map[string]any
	Bounds   map[string]any
	Limit    int
	MinScore float64
}

// Query is a validated, canonicalized search request.
// Targets express "close to"; bounds express "no more than".
type Query struct {
	targets  map[string]attribute.Value
	bounds   map[string]float64
	limit    int
	minScore float64
}

// Options tunes normalization policy.
type Options struct {
	// AllowBoundOnly admits queries that carry bounds but no targets.
	AllowBoundOnly bool
}

// New validates and canonicalizes a raw query against the attribute table.
// Unknown attribute names are rejected, never silently dropped. Numeric
// strings are coerced ("11000V", "4,75" are fine); garbage is not.
func New(table *attribute.Table, raw Raw, opts Options) (Query, error) {
	if len(raw.Targets) == 0 && len(raw.Bounds) == 0 {
		return Query{}, fmt.Errorf("%w: no targets and no bounds", domain.ErrInvalidQuery)
	}
	if len(raw.Targets) == 0 && !opts.AllowBoundOnly {
		return Query{}, fmt.Errorf("%w: bound-only queries are disabled", domain.ErrInvalidQuery)
	}
	if raw.Limit < 0 {
		return Query{}, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidQuery, raw.Limit)
	}
	if raw.MinScore < 0 || raw.MinScore > 1 {
		return Query{}, fmt.Errorf("%w: min_score must be between 0 and 1", domain.ErrInvalidQuery)
	}

	limit := raw.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	targets := make(map[string]attribute.Value, len(raw.Targets))
	for name, v := range raw.Targets {
		spec, err := table.Resolve(name)
		if err != nil {
			return Query{}, err
		}
		val, err := coerceTarget(spec, v)
		if err != nil {
			return Query{}, err
		}
		targets[name] = val
	}

	bounds := make(map[string]float64, len(raw.Bounds))
	for name, v := range raw.Bounds {
		spec, err := table.Resolve(name)
		if err != nil {
			return Query{}, err
		}
		if spec.Kind() != attribute.Numeric {
			return Query{}, fmt.Errorf("%w: bound on non-numeric attribute %q", domain.ErrInvalidQuery, name)
		}
		limitVal, err := coerceNumber(name, v)
		if err != nil {
			return Query{}, err
		}
		bounds[name] = limitVal
	}

	return Query{targets: targets, bounds: bounds, limit: limit, minScore: raw.MinScore}, nil
}

// Targets returns the desired attribute values.
func (q *Query) Targets() map[string]attribute.Value { return q.targets }

// Bounds returns the upper-limit constraints.
func (q *Query) Bounds() map[string]float64 { return q.bounds }

// Limit returns the maximum number of results.
func (q *Query) Limit() int { return q.limit }

// MinScore returns the minimum overall score a result must reach.
func (q *Query) MinScore() float64 { return q.minScore }

// BoundOnly reports whether the query carries bounds but no targets.
// Such queries are pure admission filters with nothing to score.
func (q *Query) BoundOnly() bool {
	return len(q.targets) == 0 && len(q.bounds) > 0
}

func coerceTarget(spec attribute.Spec, v any) (attribute.Value, error) {
	switch spec.Kind() {
	case attribute.Numeric:
		n, err := coerceNumber(spec.Name(), v)
		if err != nil {
			return attribute.Value{}, err
		}
		return attribute.NumberValue(n), nil
	case attribute.Categorical:
		s, ok := v.(string)
		if !ok {
			return attribute.Value{}, fmt.Errorf(
				"%w: attribute %q expects a text value, got %T", domain.ErrInvalidQuery, spec.Name(), v)
		}
		if strings.TrimSpace(s) == "" {
			return attribute.Value{}, fmt.Errorf(
				"%w: attribute %q has an empty value", domain.ErrInvalidQuery, spec.Name())
		}
		return attribute.TextValue(s), nil
	default:
		return attribute.Value{}, domain.NewFieldError(domain.ErrInvalidAttributeKind, spec.Name())
	}
}

// numberRe extracts the leading signed decimal from strings like
// "11000V" or "4,75 %". Comma decimals are accepted.
var numberRe = regexp.MustCompile(`[-+]?\d*\.?\d+`)

func coerceNumber(name string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		m := numberRe.FindString(strings.ReplaceAll(t, ",", "."))
		if m == "" {
			return 0, fmt.Errorf("%w: attribute %q value %q is not numeric", domain.ErrInvalidQuery, name, t)
		}
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: attribute %q value %q is not numeric", domain.ErrInvalidQuery, name, t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: attribute %q value has unsupported type %T", domain.ErrInvalidQuery, name, v)
	}
}

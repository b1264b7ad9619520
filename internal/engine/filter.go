package engine

import "github.com/voltlab/designdex/internal/domain/record"

// PassesBounds evaluates the query's upper-bound constraints against a
// record. Bounds are admission gates, not score contributions: a present
// value above its limit excludes the record outright. An absent value
// satisfies the bound — a record cannot violate a limit it carries no
// data for, consistent with the comparator's neutral-absence stance.
func PassesBounds(bounds map[string]float64, rec record.DesignRecord) bool {
	for name, limit := range bounds {
		if v, ok := rec.Numeric(name); ok && v > limit {
			return false
		}
	}
	return true
}

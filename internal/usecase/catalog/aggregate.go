package catalog

import (
	"sort"

	"github.com/voltlab/designdex/internal/domain/record"
)

// distinctTag collects the sorted unique values of a tag attribute.
func distinctTag(records []record.DesignRecord, name string) []string {
	seen := make(map[string]struct{})
	for i := range records {
		if v, ok := records[i].Tag(name); ok && v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// numericRange computes min/max of a numeric attribute, nil when no
// record carries it.
func numericRange(records []record.DesignRecord, name string) *Range {
	var r *Range
	for i := range records {
		v, ok := records[i].Numeric(name)
		if !ok {
			continue
		}
		if r == nil {
			r = &Range{Min: v, Max: v}
			continue
		}
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	return r
}

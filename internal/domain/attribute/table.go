package attribute

import (
	"fmt"

	"github.com/voltlab/designdex/internal/domain"
)

// Table is the read-only attribute universe: every matchable attribute
// with its weight and tolerance rule, in declaration order. Built once
// at startup; no mutation is exposed at runtime.
type Table struct {
	specs []Spec
	byName map[string]int
}

// NewTable validates and creates a Table. Attribute names must be unique.
func NewTable(specs []Spec) (*Table, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("attribute table must not be empty")
	}
	byName := make(map[string]int, len(specs))
	for i, s := range specs {
		if _, dup := byName[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate attribute name: %s", s.Name())
		}
		byName[s.Name()] = i
	}
	return &Table{specs: specs, byName: byName}, nil
}

// Resolve returns the spec for an attribute name.
func (t *Table) Resolve(name string) (Spec, error) {
	i, ok := t.byName[name]
	if !ok {
		return Spec{}, domain.NewFieldError(domain.ErrUnknownAttribute, name)
	}
	return t.specs[i], nil
}

// Has reports whether the attribute exists in the universe.
func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Participating returns the specs for the target attribute names present
// in the table, in declaration order. This set is the denominator of the
// weighted mean, and its order fixes the presentation order of details.
func (t *Table) Participating(targets map[string]Value) []Spec {
	out := make([]Spec, 0, len(targets))
	for _, s := range t.specs {
		if _, ok := targets[s.Name()]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Specs returns all specs in declaration order.
func (t *Table) Specs() []Spec {
	out := make([]Spec, len(t.specs))
	copy(out, t.specs)
	return out
}

// Len returns the number of attributes in the universe.
func (t *Table) Len() int { return len(t.specs) }

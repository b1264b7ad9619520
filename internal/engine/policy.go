package engine

import (
	"fmt"

	"github.com/voltlab/designdex/internal/domain/attribute"
)

// materialClasses treats winding material codes and their spelled-out
// forms as equal.
var materialClasses = [][]string{
	{"al", "alu", "aluminium", "aluminum"},
	{"cu", "copper"},
}

// specDef is one row of the built-in policy table.
type specDef struct {
	name    string
	kind    attribute.Kind
	weight  float64
	relTol  float64
	classes [][]string
}

// defaultPolicy is the built-in attribute universe for transformer
// designs: weights reflect how strongly engineers weigh each parameter
// when judging two designs similar, tolerances how much deviation the
// parameter absorbs before the match is worthless.
var defaultPolicy = []specDef{
	{name: "rating_kva", kind: attribute.Numeric, weight: 1.0, relTol: 0.05},
	{name: "high_voltage_v", kind: attribute.Numeric, weight: 0.9, relTol: 0.05},
	{name: "low_voltage_v", kind: attribute.Numeric, weight: 0.9, relTol: 0.05},
	{name: "vector_group", kind: attribute.Categorical, weight: 0.8},
	{name: "no_load_loss_w", kind: attribute.Numeric, weight: 0.7, relTol: 0.15},
	{name: "load_loss_w", kind: attribute.Numeric, weight: 0.7, relTol: 0.15},
	{name: "impedance_percent", kind: attribute.Numeric, weight: 0.6, relTol: 0.10},
	{name: "cooling_type", kind: attribute.Categorical, weight: 0.5},
	{name: "frequency_hz", kind: attribute.Numeric, weight: 0.5, relTol: 0}, // exact match
	{name: "lv_material", kind: attribute.Categorical, weight: 0.4, classes: materialClasses},
	{name: "hv_material", kind: attribute.Categorical, weight: 0.4, classes: materialClasses},
	{name: "core_material", kind: attribute.Categorical, weight: 0.3},
}

// DefaultTable builds the built-in attribute universe.
func DefaultTable() (*attribute.Table, error) {
	specs := make([]attribute.Spec, 0, len(defaultPolicy))
	for _, d := range defaultPolicy {
		tol, err := attribute.RelativeTolerance(d.relTol)
		if err != nil {
			return nil, fmt.Errorf("tolerance for %s: %w", d.name, err)
		}
		spec, err := attribute.NewSpec(d.name, d.kind, d.weight, tol, d.classes)
		if err != nil {
			return nil, fmt.Errorf("spec for %s: %w", d.name, err)
		}
		specs = append(specs, spec)
	}
	return attribute.NewTable(specs)
}

// MustDefaultTable builds the built-in universe or panics. The table is
// static data; failing to build it is a programming error.
func MustDefaultTable() *attribute.Table {
	t, err := DefaultTable()
	if err != nil {
		panic(err)
	}
	return t
}

package attribute

import (
	"fmt"
	"strings"
)

// Kind is the comparison type of an attribute.
type Kind string

// Attribute kind constants.
const (
	// Numeric is compared with tolerance-scaled distance.
	Numeric Kind = "numeric"
	// Categorical is compared by equality or equivalence class.
	Categorical Kind = "categorical"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Numeric || k == Categorical
}

// ToleranceMode selects how a numeric tolerance is interpreted.
type ToleranceMode string

// Tolerance mode constants.
const (
	// Relative scales the tolerance by the magnitude of the query value.
	Relative ToleranceMode = "relative"
	// Absolute is a fixed tolerance in the attribute's unit.
	Absolute ToleranceMode = "absolute"
)

// Tolerance is the deviation at which a numeric attribute's score reaches zero.
// A zero value (in either mode) degenerates to exact match.
type Tolerance struct {
	mode  ToleranceMode
	value float64
}

// NewTolerance validates and creates a Tolerance.
func NewTolerance(mode ToleranceMode, value float64) (Tolerance, error) {
	if mode != Relative && mode != Absolute {
		return Tolerance{}, fmt.Errorf("invalid tolerance mode %q", mode)
	}
	if value < 0 {
		return Tolerance{}, fmt.Errorf("tolerance must be non-negative, got %v", value)
	}
	return Tolerance{mode: mode, value: value}, nil
}

// RelativeTolerance creates a relative tolerance (fraction of the query value).
func RelativeTolerance(value float64) (Tolerance, error) {
	return NewTolerance(Relative, value)
}

// AbsoluteTolerance creates an absolute tolerance (fixed unit amount).
func AbsoluteTolerance(value float64) (Tolerance, error) {
	return NewTolerance(Absolute, value)
}

// Mode returns the tolerance interpretation mode.
func (t Tolerance) Mode() ToleranceMode { return t.mode }

// Value returns the tolerance magnitude.
func (t Tolerance) Value() float64 { return t.value }

// Spec is an immutable value object describing one matchable attribute.
type Spec struct {
	name      string
	kind      Kind
	weight    float64
	tolerance Tolerance
	classes   map[string]string // normalized value -> equivalence class label
}

// NewSpec validates and creates a Spec.
// Name must be non-empty. Weight must be positive.
// Classes (categorical only) group values that count as equal, e.g.
// {"cu", "copper"} and {"al", "aluminium"}.
func NewSpec(name string, kind Kind, weight float64, tolerance Tolerance, classes [][]string) (Spec, error) {
	if name == "" {
		return Spec{}, fmt.Errorf("attribute name is required")
	}
	if !kind.IsValid() {
		return Spec{}, fmt.Errorf("invalid kind %q for attribute %q", kind, name)
	}
	if weight <= 0 {
		return Spec{}, fmt.Errorf("weight for attribute %q must be positive, got %v", name, weight)
	}
	if kind == Numeric && len(classes) > 0 {
		return Spec{}, fmt.Errorf("equivalence classes on numeric attribute %q", name)
	}

	var classIndex map[string]string
	if len(classes) > 0 {
		classIndex = make(map[string]string)
		for i, class := range classes {
			label := fmt.Sprintf("class-%d", i)
			for _, v := range class {
				nv := Canonical(v)
				if nv == "" {
					return Spec{}, fmt.Errorf("empty value in equivalence class for %q", name)
				}
				if _, dup := classIndex[nv]; dup {
					return Spec{}, fmt.Errorf("value %q appears in two equivalence classes for %q", v, name)
				}
				classIndex[nv] = label
			}
		}
	}

	return Spec{name: name, kind: kind, weight: weight, tolerance: tolerance, classes: classIndex}, nil
}

// Name returns the attribute name.
func (s Spec) Name() string { return s.name }

// Kind returns the comparison kind.
func (s Spec) Kind() Kind { return s.kind }

// Weight returns the aggregation weight.
func (s Spec) Weight() float64 { return s.weight }

// Tolerance returns the numeric tolerance rule.
func (s Spec) Tolerance() Tolerance { return s.tolerance }

// SameClass reports whether two categorical values are equal after
// normalization or belong to the same declared equivalence class.
func (s Spec) SameClass(a, b string) bool {
	na, nb := Canonical(a), Canonical(b)
	if na == nb {
		return true
	}
	if s.classes == nil {
		return false
	}
	ca, ok := s.classes[na]
	if !ok {
		return false
	}
	cb, ok := s.classes[nb]
	return ok && ca == cb
}

// Canonical normalizes a categorical value for comparison.
func Canonical(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

package attribute

import "strconv"

// valueKind tags the variant held by a Value.
type valueKind uint8

const (
	absent valueKind = iota
	number
	text
)

// Value is a tagged attribute value: a number, a text label, or absent.
// The zero Value is absent.
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// NumberValue creates a numeric value.
func NumberValue(v float64) Value {
	return Value{kind: number, num: v}
}

// TextValue creates a categorical text value.
func TextValue(v string) Value {
	return Value{kind: text, str: v}
}

// Absent is the missing-value marker.
func Absent() Value { return Value{} }

// IsAbsent reports whether no value is present.
func (v Value) IsAbsent() bool { return v.kind == absent }

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool { return v.kind == number }

// IsText reports whether the value is text.
func (v Value) IsText() bool { return v.kind == text }

// Number returns the numeric payload (zero when not numeric).
func (v Value) Number() float64 { return v.num }

// Text returns the text payload (empty when not text).
func (v Value) Text() string { return v.str }

// Any returns the payload as an untyped value for serialization,
// nil when absent.
func (v Value) Any() any {
	switch v.kind {
	case number:
		return v.num
	case text:
		return v.str
	default:
		return nil
	}
}

// String renders the value for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case number:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case text:
		return v.str
	default:
		return "<absent>"
	}
}

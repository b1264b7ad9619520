package record

import (
	"fmt"

	"github.com/voltlab/designdex/internal/domain/attribute"
)

// DesignRecord is one catalog entry: an immutable design with its
// recorded attribute values. Values an engineer never filled in are
// simply absent; that is valid data, not an error.
type DesignRecord struct {
	id            string
	sourceLocator string
	tags          map[string]string
	numerics      map[string]float64
}

// New validates and creates a DesignRecord.
func New(id, sourceLocator string, tags map[string]string, numerics map[string]float64) (DesignRecord, error) {
	if id == "" {
		return DesignRecord{}, fmt.Errorf("record id is required")
	}
	return Reconstruct(id, sourceLocator, tags, numerics), nil
}

// Reconstruct creates a DesignRecord without validation (storage hydration).
func Reconstruct(id, sourceLocator string, tags map[string]string, numerics map[string]float64) DesignRecord {
	return DesignRecord{
		id:            id,
		sourceLocator: sourceLocator,
		tags:          tags,
		numerics:      numerics,
	}
}

// ID returns the design identifier.
func (r *DesignRecord) ID() string { return r.id }

// SourceLocator returns where the record was extracted from.
func (r *DesignRecord) SourceLocator() string { return r.sourceLocator }

// Tags returns the categorical attribute values.
func (r *DesignRecord) Tags() map[string]string { return r.tags }

// Numerics returns the numeric attribute values.
func (r *DesignRecord) Numerics() map[string]float64 { return r.numerics }

// Numeric returns a numeric attribute value.
func (r *DesignRecord) Numeric(name string) (float64, bool) {
	v, ok := r.numerics[name]
	return v, ok
}

// Tag returns a categorical attribute value.
func (r *DesignRecord) Tag(name string) (string, bool) {
	v, ok := r.tags[name]
	return v, ok
}

// Value returns the attribute value as a tagged Value, absent when the
// design does not record the attribute under either kind.
func (r *DesignRecord) Value(name string) attribute.Value {
	if v, ok := r.numerics[name]; ok {
		return attribute.NumberValue(v)
	}
	if v, ok := r.tags[name]; ok {
		return attribute.TextValue(v)
	}
	return attribute.Absent()
}

package query

import (
	"errors"
	"testing"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
)

func testTable(t *testing.T) *attribute.Table {
	t.Helper()
	relTol, err := attribute.RelativeTolerance(0.05)
	if err != nil {
		t.Fatalf("RelativeTolerance: %v", err)
	}
	rating, err := attribute.NewSpec("rating_kva", attribute.Numeric, 1.0, relTol, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	hv, err := attribute.NewSpec("high_voltage_v", attribute.Numeric, 0.9, relTol, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	vg, err := attribute.NewSpec("vector_group", attribute.Categorical, 0.8, relTol, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	tbl, err := attribute.NewTable([]attribute.Spec{rating, hv, vg})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

var allowAll = Options{AllowBoundOnly: true}

func TestNew_ValidQuery(t *testing.T) {
	tbl := testTable(t)

	q, err := New(tbl, Raw{
		Targets: map[string]any{"rating_kva": 1000.0, "vector_group": "Dyn11"},
		Bounds:  map[string]any{"high_voltage_v": 36000.0},
		Limit:   5,
	}, allowAll)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if q.Limit() != 5 {
		t.Errorf("Limit = %d, want 5", q.Limit())
	}
	if got := q.Targets()["rating_kva"]; !got.IsNumber() || got.Number() != 1000 {
		t.Errorf("rating_kva target = %v", got)
	}
	if got := q.Targets()["vector_group"]; !got.IsText() || got.Text() != "Dyn11" {
		t.Errorf("vector_group target = %v", got)
	}
	if got := q.Bounds()["high_voltage_v"]; got != 36000 {
		t.Errorf("high_voltage_v bound = %v, want 36000", got)
	}
	if q.BoundOnly() {
		t.Error("query with targets reported as bound-only")
	}
}

func TestNew_UnknownAttributeRejected(t *testing.T) {
	tbl := testTable(t)

	_, err := New(tbl, Raw{Targets: map[string]any{"color": "blue"}}, allowAll)
	if !errors.Is(err, domain.ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}

	var fieldErr *domain.FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "color" {
		t.Errorf("expected FieldError naming color, got %v", err)
	}

	// Bounds are validated against the universe too.
	_, err = New(tbl, Raw{Bounds: map[string]any{"weight_kg": 5000.0}}, allowAll)
	if !errors.Is(err, domain.ErrUnknownAttribute) {
		t.Errorf("expected ErrUnknownAttribute for unknown bound, got %v", err)
	}
}

func TestNew_EmptyQueryRejected(t *testing.T) {
	tbl := testTable(t)

	for _, raw := range []Raw{{}, {Targets: map[string]any{}, Bounds: map[string]any{}}} {
		if _, err := New(tbl, raw, allowAll); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("expected ErrInvalidQuery, got %v", err)
		}
	}
}

func TestNew_BoundOnlyPolicy(t *testing.T) {
	tbl := testTable(t)
	raw := Raw{Bounds: map[string]any{"rating_kva": 1000.0}}

	q, err := New(tbl, raw, Options{AllowBoundOnly: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !q.BoundOnly() {
		t.Error("expected bound-only query")
	}

	_, err = New(tbl, raw, Options{AllowBoundOnly: false})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery with bound-only disabled, got %v", err)
	}
}

func TestNew_NumericCoercion(t *testing.T) {
	tbl := testTable(t)

	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"float64", 1000.0, 1000},
		{"int", 1000, 1000},
		{"plain string", "1000", 1000},
		{"string with unit", "11000V", 11000},
		{"comma decimal", "4,75", 4.75},
		{"embedded unit text", "1000 kVA", 1000},
		{"negative", "-5", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(tbl, Raw{Targets: map[string]any{"rating_kva": tt.value}}, allowAll)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := q.Targets()["rating_kva"].Number(); got != tt.want {
				t.Errorf("coerced value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_GarbageValuesRejected(t *testing.T) {
	tbl := testTable(t)

	for _, v := range []any{"big", "", true, []int{1}} {
		_, err := New(tbl, Raw{Targets: map[string]any{"rating_kva": v}}, allowAll)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("value %v: expected ErrInvalidQuery, got %v", v, err)
		}
	}

	// Categorical attributes take text, not numbers, and not blanks.
	_, err := New(tbl, Raw{Targets: map[string]any{"vector_group": 11.0}}, allowAll)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("numeric vector_group: expected ErrInvalidQuery, got %v", err)
	}
	_, err = New(tbl, Raw{Targets: map[string]any{"vector_group": "   "}}, allowAll)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("blank vector_group: expected ErrInvalidQuery, got %v", err)
	}
}

func TestNew_BoundOnCategoricalRejected(t *testing.T) {
	tbl := testTable(t)

	_, err := New(tbl, Raw{Bounds: map[string]any{"vector_group": "Dyn11"}}, allowAll)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestNew_LimitHandling(t *testing.T) {
	tbl := testTable(t)
	targets := map[string]any{"rating_kva": 1000.0}

	q, err := New(tbl, Raw{Targets: targets}, allowAll)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.Limit() != DefaultLimit {
		t.Errorf("default limit = %d, want %d", q.Limit(), DefaultLimit)
	}

	q, err = New(tbl, Raw{Targets: targets, Limit: 1000}, allowAll)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.Limit() != MaxLimit {
		t.Errorf("clamped limit = %d, want %d", q.Limit(), MaxLimit)
	}

	if _, err := New(tbl, Raw{Targets: targets, Limit: -1}, allowAll); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("negative limit: expected ErrInvalidQuery, got %v", err)
	}
}

func TestNew_MinScoreValidation(t *testing.T) {
	tbl := testTable(t)
	targets := map[string]any{"rating_kva": 1000.0}

	for _, bad := range []float64{-0.1, 1.1} {
		if _, err := New(tbl, Raw{Targets: targets, MinScore: bad}, allowAll); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("min score %v: expected ErrInvalidQuery, got %v", bad, err)
		}
	}

	q, err := New(tbl, Raw{Targets: targets, MinScore: 0.7}, allowAll)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q.MinScore() != 0.7 {
		t.Errorf("MinScore = %v, want 0.7", q.MinScore())
	}
}

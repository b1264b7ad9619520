package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
	"github.com/voltlab/designdex/internal/domain/query"
	"github.com/voltlab/designdex/internal/domain/record"
)

func testTable(t *testing.T) *attribute.Table {
	t.Helper()
	tbl, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable: %v", err)
	}
	return tbl
}

func mustQuery(t *testing.T, tbl *attribute.Table, raw query.Raw) *query.Query {
	t.Helper()
	q, err := query.New(tbl, raw, query.Options{AllowBoundOnly: true})
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return &q
}

func testScorer(t *testing.T, tbl *attribute.Table) *Scorer {
	t.Helper()
	cmp, err := NewComparator(DefaultNeutralScore)
	if err != nil {
		t.Fatalf("NewComparator: %v", err)
	}
	return NewScorer(tbl, cmp)
}

func TestScore_WeightedMean(t *testing.T) {
	tbl := testTable(t)
	scorer := testScorer(t, tbl)

	// rating_kva (weight 1.0) matches exactly; vector_group (weight 0.8)
	// does not. Weighted mean: (1.0*1 + 0.8*0) / 1.8.
	q := mustQuery(t, tbl, query.Raw{Targets: map[string]any{
		"rating_kva":   1000.0,
		"vector_group": "Dyn11",
	}})
	rec := record.Reconstruct("TR-1", "",
		map[string]string{"vector_group": "Yyn0"},
		map[string]float64{"rating_kva": 1000},
	)

	res, err := scorer.Score(q, rec)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := 1.0 / 1.8
	if math.Abs(res.OverallScore-want) > 1e-9 {
		t.Errorf("OverallScore = %v, want %v", res.OverallScore, want)
	}
}

func TestScore_OnlyQueriedAttributesParticipate(t *testing.T) {
	tbl := testTable(t)
	scorer := testScorer(t, tbl)

	// The record carries many attributes; only the one queried counts.
	q := mustQuery(t, tbl, query.Raw{Targets: map[string]any{"rating_kva": 1000.0}})
	rec := record.Reconstruct("TR-1", "",
		map[string]string{"vector_group": "Dyn11", "cooling_type": "ONAN"},
		map[string]float64{"rating_kva": 1000, "high_voltage_v": 11000},
	)

	res, err := scorer.Score(q, rec)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.OverallScore != 1 {
		t.Errorf("OverallScore = %v, want 1", res.OverallScore)
	}
	if len(res.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(res.Details))
	}
	if res.Details[0].Attribute != "rating_kva" {
		t.Errorf("detail attribute = %q, want rating_kva", res.Details[0].Attribute)
	}
}

func TestScore_DetailsInDeclarationOrder(t *testing.T) {
	tbl := testTable(t)
	scorer := testScorer(t, tbl)

	// Map iteration order is random; detail order must not be.
	q := mustQuery(t, tbl, query.Raw{Targets: map[string]any{
		"cooling_type":   "ONAN",
		"rating_kva":     1000.0,
		"high_voltage_v": 11000.0,
	}})
	rec := record.Reconstruct("TR-1", "", nil, map[string]float64{"rating_kva": 1000})

	wantOrder := []string{"rating_kva", "high_voltage_v", "cooling_type"}
	for i := 0; i < 5; i++ {
		res, err := scorer.Score(q, rec)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if len(res.Details) != len(wantOrder) {
			t.Fatalf("expected %d details, got %d", len(wantOrder), len(res.Details))
		}
		for j, want := range wantOrder {
			if res.Details[j].Attribute != want {
				t.Fatalf("detail[%d] = %q, want %q", j, res.Details[j].Attribute, want)
			}
		}
	}
}

func TestScore_AbsentValuesGetNeutralScore(t *testing.T) {
	tbl := testTable(t)
	scorer := testScorer(t, tbl)

	q := mustQuery(t, tbl, query.Raw{Targets: map[string]any{"no_load_loss_w": 1100.0}})
	rec := record.Reconstruct("TR-1", "", nil, map[string]float64{"rating_kva": 1000})

	res, err := scorer.Score(q, rec)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.OverallScore != DefaultNeutralScore {
		t.Errorf("OverallScore = %v, want %v", res.OverallScore, DefaultNeutralScore)
	}
	if !res.Details[0].DesignValue.IsAbsent() {
		t.Error("expected absent design value in detail")
	}
}

func TestScore_NoParticipatingTargets(t *testing.T) {
	tbl := testTable(t)
	scorer := testScorer(t, tbl)

	// Bound-only queries have no targets; the scorer refuses them, the
	// ranker routes them elsewhere.
	q := mustQuery(t, tbl, query.Raw{Bounds: map[string]any{"load_loss_w": 9000.0}})
	rec := record.Reconstruct("TR-1", "", nil, map[string]float64{"load_loss_w": 8000})

	_, err := scorer.Score(q, rec)
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestScore_TargetOrderInvariance(t *testing.T) {
	tbl := testTable(t)
	scorer := testScorer(t, tbl)

	rec := record.Reconstruct("TR-1", "",
		map[string]string{"vector_group": "Dyn11"},
		map[string]float64{"rating_kva": 980, "high_voltage_v": 11500},
	)

	// Same targets handed over twice; map construction order differs.
	a := mustQuery(t, tbl, query.Raw{Targets: map[string]any{
		"rating_kva": 1000.0, "high_voltage_v": 11000.0, "vector_group": "Dyn11",
	}})
	b := mustQuery(t, tbl, query.Raw{Targets: map[string]any{
		"vector_group": "Dyn11", "high_voltage_v": 11000.0, "rating_kva": 1000.0,
	}})

	resA, err := scorer.Score(a, rec)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	resB, err := scorer.Score(b, rec)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if resA.OverallScore != resB.OverallScore {
		t.Errorf("score depends on target order: %v vs %v", resA.OverallScore, resB.OverallScore)
	}
}

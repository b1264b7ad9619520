package catalog

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/record"
	"github.com/voltlab/designdex/internal/engine"
)

// --- Mocks ---

type mockRepo struct {
	records []record.DesignRecord
	loadErr error
	getRec  record.DesignRecord
	getErr  error
}

func (m *mockRepo) LoadAll(_ context.Context) ([]record.DesignRecord, error) {
	return m.records, m.loadErr
}

func (m *mockRepo) Get(_ context.Context, _ string) (record.DesignRecord, error) {
	return m.getRec, m.getErr
}

func testRecords() []record.DesignRecord {
	return []record.DesignRecord{
		record.Reconstruct("TR-1", "",
			map[string]string{"vector_group": "Dyn11", "cooling_type": "ONAN", "hv_material": "cu"},
			map[string]float64{"rating_kva": 1000, "high_voltage_v": 11000},
		),
		record.Reconstruct("TR-2", "",
			map[string]string{"vector_group": "Yyn0", "cooling_type": "ONAN"},
			map[string]float64{"rating_kva": 2500, "high_voltage_v": 33000},
		),
	}
}

// --- Tests ---

func TestRefresh_SwapsSnapshot(t *testing.T) {
	repo := &mockRepo{records: testRecords()}
	svc := New(repo, engine.MustDefaultTable(), zap.NewNop())

	if len(svc.Snapshot()) != 0 {
		t.Fatal("snapshot should start empty")
	}

	n, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if n != 2 {
		t.Errorf("Refresh returned %d, want 2", n)
	}
	if len(svc.Snapshot()) != 2 {
		t.Errorf("snapshot has %d records, want 2", len(svc.Snapshot()))
	}
}

func TestRefresh_ErrorKeepsOldSnapshot(t *testing.T) {
	repo := &mockRepo{records: testRecords()}
	svc := New(repo, engine.MustDefaultTable(), zap.NewNop())

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	repo.loadErr = errors.New("connection reset")
	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(svc.Snapshot()) != 2 {
		t.Errorf("failed refresh replaced the snapshot, %d records left", len(svc.Snapshot()))
	}
}

func TestGet_ReadsThrough(t *testing.T) {
	rec := testRecords()[0]
	repo := &mockRepo{getRec: rec}
	svc := New(repo, engine.MustDefaultTable(), zap.NewNop())

	// Never refreshed; Get still reaches storage.
	got, err := svc.Get(context.Background(), "TR-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID() != "TR-1" {
		t.Errorf("Get returned %s", got.ID())
	}

	repo.getErr = domain.ErrNotFound
	if _, err := svc.Get(context.Background(), "TR-9"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDistinct(t *testing.T) {
	repo := &mockRepo{records: testRecords()}
	svc := New(repo, engine.MustDefaultTable(), zap.NewNop())
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got, err := svc.Distinct("vector_group")
	if err != nil {
		t.Fatalf("Distinct: %v", err)
	}
	want := []string{"Dyn11", "Yyn0"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Distinct = %v, want %v", got, want)
	}

	if _, err := svc.Distinct("rating_kva"); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("numeric attribute: expected ErrInvalidQuery, got %v", err)
	}
	if _, err := svc.Distinct("color"); !errors.Is(err, domain.ErrUnknownAttribute) {
		t.Errorf("unknown attribute: expected ErrUnknownAttribute, got %v", err)
	}
}

func TestStats(t *testing.T) {
	repo := &mockRepo{records: testRecords()}
	svc := New(repo, engine.MustDefaultTable(), zap.NewNop())
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	stats := svc.Stats(context.Background())
	if stats.TotalDesigns != 2 {
		t.Errorf("TotalDesigns = %d, want 2", stats.TotalDesigns)
	}
	if stats.RatingRange == nil || stats.RatingRange.Min != 1000 || stats.RatingRange.Max != 2500 {
		t.Errorf("RatingRange = %+v", stats.RatingRange)
	}
	if len(stats.CoolingTypes) != 1 || stats.CoolingTypes[0] != "ONAN" {
		t.Errorf("CoolingTypes = %v", stats.CoolingTypes)
	}
	if len(stats.HVMaterials) != 1 || stats.HVMaterials[0] != "cu" {
		t.Errorf("HVMaterials = %v", stats.HVMaterials)
	}
	// No record carries lv_material; the list is empty, not nil-panicky.
	if len(stats.LVMaterials) != 0 {
		t.Errorf("LVMaterials = %v, want empty", stats.LVMaterials)
	}
}

func TestStats_EmptyCatalog(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, engine.MustDefaultTable(), zap.NewNop())

	stats := svc.Stats(context.Background())
	if stats.TotalDesigns != 0 {
		t.Errorf("TotalDesigns = %d, want 0", stats.TotalDesigns)
	}
	if stats.RatingRange != nil {
		t.Errorf("RatingRange = %+v, want nil", stats.RatingRange)
	}
}

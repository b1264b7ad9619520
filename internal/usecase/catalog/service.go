package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
	"github.com/voltlab/designdex/internal/domain/record"
	"github.com/voltlab/designdex/internal/metrics"
)

// Service owns the in-memory corpus snapshot the ranker borrows. The
// snapshot is replaced wholesale on refresh, never mutated in place, so
// readers in flight observe either the old or the new corpus entirely.
type Service struct {
	repo     Repository
	table    *attribute.Table
	logger   *zap.Logger
	snapshot atomic.Pointer[[]record.DesignRecord]
}

// New creates a catalog service. The snapshot starts empty; call Refresh
// to populate it.
func New(repo Repository, table *attribute.Table, logger *zap.Logger) *Service {
	s := &Service{repo: repo, table: table, logger: logger}
	empty := make([]record.DesignRecord, 0)
	s.snapshot.Store(&empty)
	return s
}

// Refresh reloads the full catalog from storage and swaps the snapshot.
// Returns the new corpus size.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	records, err := s.repo.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	if records == nil {
		records = make([]record.DesignRecord, 0)
	}
	s.snapshot.Store(&records)
	metrics.CorpusSize.Set(float64(len(records)))
	s.logger.Info("catalog refreshed", zap.Int("designs", len(records)))
	return len(records), nil
}

// Snapshot returns the current corpus. Callers must treat it as
// read-only; it is shared with every ranking call in flight.
func (s *Service) Snapshot() []record.DesignRecord {
	return *s.snapshot.Load()
}

// List returns all designs in the current snapshot.
func (s *Service) List(_ context.Context) []record.DesignRecord {
	return s.Snapshot()
}

// Get returns one design by id, reading through to storage so callers
// see records the snapshot has not picked up yet.
func (s *Service) Get(ctx context.Context, id string) (record.DesignRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return record.DesignRecord{}, domain.ErrNotFound
		}
		return record.DesignRecord{}, fmt.Errorf("get design %s: %w", id, err)
	}
	return rec, nil
}

// Distinct returns the sorted unique values of a categorical attribute
// across the snapshot (form dropdowns are built from this).
func (s *Service) Distinct(name string) ([]string, error) {
	spec, err := s.table.Resolve(name)
	if err != nil {
		return nil, err
	}
	if spec.Kind() != attribute.Categorical {
		return nil, domain.NewFieldError(domain.ErrInvalidQuery, name)
	}
	return distinctTag(s.Snapshot(), name), nil
}

// Range is a numeric min/max over the snapshot.
type Range struct {
	Min float64
	Max float64
}

// Stats summarizes the current snapshot for presentation.
type Stats struct {
	TotalDesigns     int
	RatingRange      *Range
	HighVoltageRange *Range
	VectorGroups     []string
	CoolingTypes     []string
	HVMaterials      []string
	LVMaterials      []string
}

// Stats computes catalog statistics from the current snapshot.
func (s *Service) Stats(_ context.Context) Stats {
	snap := s.Snapshot()
	return Stats{
		TotalDesigns:     len(snap),
		RatingRange:      numericRange(snap, "rating_kva"),
		HighVoltageRange: numericRange(snap, "high_voltage_v"),
		VectorGroups:     distinctTag(snap, "vector_group"),
		CoolingTypes:     distinctTag(snap, "cooling_type"),
		HVMaterials:      distinctTag(snap, "hv_material"),
		LVMaterials:      distinctTag(snap, "lv_material"),
	}
}

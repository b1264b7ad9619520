package catalog

import (
	"context"

	"github.com/voltlab/designdex/internal/domain/record"
)

// Repository defines the storage contract for the design catalog.
type Repository interface {
	LoadAll(ctx context.Context) ([]record.DesignRecord, error)
	Get(ctx context.Context, id string) (record.DesignRecord, error)
}

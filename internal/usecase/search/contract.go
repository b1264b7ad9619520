package search

import (
	"context"

	"github.com/voltlab/designdex/internal/domain/record"
)

// CorpusProvider hands out the current read-only corpus snapshot.
type CorpusProvider interface {
	Snapshot() []record.DesignRecord
}

// Extractor turns a natural-language request into a sparse parameter map.
type Extractor interface {
	ExtractParameters(ctx context.Context, text string) (map[string]any, error)
}

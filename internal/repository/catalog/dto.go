package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/voltlab/designdex/internal/domain/record"
)

// designDTO is the stored JSON shape of a design record.
type designDTO struct {
	ID            string             `json:"id"`
	SourceLocator string             `json:"source_locator,omitempty"`
	Tags          map[string]string  `json:"tags,omitempty"`
	Numerics      map[string]float64 `json:"numerics,omitempty"`
}

func toDTO(rec record.DesignRecord) designDTO {
	return designDTO{
		ID:            rec.ID(),
		SourceLocator: rec.SourceLocator(),
		Tags:          rec.Tags(),
		Numerics:      rec.Numerics(),
	}
}

func (d designDTO) toDomain() record.DesignRecord {
	return record.Reconstruct(d.ID, d.SourceLocator, d.Tags, d.Numerics)
}

// parseJSONGetResult unmarshals a JSON.GET "$" result, which wraps the
// document in a one-element array.
func parseJSONGetResult(id string, raw []byte) (record.DesignRecord, error) {
	var docs []designDTO
	if err := json.Unmarshal(raw, &docs); err != nil {
		return record.DesignRecord{}, fmt.Errorf("unmarshal design %s: %w", id, err)
	}
	if len(docs) == 0 {
		return record.DesignRecord{}, fmt.Errorf("empty JSON document for design %s", id)
	}
	dto := docs[0]
	if dto.ID == "" {
		dto.ID = id
	}
	return dto.toDomain(), nil
}

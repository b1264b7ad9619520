package chi

import (
	"github.com/voltlab/designdex/internal/engine"
	cataloguc "github.com/voltlab/designdex/internal/usecase/catalog"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in the envelope.
const (
	codeBadRequest       = "bad_request"
	codeInvalidQuery     = "invalid_query"
	codeUnknownAttribute = "unknown_attribute"
	codeNotFound         = "not_found"
	codeExtractionFailed = "extraction_failed"
	codeInternalError    = "internal_error"
)

// searchRequest is the natural-language search body.
type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// formSearchRequest is the structured search body: targets express
// "close to", bounds express "no more than".
type formSearchRequest struct {
	Targets  map[string]any `json:"targets"`
	Bounds   map[string]any `json:"bounds,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	MinScore float64        `json:"min_score,omitempty"`
}

// matchDetailDTO explains one attribute of one match.
type matchDetailDTO struct {
	Attribute   string  `json:"attribute"`
	QueryValue  any     `json:"query_value"`
	DesignValue any     `json:"design_value"`
	Score       float64 `json:"score"`
}

// matchDTO is one ranked design.
type matchDTO struct {
	RecordID      string             `json:"record_id"`
	SourceLocator string             `json:"source_locator,omitempty"`
	OverallScore  float64            `json:"overall_score"`
	Details       []matchDetailDTO   `json:"details"`
	Tags          map[string]string  `json:"tags,omitempty"`
	Numerics      map[string]float64 `json:"numerics,omitempty"`
}

// searchResponse is the ranked result list with the query echo.
type searchResponse struct {
	Query           string         `json:"query"`
	ExtractedParams map[string]any `json:"extracted_params,omitempty"`
	Matches         []matchDTO     `json:"matches"`
	Explanation     string         `json:"explanation"`
}

// designDTO is one catalog entry.
type designDTO struct {
	ID            string             `json:"id"`
	SourceLocator string             `json:"source_locator,omitempty"`
	Tags          map[string]string  `json:"tags,omitempty"`
	Numerics      map[string]float64 `json:"numerics,omitempty"`
}

// rangeDTO is a numeric min/max.
type rangeDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// statsResponse summarizes the catalog.
type statsResponse struct {
	TotalDesigns     int       `json:"total_designs"`
	RatingRange      *rangeDTO `json:"rating_range,omitempty"`
	HighVoltageRange *rangeDTO `json:"high_voltage_range,omitempty"`
	VectorGroups     []string  `json:"vector_groups"`
	CoolingTypes     []string  `json:"cooling_types"`
	HVMaterials      []string  `json:"hv_materials"`
	LVMaterials      []string  `json:"lv_materials"`
}

func matchesToDTO(results []engine.ScoredResult) []matchDTO {
	out := make([]matchDTO, 0, len(results))
	for _, res := range results {
		details := make([]matchDetailDTO, 0, len(res.Details))
		for _, d := range res.Details {
			details = append(details, matchDetailDTO{
				Attribute:   d.Attribute,
				QueryValue:  d.QueryValue.Any(),
				DesignValue: d.DesignValue.Any(),
				Score:       d.Score,
			})
		}
		out = append(out, matchDTO{
			RecordID:      res.Record.ID(),
			SourceLocator: res.Record.SourceLocator(),
			OverallScore:  res.OverallScore,
			Details:       details,
			Tags:          res.Record.Tags(),
			Numerics:      res.Record.Numerics(),
		})
	}
	return out
}

func statsToDTO(s cataloguc.Stats) statsResponse {
	resp := statsResponse{
		TotalDesigns: s.TotalDesigns,
		VectorGroups: s.VectorGroups,
		CoolingTypes: s.CoolingTypes,
		HVMaterials:  s.HVMaterials,
		LVMaterials:  s.LVMaterials,
	}
	if s.RatingRange != nil {
		resp.RatingRange = &rangeDTO{Min: s.RatingRange.Min, Max: s.RatingRange.Max}
	}
	if s.HighVoltageRange != nil {
		resp.HighVoltageRange = &rangeDTO{Min: s.HighVoltageRange.Min, Max: s.HighVoltageRange.Max}
	}
	return resp
}

package openai

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule-based extraction patterns. These catch the notation engineers
// actually type ("100 kVA", "11000/415V", "Dyn11", "ONAN") without a
// round trip to the model.
var (
	ratingRe      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*kva\b`)
	frequencyRe   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*hz\b`)
	voltagePairRe = regexp.MustCompile(`(?i)(\d{3,6})\s*/\s*(\d{3,4})\s*v?\b`)
	hvKilovoltRe  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*kv\b`)
	vectorGroupRe = regexp.MustCompile(`(?i)\b([dyz])([dyz])n?(\d{1,2})\b`)
	coolingRe     = regexp.MustCompile(`(?i)\b(onan|onaf|ofaf|odaf)\b`)
	impedanceRe   = regexp.MustCompile(`(?i)(?:ucc|impedance)\s*=?\s*%?\s*(\d+(?:[.,]\d+)?)`)
)

// extractWithRules pulls parameters out of the text with regexes. Only
// unambiguous notations are matched; everything else is left to the model.
func extractWithRules(text string) map[string]any {
	params := make(map[string]any)

	if m := ratingRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			params["rating_kva"] = v
		}
	}
	if m := frequencyRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			params["frequency_hz"] = v
		}
	}
	if m := voltagePairRe.FindStringSubmatch(text); m != nil {
		hv, okHV := parseDecimal(m[1])
		lv, okLV := parseDecimal(m[2])
		if okHV && okLV {
			params["high_voltage_v"] = hv
			params["low_voltage_v"] = lv
		}
	} else if m := hvKilovoltRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			params["high_voltage_v"] = v * 1000
		}
	}
	if m := vectorGroupRe.FindStringSubmatch(text); m != nil {
		params["vector_group"] = canonicalVectorGroup(m[0])
	}
	if m := coolingRe.FindStringSubmatch(text); m != nil {
		params["cooling_type"] = strings.ToUpper(m[1])
	}
	if m := impedanceRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			params["impedance_percent"] = v
		}
	}

	return params
}

func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// canonicalVectorGroup renders a vector group in its usual casing:
// upper-case HV winding letter, lower-case the rest ("Dyn11").
func canonicalVectorGroup(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// fallbackSummary replaces an absent or non-string summary so the contract
// never leaves this layer with an empty narrative.
const fallbackSummary = "Analysis completed, but no summary was provided by the reasoning service."

const fallbackComparisonSummary = "Comparison completed, but no summary was provided by the reasoning service."

// stripCodeFences removes surrounding markdown code-fence markers that
// reasoning providers often wrap JSON bodies in.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseResult decodes loosely structured provider JSON and coerces it into
// the strict Result contract. Only a JSON parse failure is an error, and it
// counts as a provider failure upstream; every field-level problem is
// resolved by defaulting.
func parseResult(raw string) (Result, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &doc); err != nil {
		return Result{}, fmt.Errorf("parse analysis response: %w", err)
	}

	res := Result{
		RiskScore:        clampScore(asInt(doc["riskScore"])),
		RedFlags:         asRedFlags(doc["redFlags"]),
		KeywordsDetected: asStrings(doc["keywordsDetected"]),
		Summary:          asStringOr(doc["summary"], fallbackSummary),
		Recommendations:  asStrings(doc["recommendations"]),
		PatternsDetected: asPatterns(doc["patternsDetected"]),
	}
	return res, nil
}

// parseComparison is the ComparisonResult counterpart of parseResult.
func parseComparison(raw string) (ComparisonResult, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &doc); err != nil {
		return ComparisonResult{}, fmt.Errorf("parse comparison response: %w", err)
	}

	res := ComparisonResult{
		Trend:              asEnumOr(doc["trend"], "stable", "improving", "worsening", "stable", "mixed"),
		RiskTrend:          asRiskTrend(doc["riskTrend"]),
		CommonPatterns:     asCommonPatterns(doc["commonPatterns"]),
		EscalationDetected: asBool(doc["escalationDetected"]),
		Insights:           asStrings(doc["insights"]),
		Recommendations:    asStrings(doc["recommendations"]),
		Summary:            asStringOr(doc["summary"], fallbackComparisonSummary),
	}
	if m, ok := doc["escalationDetails"].(map[string]any); ok {
		res.EscalationDetails = &EscalationDetails{
			Severity:    asStringOr(m["severity"], "medium"),
			Description: asStringOr(m["description"], ""),
			Evidence:    asStrings(m["evidence"]),
		}
	}
	return res, nil
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// asInt coerces a JSON value to int; missing or non-numeric values become 0.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return int(f)
		}
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f
		}
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asStringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func asEnumOr(v any, fallback string, allowed ...string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return fallback
}

// asStrings coerces a JSON value into a string slice, never nil. Non-array
// values and non-string elements are dropped.
func asStrings(v any) []string {
	out := []string{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asRedFlags(v any) []RedFlag {
	out := []RedFlag{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, RedFlag{
			Type:     asStringOr(m["type"], "unspecified"),
			Severity: asEnumOr(m["severity"], "medium", "low", "medium", "high", "critical"),
			Message:  asStringOr(m["message"], ""),
			Context:  asStringOr(m["context"], ""),
			Keyword:  asStringOr(m["keyword"], ""),
		})
	}
	return out
}

func asPatterns(v any) []PatternDetected {
	out := []PatternDetected{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, PatternDetected{
			Pattern:     asStringOr(m["pattern"], "unspecified"),
			Description: asStringOr(m["description"], ""),
			Examples:    asStrings(m["examples"]),
		})
	}
	return out
}

func asRiskTrend(v any) RiskTrend {
	m, ok := v.(map[string]any)
	if !ok {
		return RiskTrend{Direction: "stable"}
	}
	return RiskTrend{
		Direction:   asEnumOr(m["direction"], "stable", "increasing", "decreasing", "stable"),
		Change:      asFloat(m["change"]),
		Description: asStringOr(m["description"], ""),
	}
}

func asCommonPatterns(v any) []CommonPattern {
	out := []CommonPattern{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, CommonPattern{
			Pattern:     asStringOr(m["pattern"], "unspecified"),
			Frequency:   asInt(m["frequency"]),
			Severity:    asEnumOr(m["severity"], "medium", "low", "medium", "high", "critical"),
			Description: asStringOr(m["description"], ""),
		})
	}
	return out
}

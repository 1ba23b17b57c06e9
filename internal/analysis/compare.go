package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Comparison input bounds. Violations are caller errors, surfaced before any
// provider call is made.
const (
	MinCompareAnalyses = 2
	MaxCompareAnalyses = 5
)

// ErrInvalidComparisonInput marks a caller error in the comparison boundary:
// analysis count out of range, or referenced analyses missing.
var ErrInvalidComparisonInput = errors.New("invalid comparison input")

const digestSummaryLimit = 400

// Compare asks the provider chain for a trend summary across 2-5 previously
// stored analyses. Inputs are sorted chronologically and reduced to compact
// digests; no character-budget truncation is needed beyond that.
func (o *Orchestrator) Compare(ctx context.Context, records []Record) (*ComparisonResult, *ProviderUsage, error) {
	if len(records) < MinCompareAnalyses || len(records) > MaxCompareAnalyses {
		return nil, nil, fmt.Errorf("%w: expected %d-%d analyses, got %d",
			ErrInvalidComparisonInput, MinCompareAnalyses, MaxCompareAnalyses, len(records))
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	user := fmt.Sprintf(comparisonUserPrompt, digestRecords(sorted))

	o.logger.Info("running comparison", "analyses", len(sorted))

	var result ComparisonResult
	res, err := o.chain.Do(ctx, comparisonSystemPrompt, user, maxResponseTokens, func(text string) error {
		r, err := parseComparison(text)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	usage := usageFrom(res)
	o.logger.Info("comparison complete",
		"provider", usage.Provider,
		"trend", result.Trend,
		"escalation", result.EscalationDetected,
	)

	return &result, usage, nil
}

// digestRecords builds the compact per-analysis digest: risk score, platform,
// red-flag types with severities, top pattern names, a truncated summary, and
// the top three recommendations.
func digestRecords(records []Record) string {
	var sb strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&sb, "--- Analysis %d of %d (%s) ---\n", i+1, len(records), rec.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(&sb, "Platform: %s\n", rec.Platform)
		fmt.Fprintf(&sb, "Risk score: %d\n", rec.Result.RiskScore)

		if len(rec.Result.RedFlags) > 0 {
			sb.WriteString("Red flags:\n")
			for _, f := range rec.Result.RedFlags {
				fmt.Fprintf(&sb, "  - %s (%s)\n", f.Type, f.Severity)
			}
		}

		if len(rec.Result.PatternsDetected) > 0 {
			names := make([]string, 0, len(rec.Result.PatternsDetected))
			for _, p := range rec.Result.PatternsDetected {
				names = append(names, p.Pattern)
			}
			fmt.Fprintf(&sb, "Patterns: %s\n", strings.Join(names, ", "))
		}

		summary := rec.Result.Summary
		if len(summary) > digestSummaryLimit {
			summary = summary[:digestSummaryLimit] + "..."
		}
		fmt.Fprintf(&sb, "Summary: %s\n", summary)

		recs := rec.Result.Recommendations
		if len(recs) > 3 {
			recs = recs[:3]
		}
		for _, r := range recs {
			fmt.Fprintf(&sb, "Recommendation: %s\n", r)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

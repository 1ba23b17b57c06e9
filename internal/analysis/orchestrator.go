package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brightline-app/triage/internal/provider"
)

const maxResponseTokens = 4096

// Orchestrator builds bounded reasoning requests, runs them through the
// provider chain, and normalizes whatever comes back into the strict result
// contracts.
type Orchestrator struct {
	chain  *provider.Chain
	logger *slog.Logger
}

func NewOrchestrator(chain *provider.Chain, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{chain: chain, logger: logger}
}

// Analyze runs one risk analysis. It returns an AllProvidersFailedError only
// after every configured provider has failed; any single provider's failure
// (including malformed JSON) is resolved internally by failover.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*Result, *ProviderUsage, error) {
	user := fmt.Sprintf(analysisUserPrompt,
		req.Platform,
		strings.Join(req.Participants, ", "),
		req.TotalMessages,
		req.DateRange.Start,
		req.DateRange.End,
		formatSample(req.Sample),
		boundText(req.ChatText),
	)

	o.logger.Info("running analysis",
		"platform", req.Platform,
		"participants", len(req.Participants),
		"total_messages", req.TotalMessages,
		"text_len", len(req.ChatText),
	)

	var result Result
	res, err := o.chain.Do(ctx, analysisSystemPrompt, user, maxResponseTokens, func(text string) error {
		r, err := parseResult(text)
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
	o.logger.Info("analysis complete",
		"provider", usage.Provider,
		"risk_score", result.RiskScore,
		"red_flags", len(result.RedFlags),
		"patterns", len(result.PatternsDetected),
	)

	return &result, usage, nil
}

func usageFrom(res *provider.Result) *ProviderUsage {
	return &ProviderUsage{
		Provider:       res.Provider,
		Model:          res.Model,
		InputTokens:    res.InputTokens,
		OutputTokens:   res.OutputTokens,
		ResponseTimeMs: res.ElapsedMs,
	}
}

// formatSample renders the recent-message sample as indented JSON so the
// model sees unambiguous sender/message/timestamp boundaries.
func formatSample(sample any) string {
	b, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

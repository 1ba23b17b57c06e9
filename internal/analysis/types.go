package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/brightline-app/triage/internal/chatparse"
)

// RedFlag is a specific concerning statement or behavior identified in a
// conversation.
type RedFlag struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // low | medium | high | critical
	Message  string `json:"message"`
	Context  string `json:"context"`
	Keyword  string `json:"keyword,omitempty"`
}

// PatternDetected is a recurring behavioral theme spanning multiple messages.
type PatternDetected struct {
	Pattern     string   `json:"pattern"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

// Result is the normalized analysis contract. After normalization the risk
// score is always within [0,100] and every slice field is non-nil.
type Result struct {
	RiskScore        int               `json:"riskScore"`
	RedFlags         []RedFlag         `json:"redFlags"`
	KeywordsDetected []string          `json:"keywordsDetected"`
	Summary          string            `json:"summary"`
	Recommendations  []string          `json:"recommendations"`
	PatternsDetected []PatternDetected `json:"patternsDetected"`
}

// ProviderUsage is the observability record for the provider call that
// produced a result. It is attached for audit and never affects validity.
type ProviderUsage struct {
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	InputTokens    int    `json:"inputTokens"`
	OutputTokens   int    `json:"outputTokens"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
}

// Request carries everything the orchestrator needs to build one reasoning
// call: the extracted digest plus the parse-derived context.
type Request struct {
	ChatText      string
	Platform      string
	Participants  []string
	TotalMessages int
	DateRange     chatparse.DateRange
	Sample        []chatparse.SampleMessage
}

// RiskTrend describes how the risk score moved across compared analyses.
type RiskTrend struct {
	Direction   string  `json:"direction"` // increasing | decreasing | stable
	Change      float64 `json:"change"`
	Description string  `json:"description"`
}

// CommonPattern is a pattern recurring across compared analyses.
type CommonPattern struct {
	Pattern     string `json:"pattern"`
	Frequency   int    `json:"frequency"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// EscalationDetails carries evidence when escalation was detected.
type EscalationDetails struct {
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`
}

// ComparisonResult is the normalized cross-analysis trend contract.
type ComparisonResult struct {
	Trend              string             `json:"trend"` // improving | worsening | stable | mixed
	RiskTrend          RiskTrend          `json:"riskTrend"`
	CommonPatterns     []CommonPattern    `json:"commonPatterns"`
	EscalationDetected bool               `json:"escalationDetected"`
	EscalationDetails  *EscalationDetails `json:"escalationDetails,omitempty"`
	Insights           []string           `json:"insights"`
	Recommendations    []string           `json:"recommendations"`
	Summary            string             `json:"summary"`
}

// Record is a previously stored analysis, the comparison engine's input.
type Record struct {
	ID        uuid.UUID     `json:"id"`
	OwnerID   string        `json:"ownerId"`
	Platform  string        `json:"platform"`
	CreatedAt time.Time     `json:"createdAt"`
	Result    Result        `json:"result"`
	Usage     ProviderUsage `json:"usage"`
}

package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/brightline-app/triage/internal/chatparse"
	"github.com/brightline-app/triage/internal/provider"
)

type scriptedProvider struct {
	name     string
	text     string
	err      error
	calls    int
	lastUser string
	lastSys  string
}

func (s *scriptedProvider) Name() string  { return s.name }
func (s *scriptedProvider) Model() string { return "test-model" }

func (s *scriptedProvider) Complete(_ context.Context, system, user string, _ int) (provider.Completion, error) {
	s.calls++
	s.lastSys = system
	s.lastUser = user
	if s.err != nil {
		return provider.Completion{}, s.err
	}
	return provider.Completion{Text: s.text, InputTokens: 100, OutputTokens: 50}, nil
}

func newTestOrchestrator(providers ...provider.Provider) *Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrchestrator(provider.NewChain(logger, providers...), logger)
}

func TestAnalyze_Success(t *testing.T) {
	p := &scriptedProvider{name: "primary", text: `{"riskScore": 65, "summary": "worrying"}`}
	o := newTestOrchestrator(p)

	req := Request{
		ChatText:      "Alice: Hello\nBob: I know where you live",
		Platform:      "whatsapp",
		Participants:  []string{"Alice", "Bob"},
		TotalMessages: 2,
		DateRange:     chatparse.DateRange{Start: "01/02/23", End: "01/02/23"},
		Sample: []chatparse.SampleMessage{
			{Sender: "Bob", Message: "I know where you live", Timestamp: "01/02/23 10:16 AM"},
		},
	}

	result, usage, err := o.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RiskScore != 65 {
		t.Errorf("riskScore = %d, want 65", result.RiskScore)
	}
	if usage.Provider != "primary" || usage.Model != "test-model" {
		t.Errorf("usage = %+v", usage)
	}
	if usage.InputTokens != 100 || usage.OutputTokens != 50 {
		t.Errorf("token counts = %d/%d", usage.InputTokens, usage.OutputTokens)
	}

	// The request must carry the parse context and the transcript.
	for _, want := range []string{"whatsapp", "Alice, Bob", "Total messages: 2", "01/02/23", "I know where you live"} {
		if !strings.Contains(p.lastUser, want) {
			t.Errorf("request missing %q", want)
		}
	}
}

func TestAnalyze_FailoverToSecondProvider(t *testing.T) {
	a := &scriptedProvider{name: "primary", err: fmt.Errorf("503 overloaded")}
	b := &scriptedProvider{name: "fallback", text: `{"riskScore": 40}`}
	o := newTestOrchestrator(a, b)

	result, usage, err := o.Analyze(context.Background(), Request{ChatText: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 {
		t.Errorf("primary must be tried exactly once, called %d", a.calls)
	}
	if usage.Provider != "fallback" {
		t.Errorf("winner = %q, want fallback", usage.Provider)
	}
	if result.RiskScore != 40 {
		t.Errorf("riskScore = %d", result.RiskScore)
	}
}

func TestAnalyze_MalformedJSONTriggersFailover(t *testing.T) {
	a := &scriptedProvider{name: "primary", text: "Sure! Here's my analysis in prose form."}
	b := &scriptedProvider{name: "fallback", text: `{"riskScore": 55}`}
	o := newTestOrchestrator(a, b)

	result, usage, err := o.Analyze(context.Background(), Request{ChatText: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.Provider != "fallback" {
		t.Errorf("malformed JSON should advance the chain, winner = %q", usage.Provider)
	}
	if result.RiskScore != 55 {
		t.Errorf("riskScore = %d", result.RiskScore)
	}
}

func TestAnalyze_AllProvidersFail(t *testing.T) {
	a := &scriptedProvider{name: "primary", err: fmt.Errorf("down")}
	b := &scriptedProvider{name: "fallback", err: fmt.Errorf("also down")}
	o := newTestOrchestrator(a, b)

	result, usage, err := o.Analyze(context.Background(), Request{ChatText: "x"})
	if result != nil || usage != nil {
		t.Error("no partial result may be returned when all providers fail")
	}

	var allFailed *provider.AllProvidersFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllProvidersFailedError, got %v", err)
	}
	if len(allFailed.Attempted) != 2 {
		t.Errorf("attempted = %v", allFailed.Attempted)
	}
}

func TestAnalyze_CodeFencedResponse(t *testing.T) {
	p := &scriptedProvider{name: "primary", text: "```json\n{\"riskScore\": 20}\n```"}
	o := newTestOrchestrator(p)

	result, _, err := o.Analyze(context.Background(), Request{ChatText: "x"})
	if err != nil {
		t.Fatalf("fenced response must parse: %v", err)
	}
	if result.RiskScore != 20 {
		t.Errorf("riskScore = %d, want 20", result.RiskScore)
	}
}

func TestAnalyze_OversizedTextBounded(t *testing.T) {
	p := &scriptedProvider{name: "primary", text: `{"riskScore": 10}`}
	o := newTestOrchestrator(p)

	req := Request{ChatText: strings.Repeat("x", 20000)}
	if _, _, err := o.Analyze(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(p.lastUser, strings.Repeat("x", headKeep+tailKeep+1)) {
		t.Error("request body exceeds the truncation budget")
	}
	if !strings.Contains(p.lastUser, "[... 6000 characters omitted ...]") {
		t.Error("omission marker missing from request")
	}
}

func makeRecord(daysAgo int, score int) Record {
	return Record{
		CreatedAt: time.Now().AddDate(0, 0, -daysAgo),
		Platform:  "whatsapp",
		Result: Result{
			RiskScore:       score,
			RedFlags:        []RedFlag{{Type: "threat", Severity: "high"}},
			Summary:         "summary text",
			Recommendations: []string{"one", "two", "three", "four"},
			PatternsDetected: []PatternDetected{
				{Pattern: "isolation"},
			},
		},
	}
}

func TestCompare_CountBoundsRejectedBeforeProviderCall(t *testing.T) {
	p := &scriptedProvider{name: "primary", text: `{}`}
	o := newTestOrchestrator(p)

	for _, n := range []int{0, 1, 6} {
		var records []Record
		for i := 0; i < n; i++ {
			records = append(records, makeRecord(i, 50))
		}
		_, _, err := o.Compare(context.Background(), records)
		if !errors.Is(err, ErrInvalidComparisonInput) {
			t.Errorf("n=%d: expected ErrInvalidComparisonInput, got %v", n, err)
		}
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times for invalid input, want 0", p.calls)
	}
}

func TestCompare_SortsChronologically(t *testing.T) {
	p := &scriptedProvider{name: "primary", text: `{"trend": "worsening"}`}
	o := newTestOrchestrator(p)

	// Passed newest first; digest must come out oldest first.
	records := []Record{makeRecord(1, 80), makeRecord(30, 20)}

	result, _, err := o.Compare(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trend != "worsening" {
		t.Errorf("trend = %q", result.Trend)
	}

	first := strings.Index(p.lastUser, "Risk score: 20")
	second := strings.Index(p.lastUser, "Risk score: 80")
	if first == -1 || second == -1 || first > second {
		t.Errorf("digest not in chronological order:\n%s", p.lastUser)
	}
}

func TestCompare_DigestBoundsRecommendations(t *testing.T) {
	p := &scriptedProvider{name: "primary", text: `{}`}
	o := newTestOrchestrator(p)

	if _, _, err := o.Compare(context.Background(), []Record{makeRecord(2, 10), makeRecord(1, 20)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(p.lastUser, "Recommendation: four") {
		t.Error("digest should carry at most 3 recommendations per analysis")
	}
}

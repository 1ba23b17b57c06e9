package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Complete(_ context.Context, _, _ string, _ int) (Completion, error) {
	f.calls++
	if f.err != nil {
		return Completion{}, f.err
	}
	return Completion{Text: f.text, InputTokens: 10, OutputTokens: 5}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func acceptAll(string) error { return nil }

func TestChain_FirstProviderWins(t *testing.T) {
	a := &fakeProvider{name: "a", text: "from a"}
	b := &fakeProvider{name: "b", text: "from b"}
	chain := NewChain(testLogger(), a, b)

	res, err := chain.Do(context.Background(), "sys", "user", 100, acceptAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "a" || res.Text != "from a" {
		t.Errorf("result = %q from %q, want 'from a' from a", res.Text, res.Provider)
	}
	if b.calls != 0 {
		t.Errorf("provider b called %d times, want 0", b.calls)
	}
}

func TestChain_FailoverOnError(t *testing.T) {
	a := &fakeProvider{name: "a", err: fmt.Errorf("boom")}
	b := &fakeProvider{name: "b", text: "from b"}
	chain := NewChain(testLogger(), a, b)

	res, err := chain.Do(context.Background(), "sys", "user", 100, acceptAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "b" {
		t.Errorf("winner = %q, want b", res.Provider)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = a:%d b:%d, want 1 each", a.calls, b.calls)
	}
}

func TestChain_NoRetrySameProvider(t *testing.T) {
	a := &fakeProvider{name: "a", err: fmt.Errorf("boom")}
	chain := NewChain(testLogger(), a)

	_, err := chain.Do(context.Background(), "sys", "user", 100, acceptAll)
	if err == nil {
		t.Fatal("expected error")
	}
	if a.calls != 1 {
		t.Errorf("provider a called %d times, want exactly 1", a.calls)
	}
}

func TestChain_AllFail(t *testing.T) {
	a := &fakeProvider{name: "a", err: fmt.Errorf("boom a")}
	b := &fakeProvider{name: "b", err: fmt.Errorf("boom b")}
	chain := NewChain(testLogger(), a, b)

	_, err := chain.Do(context.Background(), "sys", "user", 100, acceptAll)

	var allFailed *AllProvidersFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllProvidersFailedError, got %v", err)
	}
	if len(allFailed.Attempted) != 2 {
		t.Fatalf("attempted = %v, want both providers named", allFailed.Attempted)
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("error should name all providers: %v", err)
	}
}

func TestChain_RejectionTriggersFailover(t *testing.T) {
	a := &fakeProvider{name: "a", text: "not json"}
	b := &fakeProvider{name: "b", text: `{"ok":true}`}
	chain := NewChain(testLogger(), a, b)

	accept := func(text string) error {
		if !strings.HasPrefix(text, "{") {
			return fmt.Errorf("malformed response")
		}
		return nil
	}

	res, err := chain.Do(context.Background(), "sys", "user", 100, accept)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "b" {
		t.Errorf("winner = %q, want b after a's rejection", res.Provider)
	}
}

package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Completion is the raw text outcome of one provider call plus token counts
// for the usage record.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is one external reasoning service. A single call, no internal
// retries: failover policy belongs to the Chain.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system, user string, maxTokens int) (Completion, error)
}

// Result is the completion that won, annotated with which provider produced
// it and how long the call took.
type Result struct {
	Completion
	Provider  string
	Model     string
	ElapsedMs int64
}

// AllProvidersFailedError is raised only after every configured provider has
// failed. It names each provider attempted.
type AllProvidersFailedError struct {
	Attempted []string
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed: %s", strings.Join(e.Attempted, ", "))
}

// Chain tries providers in priority order and stops at the first acceptable
// response. Calls are sequential: failover needs the prior outcome before
// spending the next provider's quota.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Len reports how many providers are configured.
func (c *Chain) Len() int { return len(c.providers) }

// Do runs the chain. accept validates the raw completion text (typically by
// parsing it against a response schema); a rejection counts as a provider
// failure and advances the chain, since a different provider may well return
// valid output for the same prompt. Each provider gets exactly one attempt.
func (c *Chain) Do(ctx context.Context, system, user string, maxTokens int, accept func(text string) error) (*Result, error) {
	var attempted []string

	for _, p := range c.providers {
		attempted = append(attempted, p.Name())

		start := time.Now()
		comp, err := p.Complete(ctx, system, user, maxTokens)
		if err != nil {
			c.logger.Warn("provider call failed",
				"provider", p.Name(),
				"model", p.Model(),
				"error", err,
			)
			continue
		}

		if err := accept(comp.Text); err != nil {
			c.logger.Warn("provider response rejected",
				"provider", p.Name(),
				"model", p.Model(),
				"error", err,
			)
			continue
		}

		return &Result{
			Completion: comp,
			Provider:   p.Name(),
			Model:      p.Model(),
			ElapsedMs:  time.Since(start).Milliseconds(),
		}, nil
	}

	return nil, &AllProvidersFailedError{Attempted: attempted}
}

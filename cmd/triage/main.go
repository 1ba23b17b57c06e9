package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightline-app/triage/internal/analysis"
	"github.com/brightline-app/triage/internal/api"
	"github.com/brightline-app/triage/internal/bus"
	"github.com/brightline-app/triage/internal/config"
	"github.com/brightline-app/triage/internal/provider"
	"github.com/brightline-app/triage/internal/ratelimit"
	"github.com/brightline-app/triage/internal/store"
)

func main() {
	// Local development convenience; production relies on real env vars.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("triage starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Provider chain, in failover order
	chain := buildChain(cfg)
	if chain.Len() == 0 {
		slog.Error("no analysis provider configured — set ANTHROPIC_API_KEY or OPENAI_API_KEY")
		os.Exit(1)
	}
	slog.Info("provider chain ready", "providers", chain.Len())

	orch := analysis.NewOrchestrator(chain, slog.Default())

	// Event bus (optional — analyses still run without it, just no events)
	var events api.EventPublisher
	if cfg.NatsURL != "" {
		busClient, err := bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()
		events = busClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without lifecycle events")
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RateLimitPerHour > 0 {
		limiter = ratelimit.NewWindow(cfg.RateLimitPerHour, time.Hour)
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, orch, db, limiter, events, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("triage ready", "port", cfg.Port, "rate_limit_per_hour", cfg.RateLimitPerHour)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("triage stopped")
}

// buildChain assembles the failover order: primary Anthropic, fallback
// Anthropic, then OpenAI-compatible. Providers without credentials are skipped.
func buildChain(cfg config.Config) *provider.Chain {
	var providers []provider.Provider
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, provider.NewAnthropic("anthropic-primary", cfg.AnthropicAPIKey, cfg.AnthropicModel))
	}
	if cfg.AnthropicFallbackAPIKey != "" {
		providers = append(providers, provider.NewAnthropic("anthropic-fallback", cfg.AnthropicFallbackAPIKey, cfg.AnthropicFallbackModel))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, provider.NewOpenAI("openai", cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL))
	}
	return provider.NewChain(slog.Default(), providers...)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

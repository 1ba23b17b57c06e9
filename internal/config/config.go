package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        int
	NatsURL     string
	NatsToken   string
	DatabaseURL string
	LogLevel    string
	APIToken    string

	AnthropicAPIKey         string
	AnthropicModel          string
	AnthropicFallbackAPIKey string
	AnthropicFallbackModel  string
	OpenAIAPIKey            string
	OpenAIModel             string
	OpenAIBaseURL           string

	RateLimitPerHour int
}

func Load() Config {
	return Config{
		Port:        envInt("TRIAGE_PORT", 8760),
		NatsURL:     envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		APIToken:    envStr("TRIAGE_API_TOKEN", ""),

		AnthropicAPIKey:         envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:          envStr("TRIAGE_MODEL", "claude-sonnet-4-20250514"),
		AnthropicFallbackAPIKey: envStr("ANTHROPIC_FALLBACK_API_KEY", ""),
		AnthropicFallbackModel:  envStr("TRIAGE_FALLBACK_MODEL", "claude-3-5-haiku-20241022"),
		OpenAIAPIKey:            envStr("OPENAI_API_KEY", ""),
		OpenAIModel:             envStr("TRIAGE_OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:           envStr("OPENAI_BASE_URL", ""),

		RateLimitPerHour: envInt("TRIAGE_RATE_LIMIT", 10),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

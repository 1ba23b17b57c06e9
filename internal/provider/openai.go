package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI is the different-vendor last resort of the chain. A custom base URL
// points it at any OpenAI-compatible host (OpenRouter, Groq, a local proxy).
type OpenAI struct {
	name   string
	model  string
	client openaigo.Client
}

func NewOpenAI(name, apiKey, model, baseURL string) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
		option.WithMaxRetries(0), // one attempt per provider; failover owns retry policy
	}
	if u := strings.TrimRight(strings.TrimSpace(baseURL), "/"); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}

	return &OpenAI{
		name:   name,
		model:  model,
		client: openaigo.NewClient(opts...),
	}
}

func (o *OpenAI) Name() string  { return o.name }
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Complete(ctx context.Context, system, user string, maxTokens int) (Completion, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(o.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(system),
			openaigo.UserMessage(user),
		},
		MaxCompletionTokens: openaigo.Int(int64(maxTokens)),
	})
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("empty response choices")
	}

	return Completion{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

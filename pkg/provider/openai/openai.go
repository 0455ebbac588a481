package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/provider/common"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = openai.GPT4oMini
	// DefaultTemperature favours varied, natural prose.
	DefaultTemperature = 0.7
	// DefaultMaxTokens is the default maximum tokens per completion
	DefaultMaxTokens = 2000
)

// Provider implements the OpenAI provider. It also serves any
// OpenAI-compatible API through a custom base URL.
type Provider struct {
	client      *openai.Client
	name        string
	model       string
	temperature float32
	maxTokens   int
}

// New creates a new OpenAI provider
func New(config provider.Config) (*Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set\n\n" +
			"To use OpenAI:\n" +
			"  1. Get an API key from: https://platform.openai.com/api-keys\n" +
			"  2. Export it as an environment variable:\n" +
			"     export OPENAI_API_KEY=sk-...\n" +
			"  3. Or add it to a .env file in the working directory\n\n" +
			"Alternatively, use Claude instead:\n" +
			"  --provider=claude")
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := float32(config.Temperature)
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	name := config.Name
	if name == "" {
		name = "openai"
	}

	// Create client configuration
	clientConfig := openai.DefaultConfig(apiKey)

	// Support custom base URLs for OpenAI-compatible APIs (Groq, Ollama, etc.)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Provider{
		client:      openai.NewClientWithConfig(clientConfig),
		name:        name,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return p.name
}

// Complete sends a system and user message pair to the chat completions API.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPrompt,
			},
		},
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, enhanceAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, enhanceAPIError(errors.New("response contained no choices"))
	}

	return &provider.CompletionResponse{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
		Cost:       estimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}, nil
}

// estimateCost uses gpt-4o-mini pricing: $0.15/$0.60 per 1M tokens.
func estimateCost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*0.15/1000000.0 + float64(completionTokens)*0.60/1000000.0
}

// enhanceAPIError adds helpful context to OpenAI API errors using the common error handler.
func enhanceAPIError(err error) error {
	return common.EnhanceAPIError(err, common.ProviderErrorContext{
		ProviderName:      "OpenAI",
		APIKeysURL:        "https://platform.openai.com/api-keys",
		StatusPageURL:     "https://status.openai.com",
		BillingURL:        "https://platform.openai.com/account/billing",
		AlternateProvider: "claude",
	})
}

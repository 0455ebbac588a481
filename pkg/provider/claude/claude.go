package claude

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/provider/common"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = string(anthropic.ModelClaudeSonnet4_5)
	// DefaultTemperature favours varied, natural prose.
	DefaultTemperature = 0.7
	// DefaultMaxTokens is the default maximum tokens per completion
	DefaultMaxTokens = 2000
)

// jsonInstruction is appended to the system prompt for JSON calls, since the
// Messages API has no response-format switch.
const jsonInstruction = "Respond with a single JSON object and nothing else. Do not wrap it in Markdown."

// Messager is the subset of the Messages API the provider uses.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type clientCreator func(apiKey string) Messager

func defaultCreator(apiKey string) Messager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newClient clientCreator = defaultCreator

// Provider implements the Claude AI provider
type Provider struct {
	messages    Messager
	model       string
	temperature float64
	maxTokens   int
}

// New creates a new Claude provider
func New(config provider.Config) (*Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set\n\n" +
			"To use Claude (Anthropic):\n" +
			"  1. Get an API key from: https://console.anthropic.com/settings/keys\n" +
			"  2. Export it as an environment variable:\n" +
			"     export ANTHROPIC_API_KEY=sk-ant-...\n" +
			"  3. Or add it to a .env file in the working directory\n\n" +
			"Alternatively, use OpenAI instead:\n" +
			"  --provider=openai")
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Provider{
		messages:    newClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "claude"
}

// Complete sends the prompt pair to the Messages API and joins the text
// blocks of the reply.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	system := req.SystemPrompt
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt))},
		Temperature: anthropic.Float(p.temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := p.messages.New(ctx, params)
	if err != nil {
		return nil, enhanceAPIError(err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, enhanceAPIError(errors.New("response contained no text blocks"))
	}

	input := int(message.Usage.InputTokens)
	output := int(message.Usage.OutputTokens)
	return &provider.CompletionResponse{
		Text:       sb.String(),
		TokensUsed: input + output,
		Cost:       estimateCost(input, output),
	}, nil
}

// estimateCost uses Sonnet pricing: $3/$15 per 1M tokens.
func estimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*3.0/1000000.0 + float64(outputTokens)*15.0/1000000.0
}

// enhanceAPIError adds helpful context to Claude API errors using the common error handler.
func enhanceAPIError(err error) error {
	return common.EnhanceAPIError(err, common.ProviderErrorContext{
		ProviderName:      "Claude",
		APIKeysURL:        "https://console.anthropic.com/settings/keys",
		StatusPageURL:     "https://status.anthropic.com",
		BillingURL:        "https://console.anthropic.com/settings/billing",
		AlternateProvider: "OpenAI",
	})
}

package provider

import (
	"context"
	"os"
)

// Provider is a text/JSON completion backend used to generate estimate content.
type Provider interface {
	// Name returns the provider name (e.g., "claude", "openai")
	Name() string

	// Complete sends one system + user message pair and returns the reply text.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single role-tagged prompt.
type CompletionRequest struct {
	SystemPrompt string // Instructions for the model
	UserPrompt   string // Project data for this request
	JSON         bool   // Request a strict JSON object response
	MaxTokens    int    // Overrides the provider default when > 0
	Label        string // Short name used in logs and progress output
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Text       string  // Raw reply text
	TokensUsed int     // Number of tokens consumed
	Cost       float64 // Approximate cost in USD
}

// Config holds provider configuration
type Config struct {
	Name        string  // Provider name: claude, openai, or an OpenAI-compatible preset
	APIKey      string  // API key
	Model       string  // Model to use
	BaseURL     string  // Base URL for OpenAI-compatible APIs
	Temperature float64 // Temperature (0.0-1.0)
	MaxTokens   int     // Default completion token limit
}

// Preset describes an OpenAI-compatible endpoint.
type Preset struct {
	BaseURL      string
	DefaultModel string
	Description  string
	APIKeyEnv    string
}

// ProviderPresets lists OpenAI-compatible services selectable by name.
var ProviderPresets = map[string]Preset{
	"groq": {
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama-3.3-70b-versatile",
		Description:  "Groq - fast inference for open models",
		APIKeyEnv:    "GROQ_API_KEY",
	},
	"together": {
		BaseURL:      "https://api.together.xyz/v1",
		DefaultModel: "meta-llama/Llama-3.3-70B-Instruct-Turbo",
		Description:  "Together AI - hosted open models",
		APIKeyEnv:    "TOGETHER_API_KEY",
	},
	"openrouter": {
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "openai/gpt-4o-mini",
		Description:  "OpenRouter - unified API for many providers",
		APIKeyEnv:    "OPENROUTER_API_KEY",
	},
	"ollama": {
		BaseURL:      "http://localhost:11434/v1",
		DefaultModel: "llama3.1",
		Description:  "Ollama - local models",
		APIKeyEnv:    "OLLAMA_API_KEY",
	},
	"lmstudio": {
		BaseURL:      "http://localhost:1234/v1",
		DefaultModel: "local-model",
		Description:  "LM Studio - local models",
		APIKeyEnv:    "LMSTUDIO_API_KEY",
	},
}

var getenv = os.Getenv

// ApplyPreset fills BaseURL, model and API key from a named preset. Explicit
// config values win. ok is false when name is not a preset.
func ApplyPreset(config Config) (Config, bool) {
	preset, ok := ProviderPresets[config.Name]
	if !ok {
		return config, false
	}
	if config.BaseURL == "" {
		config.BaseURL = preset.BaseURL
	}
	if config.Model == "" {
		config.Model = preset.DefaultModel
	}
	if config.APIKey == "" {
		config.APIKey = getenv(preset.APIKeyEnv)
	}
	// Local servers accept any key.
	if config.APIKey == "" && (config.Name == "ollama" || config.Name == "lmstudio") {
		config.APIKey = config.Name
	}
	return config, true
}

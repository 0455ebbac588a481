package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderPresets(t *testing.T) {
	tests := []struct {
		name         string
		presetName   string
		expectedURL  string
		expectExists bool
	}{
		{
			name:         "groq preset exists",
			presetName:   "groq",
			expectedURL:  "https://api.groq.com/openai/v1",
			expectExists: true,
		},
		{
			name:         "together preset exists",
			presetName:   "together",
			expectedURL:  "https://api.together.xyz/v1",
			expectExists: true,
		},
		{
			name:         "ollama preset exists",
			presetName:   "ollama",
			expectedURL:  "http://localhost:11434/v1",
			expectExists: true,
		},
		{
			name:         "lmstudio preset exists",
			presetName:   "lmstudio",
			expectedURL:  "http://localhost:1234/v1",
			expectExists: true,
		},
		{
			name:         "openrouter preset exists",
			presetName:   "openrouter",
			expectedURL:  "https://openrouter.ai/api/v1",
			expectExists: true,
		},
		{
			name:         "unknown preset",
			presetName:   "unknown",
			expectExists: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset, exists := ProviderPresets[tt.presetName]

			assert.Equal(t, tt.expectExists, exists)

			if exists {
				assert.Equal(t, tt.expectedURL, preset.BaseURL)
				assert.NotEmpty(t, preset.Description)
				assert.NotEmpty(t, preset.DefaultModel)
			}
		})
	}
}

func TestProviderPreset_Structure(t *testing.T) {
	// Verify all presets have required fields
	require.NotEmpty(t, ProviderPresets, "ProviderPresets should not be empty")

	for name, preset := range ProviderPresets {
		t.Run(name, func(t *testing.T) {
			assert.NotEmpty(t, preset.BaseURL, "BaseURL should not be empty")
			assert.NotEmpty(t, preset.Description, "Description should not be empty")
			assert.NotEmpty(t, preset.DefaultModel, "DefaultModel should not be empty")

			// Verify BaseURL format
			assert.Contains(t, preset.BaseURL, "://", "BaseURL should be a valid URL")
		})
	}
}

func TestApplyPreset(t *testing.T) {
	restore := getenv
	t.Cleanup(func() { getenv = restore })
	getenv = func(key string) string {
		if key == "GROQ_API_KEY" {
			return "gsk-env"
		}
		return ""
	}

	t.Run("fills empty fields", func(t *testing.T) {
		got, ok := ApplyPreset(Config{Name: "groq"})
		require.True(t, ok)
		assert.Equal(t, "https://api.groq.com/openai/v1", got.BaseURL)
		assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
		assert.Equal(t, "gsk-env", got.APIKey)
	})

	t.Run("explicit values win", func(t *testing.T) {
		got, ok := ApplyPreset(Config{Name: "groq", BaseURL: "http://proxy/v1", Model: "m", APIKey: "k"})
		require.True(t, ok)
		assert.Equal(t, "http://proxy/v1", got.BaseURL)
		assert.Equal(t, "m", got.Model)
		assert.Equal(t, "k", got.APIKey)
	})

	t.Run("local servers get a placeholder key", func(t *testing.T) {
		got, ok := ApplyPreset(Config{Name: "ollama"})
		require.True(t, ok)
		assert.Equal(t, "ollama", got.APIKey)
	})

	t.Run("unknown name is untouched", func(t *testing.T) {
		in := Config{Name: "claude", Model: "x"}
		got, ok := ApplyPreset(in)
		assert.False(t, ok)
		assert.Equal(t, in, got)
	})
}

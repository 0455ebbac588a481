package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders/estimate-ai/pkg/estimate"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "openai", config.Provider.Name)
	assert.Equal(t, "", config.Provider.Model)
	assert.Equal(t, "standard", config.Templates.Default)
	assert.Equal(t, estimate.CategoryQA, config.Budget.ProtectedCategory)
	assert.Equal(t, int64(1000000), config.Budget.ProtectedFloor)
	assert.Equal(t, 7, config.Schedule.LeadDays)
	assert.Equal(t, "127.0.0.1:8080", config.Server.Addr)
	assert.Equal(t, 30*time.Second, config.Export.Timeout)
	assert.Equal(t, "info", config.Logging.Level)
	assert.False(t, config.Logging.Development)
}

func TestLoad(t *testing.T) {
	t.Run("valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".estimate-ai.yaml")

		configContent := `
provider:
  name: claude
  model: claude-sonnet-4-5
  temperature: 0.3
  max-tokens: 4000

templates:
  dir: ./templates
  default: detailed
  prompts-dir: ./prompts

budget:
  protected-floor: 2000000
  per-item-minimum: 300000

schedule:
  lead-days: 14

server:
  addr: ":9090"

export:
  chrome-path: /usr/bin/chromium
  timeout: 45s
  output-dir: ./out

logging:
  level: debug
  development: true
`
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		config, err := Load(configPath)
		require.NoError(t, err)

		assert.Equal(t, "claude", config.Provider.Name)
		assert.Equal(t, "claude-sonnet-4-5", config.Provider.Model)
		assert.Equal(t, 0.3, config.Provider.Temperature)
		assert.Equal(t, 4000, config.Provider.MaxTokens)
		assert.Equal(t, "./templates", config.Templates.Dir)
		assert.Equal(t, "detailed", config.Templates.Default)
		assert.Equal(t, "./prompts", config.Templates.PromptsDir)
		assert.Equal(t, int64(2000000), config.Budget.ProtectedFloor)
		assert.Equal(t, int64(300000), config.Budget.PerItemMinimum)
		assert.Equal(t, 14, config.Schedule.LeadDays)
		assert.Equal(t, ":9090", config.Server.Addr)
		assert.Equal(t, "/usr/bin/chromium", config.Export.ChromePath)
		assert.Equal(t, 45*time.Second, config.Export.Timeout)
		assert.Equal(t, "./out", config.Export.OutputDir)
		assert.Equal(t, "debug", config.Logging.Level)
		assert.True(t, config.Logging.Development)
	})

	t.Run("partial config file with defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".estimate-ai.yaml")

		configContent := `
provider:
  name: groq

budget:
  small-floor: 50000
`
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		config, err := Load(configPath)
		require.NoError(t, err)

		// Specified values
		assert.Equal(t, "groq", config.Provider.Name)
		assert.Equal(t, int64(50000), config.Budget.SmallFloor)

		// Default values
		assert.Equal(t, "", config.Provider.Model)
		assert.Equal(t, int64(1000000), config.Budget.ProtectedFloor)
		assert.Equal(t, 0.1, config.Budget.ProtectedShare)
		assert.Equal(t, "127.0.0.1:8080", config.Server.Addr)
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".estimate-ai.yaml")

		invalidYAML := `
provider:
  name: claude
  invalid yaml here [[[
`
		err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
		require.NoError(t, err)

		_, err = Load(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides set values only", func(t *testing.T) {
		config := DefaultConfig()
		config.Templates.Dir = "./from-file"

		err := config.ApplyEnv(map[string]string{
			"OPENAI_API_KEY":     "sk-test",
			"ANTHROPIC_API_KEY":  "sk-ant",
			"ESTIMATE_PROVIDER":  "claude",
			"ESTIMATE_ADDR":      ":7000",
			"ESTIMATE_LOG_LEVEL": "warn",
			"CHROME_PATH":        "/opt/chrome",
		})
		require.NoError(t, err)

		assert.Equal(t, "claude", config.Provider.Name)
		assert.Equal(t, "", config.Provider.Model)
		assert.Equal(t, ":7000", config.Server.Addr)
		assert.Equal(t, "./from-file", config.Templates.Dir)
		assert.Equal(t, "warn", config.Logging.Level)
		assert.Equal(t, "/opt/chrome", config.Export.ChromePath)
		assert.Equal(t, "sk-ant", config.Provider.APIKey())
	})

	t.Run("empty environment keeps defaults", func(t *testing.T) {
		config := DefaultConfig()
		require.NoError(t, config.ApplyEnv(map[string]string{}))
		assert.Equal(t, "openai", config.Provider.Name)
		assert.Equal(t, "", config.Provider.APIKey())
	})
}

func TestProviderAPIKey(t *testing.T) {
	p := ProviderConfig{OpenAIKey: "o", AnthropicKey: "a"}
	tests := []struct {
		name string
		want string
	}{
		{"openai", "o"},
		{"", "o"},
		{"claude", "a"},
		{"anthropic", "a"},
		{"groq", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.Name = tt.name
			assert.Equal(t, tt.want, p.APIKey())
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds config in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		originalWd, _ := os.Getwd()
		defer os.Chdir(originalWd)

		err := os.Chdir(tmpDir)
		require.NoError(t, err)

		configPath := filepath.Join(tmpDir, ".estimate-ai.yaml")
		err = os.WriteFile(configPath, []byte("provider:\n  name: claude\n"), 0644)
		require.NoError(t, err)

		found := FindConfigFile()
		assert.Equal(t, ".estimate-ai.yaml", found)
	})

	t.Run("prefers .yaml over .yml", func(t *testing.T) {
		tmpDir := t.TempDir()
		originalWd, _ := os.Getwd()
		defer os.Chdir(originalWd)

		err := os.Chdir(tmpDir)
		require.NoError(t, err)

		// Create both files
		yamlPath := filepath.Join(tmpDir, ".estimate-ai.yaml")
		ymlPath := filepath.Join(tmpDir, ".estimate-ai.yml")
		err = os.WriteFile(yamlPath, []byte("provider:\n  name: claude\n"), 0644)
		require.NoError(t, err)
		err = os.WriteFile(ymlPath, []byte("provider:\n  name: openai\n"), 0644)
		require.NoError(t, err)

		found := FindConfigFile()
		assert.Equal(t, ".estimate-ai.yaml", found) // Should prefer .yaml
	})

	t.Run("returns empty string when no config found", func(t *testing.T) {
		tmpDir := t.TempDir()
		originalWd, _ := os.Getwd()
		defer os.Chdir(originalWd)

		err := os.Chdir(tmpDir)
		require.NoError(t, err)

		found := FindConfigFile()
		assert.Equal(t, "", found)
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("loads config when found", func(t *testing.T) {
		tmpDir := t.TempDir()
		originalWd, _ := os.Getwd()
		defer os.Chdir(originalWd)

		err := os.Chdir(tmpDir)
		require.NoError(t, err)

		configContent := `
provider:
  name: claude
  model: claude-sonnet-4-5
`
		configPath := filepath.Join(tmpDir, ".estimate-ai.yaml")
		err = os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		config := LoadOrDefault()
		assert.Equal(t, "claude", config.Provider.Name)
		assert.Equal(t, "claude-sonnet-4-5", config.Provider.Model)
	})

	t.Run("returns defaults when no config found", func(t *testing.T) {
		tmpDir := t.TempDir()
		originalWd, _ := os.Getwd()
		defer os.Chdir(originalWd)

		err := os.Chdir(tmpDir)
		require.NoError(t, err)

		config := LoadOrDefault()
		assert.Equal(t, "openai", config.Provider.Name) // Default
	})

	t.Run("returns defaults on parse error", func(t *testing.T) {
		tmpDir := t.TempDir()
		originalWd, _ := os.Getwd()
		defer os.Chdir(originalWd)

		err := os.Chdir(tmpDir)
		require.NoError(t, err)

		// Create invalid config
		configPath := filepath.Join(tmpDir, ".estimate-ai.yaml")
		err = os.WriteFile(configPath, []byte("invalid yaml [[["), 0644)
		require.NoError(t, err)

		config := LoadOrDefault()
		assert.Equal(t, "openai", config.Provider.Name) // Should fall back to defaults
	})
}

func TestFileExists(t *testing.T) {
	t.Run("returns true for existing file", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "test.txt")
		err := os.WriteFile(filePath, []byte("test"), 0644)
		require.NoError(t, err)

		assert.True(t, fileExists(filePath))
	})

	t.Run("returns false for nonexistent file", func(t *testing.T) {
		assert.False(t, fileExists("/nonexistent/file.txt"))
	})

	t.Run("returns false for directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		// fileExists returns true for directories too (os.Stat succeeds)
		assert.True(t, fileExists(tmpDir))
	})
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/provider/common"
)

func TestNew(t *testing.T) {
	t.Run("with API key in config", func(t *testing.T) {
		config := provider.Config{
			APIKey:      "test-api-key",
			Model:       "gpt-4o",
			Temperature: 0.3,
			MaxTokens:   1000,
		}

		p, err := New(config)
		require.NoError(t, err)
		assert.NotNil(t, p)
		assert.Equal(t, "gpt-4o", p.model)
		assert.Equal(t, float32(0.3), p.temperature)
		assert.Equal(t, 1000, p.maxTokens)
	})

	t.Run("with defaults", func(t *testing.T) {
		p, err := New(provider.Config{APIKey: "test-api-key"})
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", p.model)
		assert.Equal(t, float32(0.7), p.temperature)
		assert.Equal(t, DefaultMaxTokens, p.maxTokens)
		assert.Equal(t, "openai", p.Name())
	})

	t.Run("preset name is kept", func(t *testing.T) {
		p, err := New(provider.Config{Name: "groq", APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "groq", p.Name())
	})

	t.Run("with environment variable", func(t *testing.T) {
		os.Setenv("OPENAI_API_KEY", "env-api-key")
		defer os.Unsetenv("OPENAI_API_KEY")

		p, err := New(provider.Config{})
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("missing API key", func(t *testing.T) {
		os.Unsetenv("OPENAI_API_KEY")

		_, err := New(provider.Config{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY environment variable is not set")
		assert.Contains(t, err.Error(), "https://platform.openai.com/api-keys")
	})
}

type chatRequest struct {
	Model          string  `json:"model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float32 `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeServer(t *testing.T, captured *chatRequest, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"items\": []}"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}
}`

func TestComplete(t *testing.T) {
	t.Run("json mode", func(t *testing.T) {
		var got chatRequest
		srv := fakeServer(t, &got, http.StatusOK, okBody)

		p, err := New(provider.Config{APIKey: "test-key", BaseURL: srv.URL})
		require.NoError(t, err)

		resp, err := p.Complete(context.Background(), provider.CompletionRequest{
			SystemPrompt: "system",
			UserPrompt:   "user",
			JSON:         true,
		})
		require.NoError(t, err)

		assert.Equal(t, `{"items": []}`, resp.Text)
		assert.Equal(t, 150, resp.TokensUsed)
		assert.Greater(t, resp.Cost, 0.0)

		assert.Equal(t, "gpt-4o-mini", got.Model)
		assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
		require.NotNil(t, got.ResponseFormat)
		assert.Equal(t, "json_object", got.ResponseFormat.Type)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "system", got.Messages[0].Role)
		assert.Equal(t, "system", got.Messages[0].Content)
		assert.Equal(t, "user", got.Messages[1].Role)
		assert.Equal(t, "user", got.Messages[1].Content)
	})

	t.Run("prose mode omits response format", func(t *testing.T) {
		var got chatRequest
		srv := fakeServer(t, &got, http.StatusOK, okBody)

		p, err := New(provider.Config{APIKey: "test-key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), provider.CompletionRequest{UserPrompt: "u", MaxTokens: 300})
		require.NoError(t, err)
		assert.Nil(t, got.ResponseFormat)
		assert.Equal(t, 300, got.MaxTokens)
	})

	t.Run("auth error is enhanced", func(t *testing.T) {
		srv := fakeServer(t, nil, http.StatusUnauthorized,
			`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)

		p, err := New(provider.Config{APIKey: "test-key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), provider.CompletionRequest{UserPrompt: "u"})
		require.Error(t, err)
		assert.Equal(t, common.KindAuth, common.KindOf(err))
		assert.Contains(t, err.Error(), "OpenAI API authentication failed")
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := fakeServer(t, nil, http.StatusOK, `{"id": "x", "choices": [], "usage": {}}`)

		p, err := New(provider.Config{APIKey: "test-key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = p.Complete(context.Background(), provider.CompletionRequest{UserPrompt: "u"})
		assert.Error(t, err)
	})
}

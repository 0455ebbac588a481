package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceAPIError_AuthenticationErrors(t *testing.T) {
	ctx := ProviderErrorContext{
		ProviderName: "Claude",
		APIKeysURL:   "https://console.anthropic.com/settings/keys",
	}

	t.Run("401 error code", func(t *testing.T) {
		err := errors.New("HTTP 401 Unauthorized")
		enhanced := EnhanceAPIError(err, ctx)

		assert.Contains(t, enhanced.Error(), "Claude API authentication failed")
		assert.Contains(t, enhanced.Error(), "Invalid or expired API key")
		assert.Contains(t, enhanced.Error(), "CLAUDE_API_KEY")
		assert.Contains(t, enhanced.Error(), ctx.APIKeysURL)
		assert.Equal(t, KindAuth, KindOf(enhanced))
	})

	t.Run("unauthorized keyword", func(t *testing.T) {
		enhanced := EnhanceAPIError(errors.New("Request unauthorized"), ctx)
		assert.Contains(t, enhanced.Error(), "authentication failed")
	})

	t.Run("case insensitive matching", func(t *testing.T) {
		enhanced := EnhanceAPIError(errors.New("UNAUTHORIZED - API KEY INVALID"), ctx)
		assert.Contains(t, enhanced.Error(), "authentication failed")
	})

	t.Run("environment variable naming", func(t *testing.T) {
		openaiCtx := ProviderErrorContext{
			ProviderName: "OpenAI",
			APIKeysURL:   "https://platform.openai.com/api-keys",
		}

		enhanced := EnhanceAPIError(errors.New("401 Unauthorized"), openaiCtx)

		assert.Contains(t, enhanced.Error(), "OPENAI_API_KEY")
		assert.NotContains(t, enhanced.Error(), "CLAUDE_API_KEY")
	})
}

func TestEnhanceAPIError_Kinds(t *testing.T) {
	ctx := ProviderErrorContext{
		ProviderName:      "OpenAI",
		StatusPageURL:     "https://status.openai.com",
		BillingURL:        "https://platform.openai.com/account/billing",
		AlternateProvider: "Claude",
	}

	tests := []struct {
		msg      string
		kind     ErrorKind
		contains []string
	}{
		{"HTTP 429 Too Many Requests", KindRateLimit, []string{"rate limit exceeded", "Wait a few minutes", "one estimate at a time"}},
		{"insufficient_quota", KindQuota, []string{"quota exceeded", ctx.BillingURL, "--provider=claude"}},
		{"context deadline exceeded", KindTimeout, []string{"request timed out"}},
		{"dial tcp: connection refused", KindNetwork, []string{"network error connecting to OpenAI API"}},
		{"status 503", KindServer, []string{"server error", ctx.StatusPageURL}},
		{"something odd", KindUnknown, []string{"OpenAI API error", "Try again or contact support"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			enhanced := EnhanceAPIError(errors.New(tt.msg), ctx)
			assert.Equal(t, tt.kind, KindOf(enhanced))
			for _, s := range tt.contains {
				assert.Contains(t, enhanced.Error(), s)
			}
			assert.Contains(t, enhanced.Error(), "To fix:")
		})
	}
}

func TestEnhanceAPIError_QuotaWithoutBillingURL(t *testing.T) {
	enhanced := EnhanceAPIError(errors.New("You exceeded your current quota"), ProviderErrorContext{ProviderName: "Claude"})

	assert.Contains(t, enhanced.Error(), "spending limit")
	assert.Contains(t, enhanced.Error(), "Check your usage and add credits")
	assert.NotContains(t, enhanced.Error(), "http")
}

func TestEnhanceAPIError_ErrorWrapping(t *testing.T) {
	ctx := ProviderErrorContext{ProviderName: "Claude"}

	for _, msg := range []string{"original error: 401", "original error: 429", "insufficient_quota", "boom"} {
		original := errors.New(msg)
		enhanced := EnhanceAPIError(original, ctx)
		assert.ErrorIs(t, enhanced, original)
	}

	t.Run("kind survives further wrapping", func(t *testing.T) {
		enhanced := EnhanceAPIError(errors.New("429"), ctx)
		wrapped := fmt.Errorf("overview: %w", enhanced)

		assert.Equal(t, KindRateLimit, KindOf(wrapped))
		var apiErr *APIError
		require.ErrorAs(t, wrapped, &apiErr)
		assert.Equal(t, "Claude", apiErr.Provider)
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, EnhanceAPIError(nil, ctx))
	})
}

func TestEnhanceAPIError_PriorityOfErrorTypes(t *testing.T) {
	ctx := ProviderErrorContext{ProviderName: "Claude"}

	t.Run("401 takes priority over generic keywords", func(t *testing.T) {
		enhanced := EnhanceAPIError(errors.New("network error: 401 unauthorized"), ctx)
		assert.Contains(t, enhanced.Error(), "authentication failed")
		assert.NotContains(t, enhanced.Error(), "network error connecting")
	})

	t.Run("429 takes priority over timeout", func(t *testing.T) {
		enhanced := EnhanceAPIError(errors.New("timeout: 429 rate limit exceeded"), ctx)
		assert.Equal(t, KindRateLimit, KindOf(enhanced))
	})

	t.Run("quota takes priority over timeout", func(t *testing.T) {
		enhanced := EnhanceAPIError(errors.New("timeout due to insufficient_quota"), ctx)
		assert.Equal(t, KindQuota, KindOf(enhanced))
	})
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestContains(t *testing.T) {
	assert.True(t, contains("Hello World", "WORLD"))
	assert.True(t, contains("unauthorized", "auth"))
	assert.True(t, contains("hello", ""))
	assert.False(t, contains("hello", "world"))
	assert.False(t, contains("", "hello"))
}

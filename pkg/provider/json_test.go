package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence without tag", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", "다음은 결과입니다:\n{\"a\": {\"b\": 2}} 감사합니다", `{"a": {"b": 2}}`},
		{"braces inside strings", `{"text": "a } b { c", "n": 1}`, `{"text": "a } b { c", "n": 1}`},
		{"escaped quote", `{"text": "say \"}\" now"}`, `{"text": "say \"}\" now"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	_, err := ExtractJSON("no json here")
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ExtractJSON(`{"a": {"b": 1}`)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "plain", StripFences("  plain \n"))
	assert.Equal(t, "<p>x</p>", StripFences("```html\n<p>x</p>\n```"))
}

func TestDecodeJSON(t *testing.T) {
	type reply struct {
		Items []struct {
			Label  string `json:"label"`
			Amount int64  `json:"amount"`
		} `json:"items"`
	}

	got, err := DecodeJSON[reply]("```json\n{\"items\": [{\"label\": \"기획\", \"amount\": 1500000}]}\n```")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "기획", got.Items[0].Label)
	assert.Equal(t, int64(1500000), got.Items[0].Amount)

	_, err = DecodeJSON[reply](`{"items": "nope"}`)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

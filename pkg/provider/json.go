package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON is returned when a reply holds no parseable JSON object.
var ErrInvalidJSON = errors.New("provider returned invalid JSON")

// ExtractJSON strips Markdown code fences and returns the outermost balanced
// {...} span of text. Braces inside JSON strings are ignored.
func ExtractJSON(text string) (string, error) {
	s := StripFences(text)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", ErrInvalidJSON)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced braces", ErrInvalidJSON)
}

// StripFences removes a surrounding ```lang ... ``` block, or returns the
// trimmed text unchanged when there is none.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}
	body := s[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the language tag line (```json, ```html).
		if tag := strings.TrimSpace(body[:nl]); !strings.ContainsAny(tag, "{<") {
			body = body[nl+1:]
		}
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// DecodeJSON extracts the JSON object from a reply and unmarshals it into T.
func DecodeJSON[T any](text string) (T, error) {
	var out T
	raw, err := ExtractJSON(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return out, nil
}

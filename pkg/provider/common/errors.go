// Package common provides shared utilities for completion provider implementations.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a provider failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindRateLimit
	KindQuota
	KindTimeout
	KindNetwork
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate-limit"
	case KindQuota:
		return "quota"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// ProviderErrorContext contains provider-specific information for error enhancement.
type ProviderErrorContext struct {
	ProviderName      string // e.g., "Claude", "OpenAI"
	APIKeysURL        string // URL to manage API keys
	StatusPageURL     string // URL to check API status
	BillingURL        string // URL for billing/usage (optional)
	AlternateProvider string // Alternative provider name for suggestions
}

// APIError is a provider failure with troubleshooting steps attached.
type APIError struct {
	Kind     ErrorKind
	Provider string
	Summary  string
	Causes   []string
	Steps    []string
	Err      error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Summary, e.Err)
	if len(e.Causes) > 0 {
		b.WriteString("\n\nPossible causes:\n")
		for _, c := range e.Causes {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	} else {
		b.WriteString("\n")
	}
	if len(e.Steps) > 0 {
		b.WriteString("\nTo fix:\n")
		for i, s := range e.Steps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first APIError in err's chain.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// EnhanceAPIError adds helpful context to completion API errors.
// It detects common error patterns and provides actionable troubleshooting steps.
func EnhanceAPIError(err error, ctx ProviderErrorContext) error {
	if err == nil {
		return nil
	}
	errMsg := err.Error()
	e := &APIError{Provider: ctx.ProviderName, Err: err}

	switch {
	case contains(errMsg, "401") || contains(errMsg, "unauthorized") || contains(errMsg, "invalid api key"):
		envVar := strings.ToUpper(ctx.ProviderName) + "_API_KEY"
		e.Kind = KindAuth
		e.Summary = ctx.ProviderName + " API authentication failed"
		e.Causes = []string{"Invalid or expired API key", "API key revoked or deleted"}
		e.Steps = []string{
			"Verify your API key at: " + ctx.APIKeysURL,
			"Ensure " + envVar + " is set correctly (environment or .env file)",
			"Try generating a new API key",
		}

	case contains(errMsg, "429") || contains(errMsg, "rate limit"):
		e.Kind = KindRateLimit
		e.Summary = ctx.ProviderName + " API rate limit exceeded"
		e.Causes = []string{"Too many requests in a short period (each estimate sends several requests at once)"}
		e.Steps = []string{
			"Wait a few minutes and try again",
			"Generate one estimate at a time",
			"Upgrade your " + ctx.ProviderName + " API plan for higher limits",
		}

	case contains(errMsg, "insufficient_quota") || contains(errMsg, "quota"):
		e.Kind = KindQuota
		e.Summary = ctx.ProviderName + " API quota exceeded"
		e.Causes = []string{"You've reached your account spending limit"}
		if ctx.BillingURL != "" {
			e.Steps = []string{"Add credits: " + ctx.BillingURL}
		} else {
			e.Steps = []string{"Check your usage and add credits if needed"}
		}
		e.Steps = append(e.Steps, "Upgrade your plan for higher limits")
		if ctx.AlternateProvider != "" {
			e.Steps = append(e.Steps, "Or use --provider="+strings.ToLower(ctx.AlternateProvider)+" instead")
		}

	case contains(errMsg, "timeout") || contains(errMsg, "deadline exceeded"):
		e.Kind = KindTimeout
		e.Summary = ctx.ProviderName + " API request timed out"
		e.Causes = []string{"The request took too long to complete"}
		e.Steps = []string{
			"Check your internet connection",
			"Try again - this is often a temporary issue",
			"If persistent, shorten the attached reference file",
		}

	case contains(errMsg, "connection") || contains(errMsg, "network") || contains(errMsg, "dial"):
		e.Kind = KindNetwork
		e.Summary = "network error connecting to " + ctx.ProviderName + " API"
		e.Causes = []string{"Unable to reach the API servers"}
		e.Steps = []string{
			"Check your internet connection",
			"Check if your firewall/proxy is blocking the connection",
			"Try again in a few moments",
		}

	case contains(errMsg, "500") || contains(errMsg, "502") || contains(errMsg, "503"):
		e.Kind = KindServer
		e.Summary = ctx.ProviderName + " API server error"
		e.Causes = []string{"The API is experiencing issues"}
		e.Steps = []string{"Wait a few minutes and try again"}
		if ctx.StatusPageURL != "" {
			e.Steps = append(e.Steps, "Check status page: "+ctx.StatusPageURL)
		}
		if ctx.AlternateProvider != "" {
			e.Steps = append(e.Steps, "If urgent, try --provider="+strings.ToLower(ctx.AlternateProvider)+" instead")
		}

	default:
		e.Summary = ctx.ProviderName + " API error"
		e.Causes = []string{"An unexpected error occurred"}
		e.Steps = []string{
			"Check the error message above for details",
			"Verify your API configuration",
			"Try again or contact support",
		}
	}
	return e
}

// contains checks if a string contains a substring (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/prompt"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/reconcile"
	"github.com/tsanders/estimate-ai/pkg/schedule"
	"github.com/tsanders/estimate-ai/pkg/templates"
	"github.com/tsanders/estimate-ai/pkg/ux"
)

// Config holds the collaborators of a Generator.
type Config struct {
	Provider  provider.Provider
	Prompts   *prompt.Templates // default prompt set when nil
	Templates *templates.Store  // built-in templates only when nil
	Reconcile reconcile.Config  // zero fields fall back to the defaults
	LeadDays  int               // days before the first stage (default: 7)
	Logger    *zap.Logger
	Progress  ux.ProgressWriter // default progress sink (default: no-op)
	Now       func() time.Time  // clock for issue and schedule dates
}

// Request asks for one estimate from structured project info.
type Request struct {
	Project estimate.ProjectInfo
	// Template names a stored template. Ignored when TemplateHTML is set.
	Template string
	// TemplateHTML is an inline template, e.g. an upload. Its variant is
	// detected from Template (as a filename) and the content.
	TemplateHTML string
	// Progress overrides the generator's progress sink for this request.
	Progress ux.ProgressWriter
}

// RawRequest asks for an estimate from free-form client material.
type RawRequest struct {
	RawText string
	// Defaults fill fields the extraction leaves empty. PackageBudgets set
	// here win over extracted ones.
	Defaults     estimate.ProjectInfo
	Template     string
	TemplateHTML string
	Progress     ux.ProgressWriter
}

// Result is a generated estimate.
type Result struct {
	HTML     string               `json:"html"`
	Template string               `json:"template"`
	Variant  estimate.Variant     `json:"variant"`
	Project  estimate.ProjectInfo `json:"project"`

	Budget      estimate.Budget        `json:"budget"`
	Breakdown   currency.Breakdown     `json:"breakdown"`
	Items       []estimate.LineItem    `json:"items"`
	Adjustments []reconcile.Adjustment `json:"adjustments,omitempty"`

	Tiers        []estimate.PackageTier   `json:"tiers,omitempty"`
	Timeline     []estimate.ResolvedStage `json:"timeline,omitempty"`
	Duration     schedule.TotalDuration   `json:"duration"`
	Phases       []estimate.Phase         `json:"phases,omitempty"`
	Installments []estimate.Installment   `json:"installments,omitempty"`

	// Skipped lists template regions that were absent.
	Skipped []string `json:"skipped,omitempty"`

	TokensUsed int           `json:"tokensUsed"`
	Cost       float64       `json:"cost"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Package prompt provides configurable prompt templates for estimate generation.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Kind identifies one completion the pipeline issues.
type Kind string

const (
	// CostTable asks for the standard 7-row cost table.
	CostTable Kind = "cost-table"
	// DetailedCostTable asks for the 6-row item/detail/amount table.
	DetailedCostTable Kind = "detailed-cost-table"
	Overview          Kind = "overview"
	DetailedOverview  Kind = "detailed-overview"
	Timeline          Kind = "timeline"
	Packages          Kind = "packages"
	Closing           Kind = "closing"
	ScopePeriod       Kind = "scope-period"
	DetailedSchedule  Kind = "detailed-schedule"
	Deliverables      Kind = "deliverables"
	PhasePlan         Kind = "phase-plan"
	// ExtractInfo turns free-form client notes into project fields.
	ExtractInfo Kind = "extract-info"
	// Edit rewrites a finished document following a chat instruction.
	Edit Kind = "edit"
)

// Kinds lists every template kind in a stable order.
var Kinds = []Kind{
	CostTable, DetailedCostTable, Overview, DetailedOverview, Timeline, Packages,
	Closing, ScopePeriod, DetailedSchedule, Deliverables, PhasePlan, ExtractInfo, Edit,
}

// ErrUnknownKind is returned when a kind has no template.
var ErrUnknownKind = errors.New("unknown prompt kind")

// Template holds a prompt template and can render it with data
type Template struct {
	Name     string
	System   string // System message, sent verbatim
	Content  string // User message template
	JSON     bool   // Whether the reply must be a JSON object
	compiled *template.Template
}

// Templates holds the prompt set for a provider.
type Templates struct {
	byKind map[Kind]*Template
}

// Config configures prompt template loading
type Config struct {
	// Provider name (used for loading provider-specific defaults)
	Provider string
	// Dir holds optional "<kind>.tmpl" overrides of the user message.
	Dir string
	// Paths overrides single kinds by file path. Paths win over Dir.
	Paths map[Kind]string
}

// Data is everything a prompt template may reference.
type Data struct {
	ProjectName            string
	ProjectDescription     string
	ClientName             string
	Timeline               string
	AdditionalRequirements string
	Instructions           string
	Attachment             string

	// BudgetText is the user's budget as typed, Budget the resolved amount
	// ("30,000,000원") or "" when unresolved.
	BudgetText string
	Budget     string
	SubTotal   string
	Total      string
	Packages   string

	Rows      int    // Expected table rows
	StartDate string // Earliest allowed start, "MM/DD"
	Today     string

	RawText     string // ExtractInfo input
	HTML        string // Edit input
	Instruction string // Edit instruction
}

// Load loads templates based on the configuration
func Load(cfg Config) (*Templates, error) {
	templates := &Templates{byKind: make(map[Kind]*Template, len(Kinds))}

	for _, kind := range Kinds {
		tmpl := getDefaultTemplate(cfg.Provider, kind)

		path := cfg.Paths[kind]
		if path == "" && cfg.Dir != "" {
			candidate := filepath.Join(cfg.Dir, string(kind)+".tmpl")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
		if path != "" {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s template: %w", kind, err)
			}
			tmpl.Content = string(content)
			tmpl.Name = string(kind) + "-custom"
		}

		if err := tmpl.compile(); err != nil {
			return nil, fmt.Errorf("failed to compile %s template: %w", kind, err)
		}
		templates.byKind[kind] = tmpl
	}

	return templates, nil
}

// compile compiles the template for rendering
func (t *Template) compile() error {
	tmpl, err := template.New(t.Name).Option("missingkey=error").Parse(t.Content)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	t.compiled = tmpl
	return nil
}

// Render executes the user message template.
func (t *Template) Render(data Data) (string, error) {
	if t.compiled == nil {
		return "", fmt.Errorf("template not compiled")
	}

	var buf bytes.Buffer
	if err := t.compiled.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// Get returns the template for kind.
func (t *Templates) Get(kind Kind) (*Template, error) {
	tmpl, ok := t.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return tmpl, nil
}

// Prompt is a rendered system/user pair ready to send.
type Prompt struct {
	Kind   Kind
	System string
	User   string
	JSON   bool
}

// Build renders kind with data.
func (t *Templates) Build(kind Kind, data Data) (Prompt, error) {
	tmpl, err := t.Get(kind)
	if err != nil {
		return Prompt{}, err
	}
	user, err := tmpl.Render(data)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return Prompt{Kind: kind, System: tmpl.System, User: user, JSON: tmpl.JSON}, nil
}

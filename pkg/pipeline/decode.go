package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/schedule"
)

// amount accepts "1,500,000원", 1500000 or null.
type amount int64

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(currency.ParseAmount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = amount(currency.Round(f))
	return nil
}

// text accepts a string, a number or null.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		*t = text(data)
	}
	return nil
}

// costItem also accepts the older contents/type and item columns.
type costItem struct {
	Label    string `json:"label"`
	Item     string `json:"item"`
	Contents string `json:"contents"`
	Detail   string `json:"detail"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Amount   amount `json:"amount"`
}

type costReply struct {
	Items []costItem `json:"items"`
}

func (r costReply) lineItems(rows int) ([]estimate.LineItem, error) {
	if len(r.Items) == 0 {
		return nil, fmt.Errorf("%w: no cost items", provider.ErrInvalidJSON)
	}
	src := r.Items
	if rows > 0 && len(src) > rows {
		src = src[:rows]
	}
	out := make([]estimate.LineItem, 0, len(src))
	for _, it := range src {
		label := firstNonEmpty(it.Label, it.Item, it.Contents)
		tag := firstNonEmpty(it.Category, it.Type)
		category := estimate.InferCategory(label)
		if tag != "" {
			category = estimate.ParseCategory(tag)
		}
		out = append(out, estimate.LineItem{
			Label:    strings.TrimSpace(label),
			Detail:   strings.TrimSpace(it.Detail),
			Category: category,
			Amount:   int64(it.Amount),
		})
	}
	return out, nil
}

type stageItem struct {
	Label   string `json:"label"`
	Stage   string `json:"stage"`
	Content string `json:"content"`
	Task    string `json:"task"`
	Period  string `json:"period"`
}

func (s stageItem) stage() estimate.Stage {
	return schedule.NewStage(firstNonEmpty(s.Label, s.Stage), firstNonEmpty(s.Content, s.Task), s.Period)
}

type timelineReply struct {
	Stages      []stageItem `json:"stages"`
	Tasks       []stageItem `json:"tasks"`
	TotalPeriod string      `json:"totalPeriod"`
}

func (r timelineReply) stages() []estimate.Stage {
	src := r.Stages
	if len(src) == 0 {
		src = r.Tasks
	}
	out := make([]estimate.Stage, len(src))
	for i, s := range src {
		out[i] = s.stage()
	}
	return out
}

type packageItem struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Price    amount   `json:"price"`
	Features []string `json:"features"`
}

type packagesReply struct {
	Packages []packageItem `json:"packages"`
}

func (r packagesReply) tiers() []estimate.PackageTier {
	out := make([]estimate.PackageTier, len(r.Packages))
	for i, p := range r.Packages {
		out[i] = estimate.PackageTier{
			Name:     tierName(p.Name),
			Title:    p.Title,
			Price:    int64(p.Price),
			Features: p.Features,
		}
	}
	return out
}

func tierName(s string) estimate.TierName {
	switch n := estimate.TierName(strings.ToLower(strings.TrimSpace(s))); n {
	case estimate.TierBasic, estimate.TierStandard, estimate.TierPremium:
		return n
	}
	return ""
}

type deliverablesReply struct {
	Deliverables []estimate.Deliverable `json:"deliverables"`
}

type phaseItem struct {
	Name      string   `json:"name"`
	Summary   string   `json:"summary"`
	Scope     []string `json:"scope"`
	TechStack []string `json:"techStack"`
	Estimate  amount   `json:"estimate"`
	Period    string   `json:"period"`
	Priority  int      `json:"priority"`
}

type phasePlanReply struct {
	Phases []phaseItem `json:"phases"`
	Notes  string      `json:"notes"`
}

// phaseCount is the number of phase blocks a phased document holds.
const phaseCount = 3

func (r phasePlanReply) phases() ([]estimate.Phase, error) {
	if len(r.Phases) < phaseCount {
		return nil, fmt.Errorf("%w: %d phases, want %d", provider.ErrInvalidJSON, len(r.Phases), phaseCount)
	}
	src := r.Phases[:phaseCount]
	out := make([]estimate.Phase, len(src))
	for i, p := range src {
		priority := p.Priority
		if priority <= 0 {
			priority = i + 1
		}
		out[i] = estimate.Phase{
			Name:      p.Name,
			Summary:   p.Summary,
			Scope:     p.Scope,
			TechStack: p.TechStack,
			Estimate:  int64(p.Estimate),
			Period:    p.Period,
			Priority:  priority,
		}
	}
	return out, nil
}

type extractReply struct {
	ProjectName            text `json:"projectName"`
	ProjectDescription     text `json:"projectDescription"`
	ClientName             text `json:"clientName"`
	Budget                 text `json:"budget"`
	Timeline               text `json:"timeline"`
	AdditionalRequirements text `json:"additionalRequirements"`
	PackageBudgets         struct {
		Basic    amount `json:"basic"`
		Standard amount `json:"standard"`
		Premium  amount `json:"premium"`
	} `json:"packageBudgets"`
}

// merge fills the empty fields of defaults from the extraction. Package
// budgets given in defaults win.
func (r extractReply) merge(defaults estimate.ProjectInfo) estimate.ProjectInfo {
	p := defaults
	fill := func(dst *string, v text) {
		if s := strings.TrimSpace(string(v)); strings.TrimSpace(*dst) == "" && s != "null" {
			*dst = s
		}
	}
	fill(&p.Name, r.ProjectName)
	fill(&p.Description, r.ProjectDescription)
	fill(&p.Client, r.ClientName)
	fill(&p.Budget, r.Budget)
	fill(&p.Timeline, r.Timeline)
	fill(&p.AdditionalRequirements, r.AdditionalRequirements)

	if p.PackageBudgets.IsZero() {
		p.PackageBudgets = estimate.PackageBudgets{
			Basic:    max(int64(r.PackageBudgets.Basic), 0),
			Standard: max(int64(r.PackageBudgets.Standard), 0),
			Premium:  max(int64(r.PackageBudgets.Premium), 0),
		}
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

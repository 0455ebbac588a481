package document

import (
	"html/template"
	"time"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/pricing"
	"github.com/tsanders/estimate-ai/pkg/schedule"
)

// Region names.
const (
	RegionOverview         = "overview"
	RegionCostTable        = "cost-table"
	RegionCostSummary      = "cost-summary"
	RegionPackages         = "packages"
	RegionTimeline         = "timeline"
	RegionTimelineTotal    = "timeline-total"
	RegionPaymentTerms     = "payment-terms"
	RegionMaintenance      = "maintenance"
	RegionClosing          = "closing"
	RegionDeliverables     = "deliverables"
	RegionScopePeriod      = "scope-period"
	RegionDetailedSchedule = "detailed-schedule"
	RegionPhases           = "phases"
	RegionInstallments     = "installments"
	RegionBundles          = "bundles"
	RegionNotes            = "notes"
)

// Content is everything generated for one estimate, ready to place.
type Content struct {
	Project   estimate.ProjectInfo
	Issued    time.Time
	Period    string // headline project period, "[일정]"
	Breakdown currency.Breakdown

	Items    []estimate.LineItem
	Overview string
	Closing  string // generated remarks, Markdown
	Notes    string // phased notes, Markdown

	Tiers    []estimate.PackageTier
	Timeline []estimate.ResolvedStage
	Duration schedule.TotalDuration

	Scope       []estimate.ResolvedStage
	TotalPeriod string
	Tasks       []estimate.ResolvedStage // Label is the stage, Content the task

	Deliverables []estimate.Deliverable

	Phases       []estimate.Phase
	Installments []estimate.Installment
	Bundles      []estimate.Bundle
}

// Placeholders returns the token substitutions shared by every variant.
func (c *Content) Placeholders() map[string]string {
	return map[string]string{
		"[날짜]":      schedule.FormatDate(c.Issued),
		"[프로젝트명]":   c.Project.DisplayName(),
		"[클라이언트명]":  c.Project.DisplayClient(),
		"[총액]":      currency.Format(c.Breakdown.Total),
		"[일정]":      c.Period,
		"[Sub Total]": currency.Format(c.Breakdown.SubTotal),
		"[VAT]":       currency.Format(c.Breakdown.VAT),
		"[Total]":     currency.Format(c.Breakdown.Total),
	}
}

// Substituter places content into one template variant.
type Substituter interface {
	Variant() estimate.Variant
	// Apply fills doc and returns the names of regions the template lacks.
	Apply(doc *Document, c *Content) ([]string, error)
}

// SubstituterFor returns the substituter for v.
func SubstituterFor(v estimate.Variant) Substituter {
	switch v {
	case estimate.VariantDetailed:
		return detailedSubstituter{}
	case estimate.VariantPhased:
		return phasedSubstituter{}
	}
	return standardSubstituter{}
}

// Fill parses src, applies the substituter for v and renders the result.
func Fill(src string, v estimate.Variant, c *Content) (string, []string, error) {
	doc, err := Parse(src)
	if err != nil {
		return "", nil, err
	}
	skipped, err := SubstituterFor(v).Apply(doc, c)
	if err != nil {
		return "", nil, err
	}
	out, err := doc.Render()
	if err != nil {
		return "", nil, err
	}
	return out, skipped, nil
}

// filler accumulates skipped regions and the first error.
type filler struct {
	doc     *Document
	skipped []string
	err     error
}

func (f *filler) fragment(region, name string, data any) {
	if f.err != nil {
		return
	}
	if !f.doc.HasRegion(region) {
		f.skipped = append(f.skipped, region)
		return
	}
	out, err := render(name, data)
	if err != nil {
		f.err = err
		return
	}
	if _, err := f.doc.ReplaceRegion(region, out); err != nil {
		f.err = err
	}
}

func (f *filler) markdown(region, src string) {
	if f.err != nil {
		return
	}
	out, err := Markdown(src)
	if err != nil {
		f.err = err
		return
	}
	f.fragment(region, "notes", template.HTML(out))
}

func (f *filler) text(region, text string) {
	if !f.doc.SetText(region, text) {
		f.skipped = append(f.skipped, region)
	}
}

func (f *filler) result() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.skipped, nil
}

// common fills the regions every variant shares, then the placeholders.
func (f *filler) common(c *Content) {
	f.text(RegionOverview, c.Overview)
	f.fragment(RegionMaintenance, "maintenance", MaintenanceTerms)

	remarks, err := Markdown(c.Closing)
	if err != nil && f.err == nil {
		f.err = err
	}
	f.fragment(RegionClosing, "closing", closingData{Terms: ClosingTerms, Remarks: template.HTML(remarks)})

	if len(c.Deliverables) > 0 {
		f.fragment(RegionDeliverables, "deliverables", c.Deliverables)
	}
	f.fragment(RegionCostSummary, "cost-summary", c.Breakdown)
	f.doc.ReplacePlaceholders(c.Placeholders())
}

type standardSubstituter struct{}

func (standardSubstituter) Variant() estimate.Variant { return estimate.VariantStandard }

func (standardSubstituter) Apply(doc *Document, c *Content) ([]string, error) {
	f := &filler{doc: doc}
	f.fragment(RegionCostTable, "cost-table", c.Items)
	f.fragment(RegionPackages, "packages", c.Tiers)
	f.fragment(RegionTimeline, "timeline", c.Timeline)
	f.text(RegionTimelineTotal, c.Duration.String())
	f.fragment(RegionPaymentTerms, "payment-terms", paymentData{
		Installments: pricing.SplitPayments(c.Breakdown.Total),
	})
	f.common(c)
	return f.result()
}

type detailedSubstituter struct{}

func (detailedSubstituter) Variant() estimate.Variant { return estimate.VariantDetailed }

func (detailedSubstituter) Apply(doc *Document, c *Content) ([]string, error) {
	f := &filler{doc: doc}
	f.fragment(RegionCostTable, "detailed-cost-table", c.Items)

	total := c.TotalPeriod
	if total == "" {
		total = schedule.Duration(c.Scope).String()
	}
	f.fragment(RegionScopePeriod, "scope-period", scopeData{Stages: c.Scope, Total: total})
	f.fragment(RegionDetailedSchedule, "detailed-schedule", groupTasks(c.Tasks))
	f.fragment(RegionPaymentTerms, "payment-terms", paymentData{
		Installments: pricing.SplitPayments(c.Breakdown.Total),
		ShowTotal:    true,
		Total:        c.Breakdown.Total,
	})
	f.common(c)
	return f.result()
}

type phasedSubstituter struct{}

func (phasedSubstituter) Variant() estimate.Variant { return estimate.VariantPhased }

func (phasedSubstituter) Apply(doc *Document, c *Content) ([]string, error) {
	f := &filler{doc: doc}
	f.fragment(RegionPhases, "phases", c.Phases)
	f.fragment(RegionInstallments, "payment-terms", paymentData{Installments: c.Installments})
	f.fragment(RegionBundles, "bundles", c.Bundles)
	f.markdown(RegionNotes, c.Notes)
	f.common(c)
	return f.result()
}


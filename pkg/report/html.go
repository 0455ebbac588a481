// Package report provides an HTML audit report for generated estimates.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/pipeline"
	"github.com/tsanders/estimate-ai/pkg/reconcile"
	"github.com/tsanders/estimate-ai/pkg/schedule"
)

// GenerateHTML writes a report of how res was produced: the budget, every
// reconciler adjustment, the category split and the provider usage.
// The file is written next to the estimate as <name>.report.html.
func GenerateHTML(res *pipeline.Result, estimatePath string) (string, error) {
	ext := filepath.Ext(estimatePath)
	htmlPath := strings.TrimSuffix(estimatePath, ext) + ".report.html"

	f, err := os.Create(htmlPath)
	if err != nil {
		return "", fmt.Errorf("failed to create HTML file: %w", err)
	}
	defer f.Close()

	data := prepareTemplateData(res, time.Now())

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return htmlPath, nil
}

// TemplateData holds all data needed for the HTML template
type TemplateData struct {
	Result      *pipeline.Result
	GeneratedAt time.Time
	Categories  []CategoryTotal
	// Proposed is the provider's cost table before reconciliation.
	Proposed    int64
	AdjustedNet int64
}

// CategoryTotal is the share of the subtotal taken by one category.
type CategoryTotal struct {
	Category estimate.Category
	Amount   int64
	Percent  float64
}

// prepareTemplateData extracts summary statistics from the result
func prepareTemplateData(res *pipeline.Result, now time.Time) *TemplateData {
	data := &TemplateData{Result: res, GeneratedAt: now}

	totals := make(map[estimate.Category]int64)
	for _, it := range res.Items {
		totals[it.Category] += it.Amount
	}
	sub := res.Breakdown.SubTotal
	for c, amount := range totals {
		ct := CategoryTotal{Category: c, Amount: amount}
		if sub > 0 {
			ct.Percent = float64(amount) * 100 / float64(sub)
		}
		data.Categories = append(data.Categories, ct)
	}
	sort.Slice(data.Categories, func(i, j int) bool {
		if data.Categories[i].Amount != data.Categories[j].Amount {
			return data.Categories[i].Amount > data.Categories[j].Amount
		}
		return data.Categories[i].Category < data.Categories[j].Category
	})

	data.Proposed = proposedTotal(res.Items, res.Adjustments)
	data.AdjustedNet = estimate.Total(res.Items) - data.Proposed
	return data
}

// proposedTotal undoes the adjustments to recover the provider's sum. Only
// the first recorded value of each item counts.
func proposedTotal(items []estimate.LineItem, adjustments []reconcile.Adjustment) int64 {
	original := make([]int64, len(items))
	seen := make([]bool, len(items))
	for i, it := range items {
		original[i] = it.Amount
	}
	for _, a := range adjustments {
		if a.Index < 0 || a.Index >= len(items) || seen[a.Index] {
			continue
		}
		original[a.Index] = a.From
		seen[a.Index] = true
	}
	var sum int64
	for _, v := range original {
		sum += v
	}
	return sum
}

// templateFuncs returns custom template functions
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"won": currency.Format,
		"delta": func(a reconcile.Adjustment) string {
			d := a.To - a.From
			if d > 0 {
				return "+" + currency.Format(d)
			}
			return currency.Format(d)
		},
		"stepLabel": func(step string) string {
			switch step {
			case reconcile.StepClampNegative:
				return "음수 보정"
			case reconcile.StepProtectedFloor:
				return "QA 최소액"
			case reconcile.StepRedistribute:
				return "재분배"
			case reconcile.StepRescale:
				return "예산 비례 조정"
			case reconcile.StepEvenSplit:
				return "균등 배분"
			case reconcile.StepItemMinimum:
				return "항목 최소액"
			case reconcile.StepResidue:
				return "잔액 정리"
			default:
				return step
			}
		},
		"categoryColor": func(c estimate.Category) string {
			switch c {
			case estimate.CategoryPlanning:
				return "#6A6E73" // gray
			case estimate.CategoryFrontend:
				return "#2B9AF3" // blue
			case estimate.CategoryBackend:
				return "#3E8635" // green
			case estimate.CategoryAIML:
				return "#8476D1" // purple
			case estimate.CategoryIntegration:
				return "#F0AB00" // yellow
			case estimate.CategoryDatabase:
				return "#009596" // cyan
			case estimate.CategoryQA:
				return "#C9190B" // red
			default:
				return "#B8BBBE"
			}
		},
		"date": schedule.FormatDate,
		"percent": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f)
		},
	}
}

package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/pipeline"
	"github.com/tsanders/estimate-ai/pkg/reconcile"
)

func sampleResult() *pipeline.Result {
	items := []estimate.LineItem{
		{Label: "기획", Category: estimate.CategoryPlanning, Amount: 2000000},
		{Label: "백엔드", Category: estimate.CategoryBackend, Amount: 7000000},
		{Label: "테스트", Category: estimate.CategoryQA, Amount: 1000000},
	}
	return &pipeline.Result{
		Template:  "standard",
		Variant:   estimate.VariantStandard,
		Project:   estimate.ProjectInfo{Name: "예약 시스템", Client: "한빛상사"},
		Budget:    estimate.Budget{RawText: "1000만원", Amount: 10000000, Resolved: true},
		Breakdown: currency.NewBreakdown(10000000),
		Items:     items,
		Adjustments: []reconcile.Adjustment{
			{Step: reconcile.StepProtectedFloor, Index: 2, Label: "테스트", From: 0, To: 1000000},
			{Step: reconcile.StepResidue, Index: 1, Label: "백엔드", From: 9000000, To: 7000000},
		},
		Timeline: []estimate.ResolvedStage{
			{Label: "개발", Content: "구현", Start: time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)},
		},
		TokensUsed: 50,
	}
}

func TestPrepareTemplateData(t *testing.T) {
	data := prepareTemplateData(sampleResult(), time.Now())

	assert.Equal(t, int64(11000000), data.Proposed)
	assert.Equal(t, int64(-1000000), data.AdjustedNet)

	require.Len(t, data.Categories, 3)
	assert.Equal(t, estimate.CategoryBackend, data.Categories[0].Category)
	assert.InDelta(t, 70.0, data.Categories[0].Percent, 0.001)
}

func TestProposedTotal_FirstAdjustmentWins(t *testing.T) {
	items := []estimate.LineItem{{Amount: 300}, {Amount: 700}}
	adjustments := []reconcile.Adjustment{
		{Index: 0, From: -100, To: 0},
		{Index: 0, From: 0, To: 300},
		{Index: 5, From: 1, To: 2},
	}
	assert.Equal(t, int64(600), proposedTotal(items, adjustments))
}

func TestGenerateHTML(t *testing.T) {
	dir := t.TempDir()
	path, err := GenerateHTML(sampleResult(), filepath.Join(dir, "견적서_예약_20261019.html"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "견적서_예약_20261019.report.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "예약 시스템")
	assert.Contains(t, html, "11,000,000원")
	assert.Contains(t, html, "QA 최소액")
	assert.Contains(t, html, "-2,000,000원")
	assert.Contains(t, html, "2026년 10월 26일")
}

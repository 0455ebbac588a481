package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsanders/estimate-ai/pkg/document"
	"github.com/tsanders/estimate-ai/pkg/estimate"
)

func TestBuiltins(t *testing.T) {
	s, err := New("", zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name    string
		variant estimate.Variant
		regions []string
	}{
		{"standard", estimate.VariantStandard, []string{
			document.RegionOverview, document.RegionCostTable, document.RegionCostSummary,
			document.RegionPackages, document.RegionTimeline, document.RegionTimelineTotal,
			document.RegionPaymentTerms, document.RegionMaintenance, document.RegionClosing,
		}},
		{"detailed", estimate.VariantDetailed, []string{
			document.RegionOverview, document.RegionScopePeriod, document.RegionDetailedSchedule,
			document.RegionCostTable, document.RegionCostSummary, document.RegionDeliverables,
			document.RegionPaymentTerms, document.RegionMaintenance, document.RegionClosing,
		}},
		{"phased", estimate.VariantPhased, []string{
			document.RegionOverview, document.RegionPhases, document.RegionCostSummary,
			document.RegionBundles, document.RegionInstallments, document.RegionNotes,
			document.RegionMaintenance, document.RegionClosing,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := s.Get(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, tmpl.Variant)
			assert.Equal(t, SourceBuiltin, tmpl.Source)

			doc, err := document.Parse(tmpl.HTML)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.regions, doc.Regions())
		})
	}
}

func TestGet(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)

	tmpl, err := s.Get("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, tmpl.Name)

	tmpl, err = s.Get("detailed.html")
	require.NoError(t, err)
	assert.Equal(t, "detailed", tmpl.Name)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "standard.html"), []byte("<p>mine</p>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "단계별_견적.html"), []byte("<p>x</p>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	tmpl, err := s.Get("standard")
	require.NoError(t, err)
	assert.Equal(t, SourceDir, tmpl.Source)
	assert.Equal(t, "<p>mine</p>", tmpl.HTML)

	tmpl, err = s.Get("단계별_견적")
	require.NoError(t, err)
	assert.Equal(t, estimate.VariantPhased, tmpl.Variant)

	names := make([]string, 0)
	for _, tm := range s.List() {
		names = append(names, tm.Name)
	}
	assert.Equal(t, []string{"detailed", "phased", "standard", "단계별_견적"}, names)
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	_, err = s.Get("custom")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.html"), []byte("<p>상세 견적서</p>"), 0644))
	require.NoError(t, s.Reload())

	tmpl, err := s.Get("custom")
	require.NoError(t, err)
	assert.Equal(t, estimate.VariantDetailed, tmpl.Variant)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hot.html"), []byte("<p>hot</p>"), 0644))

	assert.Eventually(t, func() bool {
		_, err := s.Get("hot")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_NoDirectory(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)
	assert.NoError(t, s.Watch(context.Background()))
}

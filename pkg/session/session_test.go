package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/prompt"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/provider/providertest"
)

const generated = "<html><body><h1>견적서</h1></body></html>"

func newStore() *Store {
	st := NewStore()
	tick := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	st.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return st
}

func loadPrompts(t *testing.T) *prompt.Templates {
	t.Helper()
	p, err := prompt.Load(prompt.Config{})
	require.NoError(t, err)
	return p
}

func TestStore(t *testing.T) {
	st := newStore()
	a := st.Create("A", "standard", estimate.VariantStandard, generated)
	b := st.Create("B", "detailed", estimate.VariantDetailed, generated)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := st.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	list := st.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "newest first")

	require.NoError(t, st.Delete(a.ID))
	_, err = st.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(a.ID), ErrNotFound)
}

func TestUpdateAndReset(t *testing.T) {
	s := newStore().Create("A", "standard", estimate.VariantStandard, generated)

	snap := s.Snapshot()
	assert.False(t, snap.Edited)
	require.Len(t, snap.History, 1)
	assert.Equal(t, RevisionGenerated, snap.History[0].Kind)

	s.Update("<p>manual</p>")
	assert.Equal(t, "<p>manual</p>", s.Current())
	assert.Equal(t, generated, s.Original())
	assert.True(t, s.Snapshot().Edited)

	s.Reset()
	assert.Equal(t, generated, s.Current())
	snap = s.Snapshot()
	assert.False(t, snap.Edited)
	assert.Equal(t, []RevisionKind{RevisionGenerated, RevisionManual, RevisionReset},
		[]RevisionKind{snap.History[0].Kind, snap.History[1].Kind, snap.History[2].Kind})
	assert.True(t, snap.UpdatedAt.After(snap.CreatedAt))
}

func TestEdit(t *testing.T) {
	prompts := loadPrompts(t)

	t.Run("fenced reply replaces current", func(t *testing.T) {
		s := newStore().Create("A", "standard", estimate.VariantStandard, generated)
		p := &providertest.MockProvider{}
		p.Reply("edit", "```html\n<html><body><h1>수정된 견적서</h1></body></html>\n```")

		require.NoError(t, s.Edit(context.Background(), p, prompts, " 제목을 바꿔주세요 "))
		assert.Equal(t, "<html><body><h1>수정된 견적서</h1></body></html>", s.Current())

		reqs := p.Requests()
		require.Len(t, reqs, 1)
		assert.Contains(t, reqs[0].UserPrompt, generated)
		assert.Contains(t, reqs[0].UserPrompt, "제목을 바꿔주세요")
		assert.False(t, reqs[0].JSON)

		hist := s.Snapshot().History
		assert.Equal(t, RevisionChat, hist[len(hist)-1].Kind)
		assert.Equal(t, "제목을 바꿔주세요", hist[len(hist)-1].Instruction)
		p.AssertExpectations(t)
	})

	t.Run("non-html reply leaves current unchanged", func(t *testing.T) {
		s := newStore().Create("A", "standard", estimate.VariantStandard, generated)
		p := &providertest.MockProvider{}
		p.Reply("edit", "죄송하지만 수정할 수 없습니다.")

		err := s.Edit(context.Background(), p, prompts, "고쳐주세요")
		assert.ErrorIs(t, err, ErrNotHTML)
		assert.Equal(t, generated, s.Current())
		assert.Len(t, s.Snapshot().History, 1)
	})

	t.Run("provider error leaves current unchanged", func(t *testing.T) {
		s := newStore().Create("A", "standard", estimate.VariantStandard, generated)
		p := &providertest.MockProvider{}
		boom := errors.New("boom")
		p.Fail("edit", boom)

		err := s.Edit(context.Background(), p, prompts, "고쳐주세요")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, generated, s.Current())
	})

	t.Run("empty instruction makes no call", func(t *testing.T) {
		s := newStore().Create("A", "standard", estimate.VariantStandard, generated)
		p := &providertest.MockProvider{}

		err := s.Edit(context.Background(), p, prompts, "   ")
		assert.ErrorIs(t, err, ErrEmptyInstruction)
		p.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})
}

var _ provider.Provider = (*providertest.MockProvider)(nil)

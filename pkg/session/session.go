// Package session holds generated estimates between requests: the
// original document, the current edited copy and its revision history.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/prompt"
	"github.com/tsanders/estimate-ai/pkg/provider"
)

var (
	// ErrNotFound is returned for an unknown session ID.
	ErrNotFound = errors.New("session not found")
	// ErrEmptyInstruction is returned when an edit names no change.
	ErrEmptyInstruction = errors.New("edit instruction is empty")
	// ErrNotHTML is returned when an edit reply holds no markup.
	ErrNotHTML = errors.New("edited document is not HTML")
)

// RevisionKind tells how a revision was made.
type RevisionKind string

const (
	RevisionGenerated RevisionKind = "generated"
	RevisionChat      RevisionKind = "chat"
	RevisionManual    RevisionKind = "manual"
	RevisionReset     RevisionKind = "reset"
)

// Revision is one step in a session's history.
type Revision struct {
	Kind        RevisionKind `json:"kind"`
	Instruction string       `json:"instruction,omitempty"`
	At          time.Time    `json:"at"`
	Size        int          `json:"size"`
}

// Session is one generated estimate and its edits.
type Session struct {
	ID       string           `json:"id"`
	Project  string           `json:"project"`
	Template string           `json:"template"`
	Variant  estimate.Variant `json:"variant"`

	mu        sync.RWMutex
	original  string
	current   string
	history   []Revision
	createdAt time.Time
	updatedAt time.Time
	now       func() time.Time
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID        string           `json:"id"`
	Project   string           `json:"project"`
	Template  string           `json:"template"`
	Variant   estimate.Variant `json:"variant"`
	HTML      string           `json:"html"`
	Edited    bool             `json:"edited"`
	History   []Revision       `json:"history"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Original returns the generated document.
func (s *Session) Original() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.original
}

// Current returns the document as edited so far.
func (s *Session) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:        s.ID,
		Project:   s.Project,
		Template:  s.Template,
		Variant:   s.Variant,
		HTML:      s.current,
		Edited:    s.current != s.original,
		History:   append([]Revision(nil), s.history...),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// Update replaces the current document with a manual edit.
func (s *Session) Update(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(RevisionManual, "", html)
}

// Reset restores the generated document.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(RevisionReset, "", s.original)
}

// Edit asks the provider to rewrite the current document following
// instruction. On any failure the current document is left unchanged.
func (s *Session) Edit(ctx context.Context, p provider.Provider, prompts *prompt.Templates, instruction string) error {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return ErrEmptyInstruction
	}

	req, err := prompts.Build(prompt.Edit, prompt.Data{HTML: s.Current(), Instruction: instruction})
	if err != nil {
		return err
	}
	resp, err := p.Complete(ctx, provider.CompletionRequest{
		SystemPrompt: req.System,
		UserPrompt:   req.User,
		Label:        string(prompt.Edit),
		MaxTokens:    8000,
	})
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}

	html := provider.StripFences(resp.Text)
	if !strings.Contains(html, "<") {
		return ErrNotHTML
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(RevisionChat, instruction, html)
	return nil
}

// record must be called with mu held.
func (s *Session) record(kind RevisionKind, instruction, html string) {
	at := s.clock()
	s.current = html
	s.updatedAt = at
	s.history = append(s.history, Revision{Kind: kind, Instruction: instruction, At: at, Size: len(html)})
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Store is an in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}, now: time.Now}
}

// Create registers a freshly generated document.
func (st *Store) Create(project, template string, variant estimate.Variant, html string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Project:  project,
		Template: template,
		Variant:  variant,
		original: html,
		now:      st.now,
	}
	s.record(RevisionGenerated, "", html)
	s.createdAt = s.updatedAt

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(st.sessions, id)
	return nil
}

// List returns snapshots of all sessions, newest first.
func (st *Store) List() []Snapshot {
	st.mu.RLock()
	out := make([]Snapshot, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s.Snapshot())
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

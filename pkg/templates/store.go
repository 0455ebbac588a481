// Package templates provides the estimate HTML templates: the embedded
// built-in set plus an optional user directory that is reloaded on change.
package templates

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tsanders/estimate-ai/pkg/document"
	"github.com/tsanders/estimate-ai/pkg/estimate"
)

//go:embed builtin/*.html
var builtinFS embed.FS

// DefaultName is used when a request names no template.
const DefaultName = "standard"

// ErrNotFound is returned for an unknown template name.
var ErrNotFound = errors.New("template not found")

// Source tells where a template came from.
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceDir     Source = "dir"
	// SourceInline marks a template supplied with a request.
	SourceInline Source = "inline"
)

// Template is one selectable HTML template.
type Template struct {
	Name    string           `json:"name"`
	Source  Source           `json:"source"`
	Path    string           `json:"path,omitempty"`
	Variant estimate.Variant `json:"variant"`
	HTML    string           `json:"-"`
}

// Store holds the built-in templates and those found in a user directory.
// Directory templates shadow built-ins of the same name.
type Store struct {
	dir    string
	logger *zap.Logger

	mu       sync.RWMutex
	builtins map[string]Template
	user     map[string]Template
}

// New loads the built-ins and, when dir is set, the *.html files in dir.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{dir: dir, logger: logger, user: map[string]Template{}}

	builtins, err := loadBuiltins()
	if err != nil {
		return nil, err
	}
	s.builtins = builtins

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func loadBuiltins() (map[string]Template, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read built-in templates: %w", err)
	}
	out := make(map[string]Template, len(entries))
	for _, e := range entries {
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read built-in template %s: %w", e.Name(), err)
		}
		out[nameOf(e.Name())] = newTemplate(e.Name(), string(data), SourceBuiltin, "")
	}
	return out, nil
}

func newTemplate(filename, html string, src Source, path string) Template {
	return Template{
		Name:    nameOf(filename),
		Source:  src,
		Path:    path,
		Variant: document.DetectVariant(filename, html),
		HTML:    html,
	}
}

func nameOf(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// Dir returns the watched user directory, if any.
func (s *Store) Dir() string { return s.dir }

// Reload rereads the user directory.
func (s *Store) Reload() error {
	user := map[string]Template{}
	if s.dir != "" {
		matches, err := filepath.Glob(filepath.Join(s.dir, "*.html"))
		if err != nil {
			return fmt.Errorf("list templates in %s: %w", s.dir, err)
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				// A file removed between Glob and ReadFile is not fatal.
				s.logger.Warn("skipping unreadable template", zap.String("path", path), zap.Error(err))
				continue
			}
			t := newTemplate(filepath.Base(path), string(data), SourceDir, path)
			user[t.Name] = t
		}
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Debug("templates loaded", zap.Int("builtin", len(s.builtins)), zap.Int("dir", len(user)))
	return nil
}

// Get returns the named template. The ".html" suffix is optional and an
// empty name selects DefaultName.
func (s *Store) Get(name string) (Template, error) {
	name = nameOf(strings.TrimSpace(name))
	if name == "" || name == "." {
		name = DefaultName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.user[name]; ok {
		return t, nil
	}
	if t, ok := s.builtins[name]; ok {
		return t, nil
	}
	return Template{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// List returns every selectable template sorted by name.
func (s *Store) List() []Template {
	s.mu.RLock()
	merged := make(map[string]Template, len(s.builtins)+len(s.user))
	for k, v := range s.builtins {
		merged[k] = v
	}
	for k, v := range s.user {
		merged[k] = v
	}
	s.mu.RUnlock()

	out := make([]Template, 0, len(merged))
	for _, t := range merged {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Watch reloads the user directory whenever an *.html file in it changes,
// until ctx is done. It is a no-op without a directory.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".html" {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("template reload failed", zap.Error(err))
					continue
				}
				s.logger.Info("templates reloaded", zap.String("trigger", event.Name), zap.String("op", event.Op.String()))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("template watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

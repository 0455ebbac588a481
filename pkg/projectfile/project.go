// Package projectfile reads and writes estimate request files: the project
// information of one estimate kept as YAML so it can be generated again.
package projectfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
)

const FileVersion = "1.0"

// File is an estimate request.
type File struct {
	Version  string   `yaml:"version"`
	Template string   `yaml:"template,omitempty"`
	Project  Project  `yaml:"project"`
	Packages Packages `yaml:"packages,omitempty"`
	// Attachments are reference files, relative to the request file.
	Attachments []string `yaml:"attachments,omitempty"`
}

// Project holds the client-facing project fields.
type Project struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Client       string `yaml:"client,omitempty"`
	Budget       string `yaml:"budget,omitempty"`
	Timeline     string `yaml:"timeline,omitempty"`
	Requirements string `yaml:"requirements,omitempty"`
	Instructions string `yaml:"instructions,omitempty"`
}

// Packages are fixed package prices, e.g. "1500만원".
type Packages struct {
	Basic    string `yaml:"basic,omitempty"`
	Standard string `yaml:"standard,omitempty"`
	Premium  string `yaml:"premium,omitempty"`
}

// Load reads a request from a YAML file. Relative attachment paths are
// resolved against the file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}

	if err := Validate(&f); err != nil {
		return nil, fmt.Errorf("invalid project file: %w", err)
	}

	dir := filepath.Dir(path)
	for i, a := range f.Attachments {
		if !filepath.IsAbs(a) {
			f.Attachments[i] = filepath.Join(dir, a)
		}
	}

	return &f, nil
}

// Save writes a request to a YAML file
func Save(f *File, path string) error {
	if err := Validate(f); err != nil {
		return fmt.Errorf("invalid project file: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal project file: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}

	return nil
}

// New creates a request from project info. The free-form attachment text is
// not kept.
func New(p estimate.ProjectInfo, template string) *File {
	return &File{
		Version:  FileVersion,
		Template: template,
		Project: Project{
			Name:         p.Name,
			Description:  p.Description,
			Client:       p.Client,
			Budget:       p.Budget,
			Timeline:     p.Timeline,
			Requirements: p.AdditionalRequirements,
			Instructions: p.Instructions,
		},
		Packages: Packages{
			Basic:    price(p.PackageBudgets.Basic),
			Standard: price(p.PackageBudgets.Standard),
			Premium:  price(p.PackageBudgets.Premium),
		},
	}
}

// ProjectInfo converts the request into pipeline input.
func (f *File) ProjectInfo() estimate.ProjectInfo {
	return estimate.ProjectInfo{
		Name:                   f.Project.Name,
		Description:            f.Project.Description,
		Client:                 f.Project.Client,
		Budget:                 f.Project.Budget,
		Timeline:               f.Project.Timeline,
		AdditionalRequirements: f.Project.Requirements,
		Instructions:           f.Project.Instructions,
		PackageBudgets: estimate.PackageBudgets{
			Basic:    currency.ParsePrice(f.Packages.Basic),
			Standard: currency.ParsePrice(f.Packages.Standard),
			Premium:  currency.ParsePrice(f.Packages.Premium),
		},
	}
}

func price(n int64) string {
	if n <= 0 {
		return ""
	}
	return currency.Format(n)
}

package projectfile

import (
	"fmt"
	"strings"

	"github.com/tsanders/estimate-ai/pkg/currency"
)

// Validate checks the version, the required project fields and that any
// package price can be read.
func Validate(f *File) error {
	if f == nil {
		return fmt.Errorf("project file is nil")
	}

	if f.Version == "" {
		return fmt.Errorf("version is required")
	}

	if f.Version != FileVersion {
		return fmt.Errorf("unsupported version: %s (expected %s)", f.Version, FileVersion)
	}

	if strings.TrimSpace(f.Project.Name) == "" {
		return fmt.Errorf("project name is required")
	}

	if strings.TrimSpace(f.Project.Description) == "" {
		return fmt.Errorf("project description is required")
	}

	for tier, v := range map[string]string{
		"basic":    f.Packages.Basic,
		"standard": f.Packages.Standard,
		"premium":  f.Packages.Premium,
	} {
		if err := validatePrice(tier, v); err != nil {
			return err
		}
	}

	for i, a := range f.Attachments {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("attachment %d: path is empty", i)
		}
	}

	return nil
}

func validatePrice(tier, v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	if currency.ParsePrice(v) <= 0 {
		return fmt.Errorf("invalid %s package price: %q", tier, v)
	}
	return nil
}

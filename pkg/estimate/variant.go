package estimate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Variant is the closed set of document shapes. Each variant has exactly one
// substitution strategy and one content plan.
type Variant int

const (
	VariantStandard Variant = iota
	VariantDetailed
	VariantPhased
)

var variantNames = map[Variant]string{
	VariantStandard: "standard",
	VariantDetailed: "detailed",
	VariantPhased:   "phased",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant parses a variant name. "phase-based" is accepted as an alias.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "":
		return VariantStandard, nil
	case "detailed":
		return VariantDetailed, nil
	case "phased", "phase-based", "phase":
		return VariantPhased, nil
	}
	return VariantStandard, fmt.Errorf("unknown document variant %q (valid: standard, detailed, phased)", s)
}

// MarshalJSON encodes the variant by name.
func (v Variant) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes a variant name.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// CostRows is the number of cost table rows the variant's template holds.
func (v Variant) CostRows() int {
	if v == VariantDetailed {
		return 6
	}
	return 7
}

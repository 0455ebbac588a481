package document

import (
	"strings"

	"github.com/tsanders/estimate-ai/pkg/estimate"
)

var (
	detailedFileKeywords    = []string{"상세설계", "상세견적서"}
	detailedContentKeywords = []string{"상세설계", "상세 견적서"}
	phasedKeywords          = []string{"단계별", "phase"}
)

// DetectVariant picks the template variant from the filename first, then
// the template content. Detailed keywords are checked before phased ones;
// anything else is standard.
func DetectVariant(filename, content string) estimate.Variant {
	name := strings.ToLower(filename)
	if containsAny(name, detailedFileKeywords) {
		return estimate.VariantDetailed
	}
	if containsAny(name, phasedKeywords) {
		return estimate.VariantPhased
	}

	body := strings.ToLower(content)
	if containsAny(body, detailedContentKeywords) {
		return estimate.VariantDetailed
	}
	if containsAny(body, phasedKeywords) {
		return estimate.VariantPhased
	}
	return estimate.VariantStandard
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

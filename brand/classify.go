package brand

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Verdict is the outcome of Classify. Message is non-nil iff IsExclusive.
type Verdict struct {
	IsExclusive bool
	Message     *string

	// Brand is the registry brand that matched, "" when not exclusive.
	Brand string
}

// Classify reports whether make or model names one of the retailer's
// exclusive brands. The test is a case-insensitive substring match against
// each listed brand in list order; the first brand that matches wins.
//
// A model string containing "ozito" anywhere matches "Ozito" on purpose:
// retailers often fold the house brand into the model field.
func (r *Registry) Classify(brandName, model *string, retailer string) Verdict {
	entry, ok := r.Lookup(retailer)
	if !ok || (brandName == nil && model == nil) {
		return Verdict{}
	}

	makeLower := lowerOrEmpty(brandName)
	modelLower := lowerOrEmpty(model)

	for _, b := range entry.Brands {
		needle := strings.ToLower(b)
		if (makeLower != "" && strings.Contains(makeLower, needle)) ||
			(modelLower != "" && strings.Contains(modelLower, needle)) {
			msg := fmt.Sprintf("%s can only be purchased at %s.", capitalize(b), entry.Label)
			return Verdict{IsExclusive: true, Message: &msg, Brand: b}
		}
	}

	return Verdict{}
}

// capitalize upper-cases the first character and leaves the rest as is.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}

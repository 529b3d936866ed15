package cleaner

import (
	"strings"
	"unicode"
)

// NormalizeMake strips every character that is not a letter, digit or
// whitespace from a raw brand string and trims the result.
// Returns nil if raw is nil or nothing is left.
func NormalizeMake(raw *string) *string {
	return normalize(raw, false)
}

// NormalizeModel is NormalizeMake but keeps hyphens, which are common in
// model numbers ("R18PD3-0").
func NormalizeModel(raw *string) *string {
	return normalize(raw, true)
}

func normalize(raw *string, keepHyphen bool) *string {
	if raw == nil {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case keepHyphen && r == '-':
			return r
		}
		return -1
	}, strings.TrimSpace(*raw))

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

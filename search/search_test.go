package search

import (
	"testing"

	"github.com/use-agent/makemodel/models"
)

func TestURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		term string
		want string
		ok   bool
	}{
		{"default base", "", "Bosch GSB18", "https://www.google.com/search?q=Bosch+GSB18", true},
		{"keeps base params", "https://duckduckgo.com/?ia=web", "Makita DTD153Z", "https://duckduckgo.com/?ia=web&q=Makita+DTD153Z", true},
		{"escapes", "", "A&B 1/2", "https://www.google.com/search?q=A%26B+1%2F2", true},
		{"blank term", "", "  ", "", false},
		{"relative base", "/search", "x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := URL(tt.base, tt.term)
			if ok != tt.ok || got != tt.want {
				t.Errorf("URL(%q, %q) = %q, %v; want %q, %v", tt.base, tt.term, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestForResult(t *testing.T) {
	if _, ok := ForResult("", nil); ok {
		t.Error("nil result has no search link")
	}
	if _, ok := ForResult("", &models.ExtractionResult{SearchTerm: "Ryobi R18", IsExclusive: true}); ok {
		t.Error("exclusive result must not get a search link")
	}
	if _, ok := ForResult("", &models.ExtractionResult{}); ok {
		t.Error("empty search term must not get a search link")
	}
	if got, ok := ForResult("", &models.ExtractionResult{SearchTerm: "Bosch GSB18"}); !ok || got == "" {
		t.Errorf("ForResult = %q, %v", got, ok)
	}
}

// Package extractor finds the make and model of a product on a supported
// retailer page. Each retailer is a Site; a Site runs the same ordered
// waterfall of methods over its own selectors.
package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Raw is the unnormalized make/model pair a Site produces.
type Raw struct {
	Make  *string
	Model *string
}

// fill sets fields that are still nil. Blank values are ignored, so the
// first non-empty value per field wins.
func (r *Raw) fill(brandName, model *string) {
	if r.Make == nil && brandName != nil && strings.TrimSpace(*brandName) != "" {
		v := strings.TrimSpace(*brandName)
		r.Make = &v
	}
	if r.Model == nil && model != nil && strings.TrimSpace(*model) != "" {
		v := strings.TrimSpace(*model)
		r.Model = &v
	}
}

func (r *Raw) complete() bool {
	return r.Make != nil && r.Model != nil
}

// Extractor is the capability every retailer variant implements.
type Extractor interface {
	// Retailer is the canonical label stored in results ("Bunnings").
	Retailer() string

	// Matches reports whether host belongs to the retailer.
	Matches(host string) bool

	// Extract runs the waterfall. It never fails; missing data is nil.
	Extract(doc *Document) Raw
}

// Pair describes how label/value rows are laid out on a site.
type Pair struct {
	// Item selects the repeated row, or the label itself when Label is "".
	Item string

	// Label selects the label inside Item. Empty means Item is the label.
	Label string

	// Value selects the value inside Item. Empty means the element
	// following the label (the dd after a dt).
	Value string
}

// Site is a retailer variant described by its domains and selectors.
type Site struct {
	Name    string
	Domains []string

	// BrandMarker selects the element holding the brand name.
	BrandMarker string

	// Structured reads the model from an embedded data payload. Optional.
	Structured func(doc *Document) Raw

	// Pairs are the label/value layouts searched for "model number",
	// "brand" and "manufacturer".
	Pairs []Pair

	// ModelMarker selects elements whose text looks like "MODEL: X".
	ModelMarker string

	// Title selects the product heading used by the title heuristic.
	Title string
}

var _ Extractor = (*Site)(nil)

func (s *Site) Retailer() string { return s.Name }

// Matches accepts the domain itself and any subdomain of it.
func (s *Site) Matches(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range s.Domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func (s *Site) Extract(doc *Document) Raw {
	var raw Raw
	for _, m := range waterfall {
		before := raw
		m.run(s, doc, &raw)
		if raw != before {
			slog.Debug("extractor: method filled fields",
				"retailer", s.Name, "method", m.name,
				"make", raw.Make != nil, "model", raw.Model != nil)
		}
		if raw.complete() {
			break
		}
	}
	return raw
}

// Validate compiles every selector of the site.
func (s *Site) Validate() error {
	if s.Name == "" || len(s.Domains) == 0 {
		return fmt.Errorf("site %q: name and domains are required", s.Name)
	}

	selectors := []string{s.BrandMarker, s.ModelMarker, s.Title}
	for _, p := range s.Pairs {
		selectors = append(selectors, p.Item, p.Label, p.Value)
	}
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return fmt.Errorf("site %s: selector %q: %w", s.Name, sel, err)
		}
	}
	return nil
}

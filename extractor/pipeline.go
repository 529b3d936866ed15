package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/makemodel/brand"
	"github.com/use-agent/makemodel/cleaner"
	"github.com/use-agent/makemodel/models"
)

// Pipeline selects the extractor for a page, runs it, normalizes the raw
// pair and builds the classified result. It holds no per-page state and is
// safe for concurrent use.
type Pipeline struct {
	extractors []Extractor
	brands     *brand.Registry
}

// NewPipeline validates the Site variants among extractors. With no
// extractors the built-in Sites are used.
func NewPipeline(brands *brand.Registry, extractors ...Extractor) (*Pipeline, error) {
	if len(extractors) == 0 {
		extractors = Sites()
	}
	for _, e := range extractors {
		if s, ok := e.(*Site); ok {
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("extractor: %w", err)
			}
		}
	}
	if brands == nil {
		brands = brand.Default()
	}
	return &Pipeline{extractors: extractors, brands: brands}, nil
}

// Select returns the first extractor matching host, or nil.
func (p *Pipeline) Select(host string) Extractor {
	for _, e := range p.extractors {
		if e.Matches(host) {
			return e
		}
	}
	return nil
}

// Supports reports whether some extractor handles host.
func (p *Pipeline) Supports(host string) bool {
	return p.Select(host) != nil
}

// Extract returns nil when the page's host is not supported. Otherwise it
// always returns a result, possibly with both make and model nil.
func (p *Pipeline) Extract(doc *Document) *models.ExtractionResult {
	ext := p.Select(doc.Host())
	if ext == nil {
		slog.Debug("no make/model found on this page", "host", doc.Host())
		return nil
	}

	raw := ext.Extract(doc)
	return BuildResult(cleaner.NormalizeMake(raw.Make), cleaner.NormalizeModel(raw.Model), ext.Retailer(), p.brands)
}

// BuildResult assembles the record from normalized make/model and the
// classifier verdict. Blank strings are treated as absent.
func BuildResult(brandName, model *string, retailer string, brands *brand.Registry) *models.ExtractionResult {
	brandName, model = nonBlank(brandName), nonBlank(model)
	verdict := brands.Classify(brandName, model, retailer)

	parts := presentParts(brandName, model)

	return &models.ExtractionResult{
		Make:             brandName,
		Model:            model,
		SearchTerm:       strings.Join(parts, " "),
		IsExclusive:      verdict.IsExclusive,
		ExclusiveMessage: verdict.Message,
		Retailer:         retailer,
	}
}

func presentParts(fields ...*string) []string {
	var parts []string
	for _, f := range fields {
		if f != nil {
			parts = append(parts, *f)
		}
	}
	return parts
}

// HasProduct reports whether a fetched page is worth extracting from: the
// retailer is unsupported, or at least one of make and model was found.
// Client-rendered shells of supported retailers report false.
func (p *Pipeline) HasProduct(rawHTML, pageURL string) bool {
	doc, err := NewDocument(rawHTML, pageURL)
	if err != nil {
		return false
	}
	r := p.Extract(doc)
	return r == nil || r.Make != nil || r.Model != nil
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

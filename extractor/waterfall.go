package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// method is one step of the waterfall. It only fills fields still missing.
type method struct {
	name string
	run  func(s *Site, doc *Document, raw *Raw)
}

// waterfall is ordered from most to least reliable source.
var waterfall = []method{
	{name: "structured", run: structuredMethod},
	{name: "labeled", run: labeledMethod},
	{name: "pattern", run: patternMethod},
	{name: "title", run: titleMethod},
}

var (
	modelPrefix = regexp.MustCompile(`(?i)\b(?:MODEL|M):\s*(.+)`)
	titleBrand  = regexp.MustCompile(`^([A-Za-z]+(?:\s+[A-Za-z]+)?)\s+`)
)

func structuredMethod(s *Site, doc *Document, raw *Raw) {
	if s.Structured == nil {
		return
	}
	found := s.Structured(doc)
	raw.fill(found.Make, found.Model)
}

func labeledMethod(s *Site, doc *Document, raw *Raw) {
	if s.BrandMarker != "" {
		raw.fill(doc.Text(s.BrandMarker), nil)
	}

	for _, p := range s.Pairs {
		doc.Find(p.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
			label, value := pairText(p, item)
			if value == nil {
				return true
			}
			l := strings.ToLower(label)
			if strings.Contains(l, "model number") {
				raw.fill(nil, value)
			}
			if strings.Contains(l, "brand") || strings.Contains(l, "manufacturer") {
				raw.fill(value, nil)
			}
			return !raw.complete()
		})
		if raw.complete() {
			return
		}
	}
}

func pairText(p Pair, item *goquery.Selection) (string, *string) {
	labelSel := item
	if p.Label != "" {
		labelSel = item.Find(p.Label).First()
	}

	var valueSel *goquery.Selection
	if p.Value != "" {
		valueSel = item.Find(p.Value).First()
	} else {
		valueSel = labelSel.Next()
	}

	return strings.TrimSpace(labelSel.Text()), trimmed(valueSel.Text())
}

func patternMethod(s *Site, doc *Document, raw *Raw) {
	if s.ModelMarker == "" || raw.Model != nil {
		return
	}

	doc.Find(s.ModelMarker).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		m := modelPrefix.FindStringSubmatch(strings.TrimSpace(el.Text()))
		if m == nil {
			return true
		}
		raw.fill(nil, trimmed(m[1]))
		return raw.Model == nil
	})
}

func titleMethod(s *Site, doc *Document, raw *Raw) {
	if raw.Make != nil {
		return
	}

	// Only the product heading names the product. The document <title>
	// carries the retailer name and is all a client-rendered shell or an
	// error page has.
	if s.Title == "" {
		return
	}
	title := doc.Text(s.Title)
	if title == nil {
		return
	}
	if m := titleBrand.FindStringSubmatch(*title); m != nil {
		raw.fill(trimmed(m[1]), nil)
	}
}

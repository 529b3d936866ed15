package extractor

import "github.com/ysmood/gson"

// Bunnings is the bunnings.co.nz variant. Product pages are rendered by
// Next.js and carry the catalogue record in #__NEXT_DATA__.
func Bunnings() *Site {
	return &Site{
		Name:        "Bunnings",
		Domains:     []string{"bunnings.co.nz"},
		BrandMarker: `[data-locator="product-brand-name"]`,
		Structured:  bunningsNextData,
		Pairs:       []Pair{{Item: "dt"}},
		Title:       `[data-locator="product-title"]`,
	}
}

// Mitre10 is the mitre10.co.nz variant. Everything is server rendered.
func Mitre10() *Site {
	return &Site{
		Name:        "Mitre10",
		Domains:     []string{"mitre10.co.nz"},
		BrandMarker: ".product--brand",
		Pairs: []Pair{
			{Item: ".spec-item", Label: ".attr", Value: ".value"},
			{Item: "dt"},
		},
		ModelMarker: ".product--model-number",
		Title:       "h1.product--name, .product--title",
	}
}

// Sites returns the supported retailer variants in selection order.
func Sites() []Extractor {
	return []Extractor{Mitre10(), Bunnings()}
}

// bunningsNextData reads the modelNumber feature of the retail-product
// query from the dehydrated react-query state.
func bunningsNextData(doc *Document) Raw {
	payload := doc.Find("script#__NEXT_DATA__").First().Text()
	if payload == "" {
		return Raw{}
	}

	loc := LocatePath(payload,
		"props", "pageProps", "dehydratedState", "queries",
		Where(func(q gson.JSON) bool {
			key, ok := q.Gets("queryKey", 0)
			return ok && key.Str() == "retail-product"
		}),
		"state", "data", "classifications", 0, "features",
		Where(func(f gson.JSON) bool {
			code, ok := f.Gets("code")
			return ok && code.Str() == "modelNumber"
		}),
		"featureValues", 0, "value",
	)
	return Raw{Model: loc.Str()}
}

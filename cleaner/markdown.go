package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// specBlocks are the containers retailers use for their specification
// tables. Definition lists cover Bunnings, .spec-item rows cover Mitre 10.
const specBlocks = `dl, .spec-item, [data-locator*="specification"], table.specifications`

// NewMarkdownConverter creates a reusable, goroutine-safe Converter for
// specification blocks. Tables keep minimal cell padding.
func NewMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// SpecSheet renders the product specification blocks of a page as Markdown,
// so an operator can see exactly what the labeled-DOM method searched.
// Returns "" when the page has no recognisable specification block.
func SpecSheet(conv *converter.Converter, rawHTML string, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	doc.Find(specBlocks).Each(func(_ int, s *goquery.Selection) {
		// Nested matches (a .spec-item inside a matched dl) are rendered
		// with their parent already.
		if s.ParentsFiltered(specBlocks).Length() > 0 {
			return
		}
		h, err := goquery.OuterHtml(s)
		if err == nil {
			buf.WriteString(h)
		}
	})
	if buf.Len() == 0 {
		return "", nil
	}

	md, err := conv.ConvertString(buf.String(), converter.WithDomain(pageURL))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

package cleaner

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ApplyCSSSelector narrows a product page to the elements matching selector
// and returns them wrapped in a minimal document. Embedded data scripts
// (e.g. __NEXT_DATA__) are kept so the structured-data method still sees
// the payload when a client scopes the page to a visual section.
//
// If no elements match, rawHTML is returned unchanged.
func ApplyCSSSelector(rawHTML string, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	buf.WriteString("<html><body>")
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	for _, node := range cascadia.QueryAll(doc, dataScripts) {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	buf.WriteString("</body></html>")

	return buf.String(), nil
}

var dataScripts = cascadia.MustCompile(`script[type="application/json"], script[type="application/ld+json"], script#__NEXT_DATA__`)

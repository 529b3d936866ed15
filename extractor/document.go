package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is one snapshot of a product page: the parsed DOM plus the URL
// it was loaded from. It is read-only once built.
type Document struct {
	URL  *url.URL
	HTML string

	dom *goquery.Document
}

// NewDocument parses rawHTML as the page at pageURL.
func NewDocument(rawHTML, pageURL string) (*Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	dom, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	return &Document{URL: u, HTML: rawHTML, dom: dom}, nil
}

// Host returns the lowercased host name without port.
func (d *Document) Host() string {
	if d == nil || d.URL == nil {
		return ""
	}
	return strings.ToLower(d.URL.Hostname())
}

// Find runs a CSS selector against the whole page.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.dom.Find(selector)
}

// Text returns the trimmed text of the first element matching selector,
// or nil when nothing matches or the text is blank.
func (d *Document) Text(selector string) *string {
	return trimmed(d.dom.Find(selector).First().Text())
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

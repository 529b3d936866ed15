package engine

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)
	emptyRoots = []string{`<div id="root"></div>`, `<div id="app"></div>`, `<div id="__next"></div>`}
)

// minBodyChars is the least visible text a server-rendered page carries.
const minBodyChars = 200

// NeedsRendering reports whether statically fetched HTML looks like a
// client-rendered shell: almost no body text, an empty framework root,
// or a noscript warning. Such pages must go through a browser.
func NeedsRendering(rawHTML string) bool {
	text := bodyText(rawHTML)
	if len(text) < minBodyChars {
		return true
	}

	lower := strings.ToLower(rawHTML)
	for _, root := range emptyRoots {
		if strings.Contains(lower, root) {
			return true
		}
	}
	if reNoscript.MatchString(lower) {
		return true
	}

	return strings.Count(lower, "<script") > 10 && len(text) < 500
}

// bodyText is the visible text inside <body>, without script and style.
func bodyText(rawHTML string) string {
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	var b strings.Builder
	inBody := false
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			switch tagName(z) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skip++
			}
		case html.EndTagToken:
			switch tagName(z) {
			case "script", "style", "noscript":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if !inBody || skip > 0 {
				continue
			}
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
	}
}

// pageTitle returns the text of the first <title> element.
func pageTitle(rawHTML string) string {
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if tagName(z) == "title" {
				if z.Next() == html.TextToken {
					return strings.TrimSpace(string(z.Text()))
				}
				return ""
			}
		}
	}
}

func tagName(z *html.Tokenizer) string {
	name, _ := z.TagName()
	return string(name)
}

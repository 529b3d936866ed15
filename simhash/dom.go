package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// shingleSize is the number of consecutive tags hashed as one token.
const shingleSize = 3

// FingerprintDOM fingerprints the tag sequence of htmlStr, ignoring text
// and attributes. A client-side re-render that only swaps text keeps the
// same value; one that inserts a spec table does not.
func FingerprintDOM(htmlStr string) uint64 {
	tags := openTags(htmlStr)
	if len(tags) < shingleSize {
		return fingerprintTokens(tags)
	}
	return fingerprintTokens(shingles(tags, shingleSize))
}

// openTags returns the names of start and self-closing tags in document order.
func openTags(htmlStr string) []string {
	z := html.NewTokenizer(strings.NewReader(htmlStr))
	var tags []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tags = append(tags, string(name))
		}
	}
}

// shingles joins every run of n consecutive tokens with "_".
func shingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := range len(tokens) - n + 1 {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}

package simhash

import (
	"hash/fnv"
	"strings"

	"golang.org/x/net/html"
)

// Snapshot fingerprints one rendering of a page.
type Snapshot struct {
	// Structure is the FingerprintDOM of the markup.
	Structure uint64

	// Text is the Fingerprint of the visible text.
	Text uint64

	// Sum is an exact FNV-64a hash of the raw markup. Two snapshots with the
	// same Sum are the same page; the SimHash fields only say how far apart
	// two different renderings are.
	Sum uint64
}

// Page computes the Snapshot of rawHTML.
func Page(rawHTML string) Snapshot {
	h := fnv.New64a()
	h.Write([]byte(rawHTML))

	return Snapshot{
		Structure: FingerprintDOM(rawHTML),
		Text:      Fingerprint(visibleText(rawHTML)),
		Sum:       h.Sum64(),
	}
}

// Same reports whether both snapshots were taken from identical markup.
func (s Snapshot) Same(o Snapshot) bool {
	return s.Sum == o.Sum
}

// Drift is the larger of the structure and text Hamming distances.
func (s Snapshot) Drift(o Snapshot) int {
	return max(Distance(s.Structure, o.Structure), Distance(s.Text, o.Text))
}

// visibleText concatenates text tokens outside script and style elements.
func visibleText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var b strings.Builder
	skip := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if isRawText(tokenizer) {
				skip++
			}
		case html.EndTagToken:
			if isRawText(tokenizer) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isRawText(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

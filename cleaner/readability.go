package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ArticleTitle runs the Mozilla Readability algorithm on rawHTML and returns
// the detected article title, trimmed. The inspect view reports it next to
// the extraction result; it is never used to derive a make, since on
// retailer pages it falls back to the document <title>.
// Any failure yields "".
func ArticleTitle(rawHTML string, pageURL string) string {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		slog.Debug("readability: invalid page URL", "url", pageURL, "error", err)
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: title extraction failed", "url", pageURL, "error", err)
		return ""
	}

	return strings.TrimSpace(article.Title)
}

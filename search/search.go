// Package search builds the outbound web search link for a result.
package search

import (
	"net/url"
	"strings"

	"github.com/use-agent/makemodel/models"
)

// DefaultBase is used when no base URL is configured.
const DefaultBase = "https://www.google.com/search"

// URL returns base with the q parameter set to term. It reports false for
// a blank term or an unparsable base.
func URL(base, term string) (string, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", false
	}
	if base == "" {
		base = DefaultBase
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	q := u.Query()
	q.Set("q", term)
	u.RawQuery = q.Encode()
	return u.String(), true
}

// ForResult returns the search link for r. Exclusive products cannot be
// bought elsewhere, so they get none.
func ForResult(base string, r *models.ExtractionResult) (string, bool) {
	if r == nil || r.IsExclusive {
		return "", false
	}
	return URL(base, r.SearchTerm)
}

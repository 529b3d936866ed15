// Package engine fetches product pages. Engines range from a plain HTTP
// client to a full browser; the Dispatcher races them.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrIncomplete is returned (wrapped) when a fetched page lacks the content
// needed for extraction, so a heavier engine should be tried. The page
// itself may accompany it; it is still the answer when no engine does
// better.
var ErrIncomplete = errors.New("page content incomplete")

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}

// Validator inspects a fetch result before the dispatcher accepts it.
// A non-nil error makes the result count as a failed attempt.
type Validator func(res *FetchResult) error

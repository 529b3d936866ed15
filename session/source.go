package session

import (
	"context"
	"sync"

	"github.com/use-agent/makemodel/extractor"
)

// Source yields the current rendering of a page.
type Source interface {
	Snapshot(ctx context.Context) (*extractor.Document, error)
}

// MutationSource is a Source that can signal content changes. The channel
// is closed when the source goes away.
type MutationSource interface {
	Source
	Mutations() <-chan struct{}
}

// StaticSource is a page whose HTML is pushed by a client, such as a
// browser extension forwarding the rendered document.
type StaticSource struct {
	pageURL string

	mu      sync.RWMutex
	html    string
	closed  bool
	signals chan struct{}
}

var _ MutationSource = (*StaticSource)(nil)

func NewStaticSource(html, pageURL string) *StaticSource {
	return &StaticSource{
		pageURL: pageURL,
		html:    html,
		signals: make(chan struct{}, 1),
	}
}

func (s *StaticSource) Snapshot(context.Context) (*extractor.Document, error) {
	s.mu.RLock()
	html := s.html
	s.mu.RUnlock()
	return extractor.NewDocument(html, s.pageURL)
}

// Update replaces the page HTML and raises a mutation signal. Signals
// coalesce while one is pending.
func (s *StaticSource) Update(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.html = html
	select {
	case s.signals <- struct{}{}:
	default:
	}
}

func (s *StaticSource) Mutations() <-chan struct{} {
	return s.signals
}

// Close closes the mutation channel. Further updates are ignored.
func (s *StaticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.signals)
	}
	return nil
}

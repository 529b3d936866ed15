package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
)

// Manager owns the open sessions of the service. Sessions idle for longer
// than the TTL are closed by a background loop.
type Manager struct {
	pipeline *extractor.Pipeline
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	done chan struct{}
	once sync.Once
}

// NewManager starts the expiry loop. A ttl <= 0 disables expiry.
func NewManager(pipeline *extractor.Pipeline, ttl time.Duration) *Manager {
	m := &Manager{
		pipeline: pipeline,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go m.expireLoop(max(min(ttl/2, time.Minute), 10*time.Millisecond))
	}
	return m
}

// Open creates, registers and starts a session for src.
func (m *Manager) Open(pageURL string, src Source, store Store, opts Options) *Session {
	s := New(uuid.NewString(), pageURL, src, store, m.pipeline, opts)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.Start()
	slog.Info("session opened", "session", s.ID, "url", pageURL, "live", s.Live())
	return s
}

// Get returns the session or a SESSION_NOT_FOUND error: the page the
// caller wants to talk to is gone.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, models.NewExtractError(models.ErrCodeSessionNotFound, "session "+id+" not found", nil)
	}
	return s, nil
}

// Query routes req to a session. Only a missing session or an unknown
// action is an error.
func (m *Manager) Query(ctx context.Context, id string, req models.QueryRequest) (models.QueryResponse, error) {
	s, err := m.Get(id)
	if err != nil {
		return models.QueryResponse{}, err
	}
	return s.Query(ctx, req)
}

// Drop unregisters and closes a session.
func (m *Manager) Drop(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return models.NewExtractError(models.ErrCodeSessionNotFound, "session "+id+" not found", nil)
	}

	s.Close()
	slog.Info("session closed", "session", id)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the expiry loop and closes every session.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

func (m *Manager) expireLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.expire(now)
		}
	}
}

// expire closes sessions idle since before now - ttl.
func (m *Manager) expire(now time.Time) {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		slog.Info("session expired", "session", s.ID)
	}
}

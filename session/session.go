// Package session hosts page sessions: one product page, the extraction
// schedule run against it, the cached result and the query bridge that
// serves it.
package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
	"github.com/use-agent/makemodel/simhash"
	"github.com/use-agent/makemodel/webhook"
)

// Pass triggers, as logged.
const (
	TriggerTimer    = "timer"
	TriggerMutation = "mutation"
	TriggerQuery    = "query"
	TriggerManual   = "manual"
)

// DefaultDelays are the timer passes after start: on ready, +1s and +3s.
var DefaultDelays = []time.Duration{0, time.Second, 3 * time.Second}

// Options tune one session.
type Options struct {
	// Delays are offsets from Start at which timer passes run.
	Delays []time.Duration

	// WatchMutations enables passes on MutationSource signals.
	WatchMutations bool

	// WebhookURL receives session.result when the cached value changes.
	WebhookURL    string
	WebhookSecret string
}

// Session is one page load. Create it with New, Start it once, Close it
// on unload.
type Session struct {
	ID      string
	PageURL string

	source   Source
	store    Store
	pipeline *extractor.Pipeline
	opts     Options

	// passMu serializes extraction passes and guards the fields below.
	passMu    sync.Mutex
	last      simhash.Snapshot
	hasLast   bool
	lastSaved string

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	startMu sync.Mutex
	once    sync.Once

	accessMu   sync.Mutex
	lastAccess time.Time
}

// New creates an idle session. The store is not touched until Start.
func New(id, pageURL string, src Source, store Store, pipeline *extractor.Pipeline, opts Options) *Session {
	if opts.Delays == nil {
		opts.Delays = DefaultDelays
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:         id,
		PageURL:    pageURL,
		source:     src,
		store:      store,
		pipeline:   pipeline,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		lastAccess: time.Now(),
	}
}

// Start launches the extraction schedule. Calling it twice is a no-op.
func (s *Session) Start() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.schedule()
}

// Live reports whether the session watches page mutations.
func (s *Session) Live() bool {
	_, ok := s.source.(MutationSource)
	return ok && s.opts.WatchMutations
}

// Done is closed once the schedule has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// schedule runs timer passes at the configured delays and a pass per
// mutation signal until the session is closed.
func (s *Session) schedule() {
	defer close(s.done)

	var mutations <-chan struct{}
	if ms, ok := s.source.(MutationSource); ok && s.opts.WatchMutations {
		mutations = ms.Mutations()
	}

	start := time.Now()
	next := 0
	var timer *time.Timer
	var timerC <-chan time.Time
	arm := func() {
		if next >= len(s.opts.Delays) {
			timerC = nil
			return
		}
		wait := time.Until(start.Add(s.opts.Delays[next]))
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		timerC = timer.C
	}
	arm()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timerC:
			next++
			s.pass(s.ctx, TriggerTimer)
			arm()
		case _, ok := <-mutations:
			if !ok {
				mutations = nil
				continue
			}
			s.pass(s.ctx, TriggerMutation)
		}
		if timerC == nil && mutations == nil {
			return
		}
	}
}

// Pass runs one extraction pass and writes the result to the store. It
// returns the stored result, nil when the page is unsupported or the
// snapshot failed.
func (s *Session) Pass(ctx context.Context) *models.ExtractionResult {
	return s.pass(ctx, TriggerManual)
}

func (s *Session) pass(ctx context.Context, trigger string) *models.ExtractionResult {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	doc, err := s.source.Snapshot(ctx)
	if err != nil {
		slog.Warn("session: snapshot failed", "session", s.ID, "trigger", trigger, "error", err)
		return nil
	}

	snap := simhash.Page(doc.HTML)
	if trigger == TriggerMutation && s.hasLast && snap.Same(s.last) {
		slog.Debug("session: page unchanged, pass skipped", "session", s.ID)
		return nil
	}
	if s.hasLast {
		slog.Debug("session: page drift", "session", s.ID, "trigger", trigger, "drift", snap.Drift(s.last))
	}
	s.last, s.hasLast = snap, true

	result := s.pipeline.Extract(doc)
	if result == nil {
		return nil
	}
	logPass(s.ID, trigger, result)

	data, err := json.Marshal(result)
	if err != nil {
		slog.Error("session: marshal result", "session", s.ID, "error", err)
		return result
	}
	value := string(data)
	if err := s.store.Save(ctx, value); err != nil {
		slog.Warn("session: store write failed", "session", s.ID, "error", err)
		return result
	}

	if value != s.lastSaved {
		s.lastSaved = value
		if s.opts.WebhookURL != "" {
			webhook.DeliverAsync(s.opts.WebhookURL, s.opts.WebhookSecret,
				webhook.NewEvent(webhook.EventSessionResult, s.ID, result))
		}
	}
	return result
}

// Update replaces the HTML of a session whose page is pushed by a client.
// Sessions that do not watch mutations run a pass straight away.
func (s *Session) Update(ctx context.Context, html string) error {
	src, ok := s.source.(*StaticSource)
	if !ok {
		return models.NewExtractError(models.ErrCodeInvalidInput, "session is backed by a live page", nil)
	}
	s.touch()
	src.Update(html)
	if !s.Live() {
		s.pass(ctx, TriggerManual)
	}
	return nil
}

// Query answers a consumer request. For getMakeAndModel it returns the
// cached result, or re-extracts when nothing usable is cached; it never
// fails. Any other action is rejected with UNSUPPORTED_ACTION.
func (s *Session) Query(ctx context.Context, req models.QueryRequest) (models.QueryResponse, error) {
	if req.Action != models.ActionGetMakeAndModel {
		return models.QueryResponse{}, models.NewExtractError(models.ErrCodeUnsupportedAction,
			"unsupported action: "+req.Action, nil)
	}
	s.touch()

	if cached, ok := s.cached(ctx); ok {
		return models.QueryResponse{Result: cached}, nil
	}
	return models.QueryResponse{Result: s.extractNow(ctx)}, nil
}

// cached returns the parsed store value. A missing, unreadable or
// corrupted value reports false.
func (s *Session) cached(ctx context.Context) (*models.ExtractionResult, bool) {
	raw, ok, err := s.store.Load(ctx)
	if err != nil {
		slog.Warn("session: store read failed", "session", s.ID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var r *models.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil || r == nil {
		slog.Debug("session: cached result unreadable, re-extracting", "session", s.ID, "error", err)
		return nil, false
	}
	return r, true
}

// extractNow runs one pass without touching the store.
func (s *Session) extractNow(ctx context.Context) *models.ExtractionResult {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	doc, err := s.source.Snapshot(ctx)
	if err != nil {
		slog.Warn("session: snapshot failed", "session", s.ID, "trigger", TriggerQuery, "error", err)
		return nil
	}
	result := s.pipeline.Extract(doc)
	if result != nil {
		logPass(s.ID, TriggerQuery, result)
	}
	return result
}

// Close stops the schedule, clears the store and releases the source.
// It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()

		s.startMu.Lock()
		started := s.started
		s.started = true
		s.startMu.Unlock()
		if started {
			<-s.done
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Clear(ctx); err != nil {
			slog.Debug("session: clear store", "session", s.ID, "error", err)
		}
		if c, ok := s.source.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Debug("session: close source", "session", s.ID, "error", err)
			}
		}
	})
}

// IdleSince returns the time of the last query, or creation.
func (s *Session) IdleSince() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.lastAccess
}

func (s *Session) touch() {
	s.accessMu.Lock()
	s.lastAccess = time.Now()
	s.accessMu.Unlock()
}

func logPass(id, trigger string, r *models.ExtractionResult) {
	slog.Debug("make and model extracted",
		"session", id,
		"trigger", trigger,
		"retailer", r.Retailer,
		"make", deref(r.Make),
		"model", deref(r.Model),
	)
	if r.IsExclusive {
		slog.Info("exclusive brand detected",
			"session", id,
			"retailer", r.Retailer,
			"message", deref(r.ExclusiveMessage),
		)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

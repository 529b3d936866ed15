package engine

import (
	"sync"
	"time"
)

// DomainMemory remembers which engine last produced a usable page for a
// retailer host. Bunnings pages need a browser far more often than
// Mitre 10 pages, and the race is skipped once that is known.
type DomainMemory struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]memoryEntry

	done chan struct{}
	once sync.Once
}

type memoryEntry struct {
	engine  string
	expires time.Time
}

// NewDomainMemory starts an hourly sweep of expired entries.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go dm.sweepLoop(time.Hour)
	return dm
}

// Get returns the remembered engine for host, or "".
func (dm *DomainMemory) Get(host string) string {
	if dm == nil {
		return ""
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	e, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if time.Now().After(e.expires) {
		delete(dm.entries, host)
		return ""
	}
	return e.engine
}

func (dm *DomainMemory) Set(host, engine string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	dm.entries[host] = memoryEntry{engine: engine, expires: time.Now().Add(dm.ttl)}
	dm.mu.Unlock()
}

func (dm *DomainMemory) Delete(host string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	delete(dm.entries, host)
	dm.mu.Unlock()
}

// Stop ends the sweep goroutine.
func (dm *DomainMemory) Stop() {
	dm.once.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case now := <-ticker.C:
			dm.sweep(now)
		}
	}
}

func (dm *DomainMemory) sweep(now time.Time) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for host, e := range dm.entries {
		if now.After(e.expires) {
			delete(dm.entries, host)
		}
	}
}

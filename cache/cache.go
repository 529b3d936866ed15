// Package cache keeps recent one-shot extraction responses so repeated
// lookups of the same product page skip the fetch.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/makemodel/models"
)

const (
	sweepEvery = 5 * time.Minute
	maxLife    = time.Hour
)

type entry struct {
	response  *models.ExtractResponse
	createdAt time.Time
}

// Cache is an in-memory response cache, safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int

	done chan struct{}
	once sync.Once
}

// New creates a Cache holding at most maxEntries responses. Entries older
// than an hour are swept in the background until Stop.
func New(maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Key identifies a response by page URL and scoping selector.
func Key(pageURL, cssSelector string) string {
	h := sha256.New()
	h.Write([]byte(pageURL))
	h.Write([]byte("|"))
	h.Write([]byte(cssSelector))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached response if it is younger than maxAgeMs
// milliseconds. maxAgeMs <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAgeMs int) (*models.ExtractResponse, bool) {
	if c == nil || maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}
	return copyResponse(e.response), true
}

// Set stores resp. At capacity a random entry is evicted.
func (c *Cache) Set(key string, resp *models.ExtractResponse) {
	if c == nil || resp == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		// Map iteration order is random.
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[key] = &entry{response: copyResponse(resp), createdAt: time.Now()}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop ends the background sweep.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

func (c *Cache) sweep(now time.Time) {
	cutoff := now.Add(-maxLife)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}

// copyResponse keeps callers from sharing the cached result.
func copyResponse(resp *models.ExtractResponse) *models.ExtractResponse {
	cp := *resp
	cp.Result = resp.Result.Clone()
	return &cp
}

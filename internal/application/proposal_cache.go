package application

import (
	"sync"
	"time"
)

// proposalCache holds pending booking proposals between the propose and commit
// phases. Entries are keyed by the opaque token handed to the client and
// expire after a short TTL so abandoned proposals never hold a slot.
type proposalCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]proposalCacheEntry
}

type proposalCacheEntry struct {
	params    BookAppointmentParams
	principal Principal
	expiresAt time.Time
}

func newProposalCache(ttl time.Duration, maxEntries int, now func() time.Time) *proposalCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &proposalCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]proposalCacheEntry),
	}
}

// Store records a validated proposal and returns its expiry.
func (c *proposalCache) Store(token string, params BookAppointmentParams, principal Principal) time.Time {
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[token] = proposalCacheEntry{params: params, principal: principal, expiresAt: expiry}
	return expiry
}

// Take removes and returns the proposal for the token. A missing or expired
// token reports false; commit is single-use either way.
func (c *proposalCache) Take(token string) (BookAppointmentParams, Principal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[token]
	if !ok {
		return BookAppointmentParams{}, Principal{}, false
	}
	delete(c.entries, token)
	if c.now().After(entry.expiresAt) {
		return BookAppointmentParams{}, Principal{}, false
	}
	return entry.params, entry.principal, true
}

func (c *proposalCache) cleanupLocked() {
	now := c.now()
	for token, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, token)
		}
	}
}

func (c *proposalCache) evictOneLocked() {
	for token := range c.entries {
		delete(c.entries, token)
		return
	}
}

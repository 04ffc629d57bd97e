package reconciler

import "sync"

// TurnCache remembers the last turn count synced per external session ID.
// It is a deduplication optimization only, never authoritative, and is lost
// on restart — the first scan after a restart re-checks everything.
type TurnCache struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewTurnCache creates an empty turn cache.
func NewTurnCache() *TurnCache {
	return &TurnCache{counts: make(map[string]int)}
}

// Get returns the last synced turn count for an external session ID.
func (c *TurnCache) Get(externalSessionID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, ok := c.counts[externalSessionID]
	return count, ok
}

// Set records the turn count that was just synced.
func (c *TurnCache) Set(externalSessionID string, turns int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[externalSessionID] = turns
}

// Len returns the number of tracked sessions.
func (c *TurnCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

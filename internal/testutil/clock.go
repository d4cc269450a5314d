// Package testutil provides deterministic test doubles shared by the
// engine and CLI tests.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe clock pinned to an explicit instant.
// It satisfies the partition package's Clock interface without importing
// it, so tests can bucket time deterministically.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock creates a clock pinned to t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set re-pins the clock, e.g. to cross a bucket boundary mid-test.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

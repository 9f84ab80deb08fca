// Package breaker counts consecutive oracle failures during a batch.
package breaker

import "sync"

// DefaultLimit is the number of consecutive failures that aborts a batch.
const DefaultLimit = 3

// Breaker trips after limit consecutive failures. A success resets the streak.
// It is safe for concurrent use.
type Breaker struct {
	mu          sync.Mutex
	limit       int
	consecutive int
}

// New returns a Breaker; limit <= 0 uses DefaultLimit.
func New(limit int) *Breaker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Breaker{limit: limit}
}

// Failure records a failure and reports whether the breaker is now open.
func (b *Breaker) Failure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive++
	return b.consecutive >= b.limit
}

// Success resets the failure streak.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive = 0
}

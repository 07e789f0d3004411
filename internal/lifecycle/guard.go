// Package lifecycle provides the single cancellation token for the session
// synchronizer. Every asynchronous continuation, timer callback, and event
// listener checks the guard before mutating shared state, so nothing fires
// against a torn-down view.
package lifecycle

import (
	"sync"
	"time"
)

// Guard tracks whether the owning view is still mounted. The transition to
// inactive is one-way and permanent; a guard is never reset.
type Guard struct {
	mu   sync.RWMutex
	torn bool
	done chan struct{}
	once sync.Once
}

// NewGuard returns an active guard.
func NewGuard() *Guard {
	return &Guard{
		done: make(chan struct{}),
	}
}

// Active reports whether teardown has not yet happened.
func (g *Guard) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.torn
}

// Teardown marks the guard inactive permanently and closes Done. Idempotent.
func (g *Guard) Teardown() {
	g.mu.Lock()
	g.torn = true
	g.mu.Unlock()

	g.once.Do(func() {
		close(g.done)
	})
}

// Done returns a channel closed on teardown, for select-based loops.
func (g *Guard) Done() <-chan struct{} {
	return g.done
}

// Do runs fn only while the guard is active and reports whether it ran.
// The check and the call hold the guard read lock together so a concurrent
// Teardown cannot interleave between them.
func (g *Guard) Do(fn func()) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.torn {
		return false
	}
	fn()
	return true
}

// AfterFunc schedules fn after d, gated by the guard: if teardown happens
// before the timer fires, fn is dropped. The returned timer may be stopped
// early by the caller.
func (g *Guard) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		g.Do(fn)
	})
}

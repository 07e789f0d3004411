// Package sessiontimer derives elapsed connected-duration from the
// connection state. Duration is measured per connection: a reconnect
// restarts the count from zero.
package sessiontimer

import (
	"context"
	"sync"
	"time"

	"classsync/internal/lifecycle"
)

// Timer tracks how long the current connection has been up.
type Timer struct {
	guard  *lifecycle.Guard
	onTick func(seconds int)

	mu        sync.RWMutex
	connected bool
	startedAt time.Time
}

// NewTimer creates a timer. onTick may be nil; when set it receives the
// elapsed seconds once per second while connected.
func NewTimer(guard *lifecycle.Guard, onTick func(seconds int)) *Timer {
	return &Timer{
		guard:  guard,
		onTick: onTick,
	}
}

// SetConnected feeds the connection boolean. A false→true transition records
// the start instant; any transition to false resets to zero.
func (t *Timer) SetConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if connected && !t.connected {
		t.startedAt = time.Now()
	}
	if !connected {
		t.startedAt = time.Time{}
	}
	t.connected = connected
}

// Elapsed returns whole seconds since the connection came up, or 0 while
// disconnected.
func (t *Timer) Elapsed() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.connected || t.startedAt.IsZero() {
		return 0
	}
	return int(time.Since(t.startedAt) / time.Second)
}

// Run emits one tick per second while connected, until the context is
// cancelled or the guard is torn down. Intended to run on its own goroutine.
func (t *Timer) Run(ctx context.Context) {
	if t.onTick == nil {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.mu.RLock()
			connected := t.connected
			t.mu.RUnlock()
			if !connected {
				continue
			}
			t.guard.Do(func() {
				t.onTick(t.Elapsed())
			})
		case <-t.guard.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

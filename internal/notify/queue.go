// Package notify holds ephemeral, auto-expiring user-facing events.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"classsync/internal/lifecycle"
	"classsync/pkg/types"
)

// DefaultMaxVisible bounds how many notifications are shown concurrently.
const DefaultMaxVisible = 5

// Queue keeps notifications in arrival order. At most maxVisible are shown;
// excess entries stay queued (hidden, not deleted) until dismissed, with the
// most recent kept visible. Auto-dismiss timers are gated by the lifecycle
// guard so no dismissal fires after teardown.
type Queue struct {
	guard      *lifecycle.Guard
	maxVisible int
	onChange   func()

	mu      sync.Mutex
	entries []types.Notification
	timers  map[string]*time.Timer
}

// NewQueue creates a queue. onChange may be nil; when set it fires after
// every visible-set change.
func NewQueue(guard *lifecycle.Guard, maxVisible int, onChange func()) *Queue {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	return &Queue{
		guard:      guard,
		maxVisible: maxVisible,
		onChange:   onChange,
		timers:     make(map[string]*time.Timer),
	}
}

// Push appends a notification and returns its ID. Entries with duration > 0
// self-dismiss exactly once after that delay.
func (q *Queue) Push(message string, severity types.Severity, duration time.Duration) string {
	n := types.Notification{
		ID:       uuid.New().String(),
		Message:  message,
		Severity: severity,
		Duration: duration,
	}

	q.mu.Lock()
	q.entries = append(q.entries, n)
	if duration > 0 {
		id := n.ID
		q.timers[id] = q.guard.AfterFunc(duration, func() {
			q.Dismiss(id)
		})
	}
	q.mu.Unlock()

	q.notifyChange()
	return n.ID
}

// Dismiss removes the entry with the given ID and stops its timer. Unknown
// IDs are ignored.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	removed := false
	for i, n := range q.entries {
		if n.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			removed = true
			break
		}
	}
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	if removed {
		q.notifyChange()
	}
}

// DismissAll clears every entry in one bulk operation.
func (q *Queue) DismissAll() {
	q.mu.Lock()
	cleared := len(q.entries) > 0
	q.entries = nil
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	if cleared {
		q.notifyChange()
	}
}

// Visible returns the most recent maxVisible entries in arrival order.
// Older entries beyond the window remain queued until dismissed.
func (q *Queue) Visible() []types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	start := 0
	if len(q.entries) > q.maxVisible {
		start = len(q.entries) - q.maxVisible
	}
	out := make([]types.Notification, len(q.entries)-start)
	copy(out, q.entries[start:])
	return out
}

// All returns every pending entry, visible or hidden, in arrival order.
func (q *Queue) All() []types.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]types.Notification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) notifyChange() {
	if q.onChange == nil {
		return
	}
	q.guard.Do(q.onChange)
}

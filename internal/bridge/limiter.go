package bridge

import (
	"sync"
	"time"
)

// SendLimiter applies a sliding one-minute window to outbound sends. The
// remote service enforces the same budget server-side; limiting locally
// keeps a chatty client from being disconnected for abuse.
type SendLimiter struct {
	mu          sync.Mutex
	perMinute   int
	count       int
	windowStart time.Time
}

// NewSendLimiter creates a limiter allowing perMinute sends per minute.
// A non-positive budget disables limiting.
func NewSendLimiter(perMinute int) *SendLimiter {
	return &SendLimiter{perMinute: perMinute}
}

// Allow reports whether one more send fits in the current window.
func (l *SendLimiter) Allow() bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= time.Minute {
		l.windowStart = now
		l.count = 1
		return true
	}

	if l.count >= l.perMinute {
		return false
	}
	l.count++
	return true
}

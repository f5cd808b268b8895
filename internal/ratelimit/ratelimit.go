// Package ratelimit is a server-side fixed-window limiter keyed by requester
// identity. It is consulted before a reservation is attempted so a single
// client cannot hammer the reserve transaction.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	attempts int
	resetAt  time.Time
}

// Limiter allows at most max attempts per key within each window.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	byKey  map[string]*window
	now    func() time.Time
}

func New(max int, windowDur time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: windowDur,
		byKey:  make(map[string]*window),
		now:    time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. When denied it also returns how long until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.byKey[key]
	if !ok || now.After(w.resetAt) {
		l.byKey[key] = &window{attempts: 1, resetAt: now.Add(l.window)}
		return true, 0
	}
	if w.attempts >= l.max {
		return false, w.resetAt.Sub(now)
	}
	w.attempts++
	return true, 0
}

// Sweep drops expired windows; callers run it periodically to bound memory.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, w := range l.byKey {
		if now.After(w.resetAt) {
			delete(l.byKey, k)
		}
	}
}

// Package ratelimit provides a keyed fixed-window request counter for
// write-heavy endpoints. Same discipline as the capacity ledger: the outer
// map is only read-locked on the hot path, and each actor's window is
// updated under its own lock, so unrelated actors never contend.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	mu    sync.Mutex
	start time.Time
	count int
}

type Limiter struct {
	limit  int
	period time.Duration

	mu      sync.RWMutex
	windows map[string]*window

	now func() time.Time // stubbed in tests
}

func NewLimiter(limit int, period time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow reports whether the actor may perform another request in the
// current window. The window resets lazily on the first call after it
// expires; there is no background sweep.
func (l *Limiter) Allow(actorID string) bool {
	w := l.window(actorID)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	if now.Sub(w.start) >= l.period {
		w.start = now
		w.count = 0
	}

	if w.count >= l.limit {
		return false
	}
	w.count++

	return true
}

func (l *Limiter) window(actorID string) *window {
	l.mu.RLock()
	w, ok := l.windows[actorID]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[actorID]; ok {
		return w
	}
	w = &window{start: l.now().Add(-l.period)}
	l.windows[actorID] = w

	return w
}

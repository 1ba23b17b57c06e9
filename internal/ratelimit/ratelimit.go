package ratelimit

import (
	"sync"
	"time"
)

// Limiter caps repeated submissions per identity. Implementations may be
// backed by process memory or a shared store; the pipeline only depends on
// this interface.
type Limiter interface {
	Allow(key string) bool
}

// Window is an identity-keyed fixed-window limiter held in process memory.
// It is a best-effort throttle with no cross-process coordination — the
// durable request-count check against the store is the real backstop.
type Window struct {
	mu      sync.Mutex
	max     int
	span    time.Duration
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	count int
	reset time.Time
}

func NewWindow(max int, span time.Duration) *Window {
	return &Window{
		max:     max,
		span:    span,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow reports whether key has remaining quota in the current window,
// consuming one unit when it does.
func (w *Window) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	e, ok := w.entries[key]
	if !ok || now.After(e.reset) {
		w.entries[key] = &entry{count: 1, reset: now.Add(w.span)}
		return true
	}
	if e.count >= w.max {
		return false
	}
	e.count++
	return true
}

// Unlimited is a Limiter that always allows; used when throttling is
// disabled by configuration.
type Unlimited struct{}

func (Unlimited) Allow(string) bool { return true }

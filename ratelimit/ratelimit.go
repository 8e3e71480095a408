// Package ratelimit bounds the outbound request rate towards the wrapped
// API under a sliding time window. It is a shared, cross-tenant resource
// with its own lock, deliberately decoupled from any session lock.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Limiter admits at most maxRequests calls per sliding window. Callers block
// in Acquire until a slot is free; an entry is appended only once capacity
// has been confirmed.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	requests    []time.Time
}

// New creates a limiter admitting maxRequests per window.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
	}
}

// Acquire blocks until a request slot is available or the context is
// cancelled. On success the caller's timestamp has been recorded.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// tryAcquire records the caller if capacity allows, otherwise returns how
// long to wait until the oldest recorded timestamp exits the window.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := NowTimeFunc()
	l.prune(now)

	if len(l.requests) < l.maxRequests {
		l.requests = append(l.requests, now)
		return 0, true
	}

	wait := l.window - now.Sub(l.requests[0]) + 10*time.Millisecond
	if wait < 0 {
		wait = 0
	}
	return wait, false
}

// Remaining returns how many request slots are currently free.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(NowTimeFunc())
	remaining := l.maxRequests - len(l.requests)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// prune drops timestamps older than the window. Callers must hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.requests) && !l.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.requests = append(l.requests[:0], l.requests[i:]...)
	}
}

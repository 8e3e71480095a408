package auth

import (
	"time"

	"github.com/taskbridge/go-asana-broker/sessions"
)

// Breaker caps interactive re-authentication attempts per session within a
// rolling window, so a broken refresh token cannot generate an endless
// stream of authorization prompts.
type Breaker struct {
	MaxAttempts int
	Window      time.Duration
}

// Allow reports whether another re-authentication attempt may proceed and
// records the attempt when it does. The window is anchored at the first
// attempt it contains; once the window has elapsed the counter resets and
// the attempt is allowed.
func (b Breaker) Allow(rec *sessions.ReauthRecord, now time.Time) bool {
	if rec.FirstAttempt.IsZero() || now.Sub(rec.FirstAttempt) > b.Window {
		rec.FirstAttempt = now
		rec.Count = 1
		return true
	}
	if rec.Count < b.MaxAttempts {
		rec.Count++
		return true
	}
	return false
}

// Remaining returns how long until the current window elapses and attempts
// are permitted again.
func (b Breaker) Remaining(rec *sessions.ReauthRecord, now time.Time) time.Duration {
	if rec.FirstAttempt.IsZero() {
		return 0
	}
	remaining := b.Window - now.Sub(rec.FirstAttempt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

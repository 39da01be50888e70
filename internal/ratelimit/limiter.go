// Package ratelimit tracks a provider rate-limit window that is shared by
// every component making remote calls.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Limiter records the moment a rate-limit window ends. While now is before
// that moment every remote call must be refused locally.
type Limiter struct {
	mu      sync.Mutex
	resetAt time.Time
	now     func() time.Time
}

// New creates a Limiter with no active window.
func New() *Limiter {
	return &Limiter{now: time.Now}
}

// NewWithClock creates a Limiter that reads time from now.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{now: now}
}

// Check reports whether a window is active and when it ends.
func (l *Limiter) Check() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resetAt.IsZero() {
		return time.Time{}, false
	}
	if !l.now().Before(l.resetAt) {
		l.resetAt = time.Time{}
		return time.Time{}, false
	}
	return l.resetAt, true
}

// Err returns an *Error while a window is active, nil otherwise.
func (l *Limiter) Err() error {
	resetAt, limited := l.Check()
	if !limited {
		return nil
	}
	return &Error{ResetAt: resetAt, now: l.now}
}

// Record starts (or extends) a window ending at resetAt. An earlier
// resetAt never shortens an active window.
func (l *Limiter) Record(resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if resetAt.After(l.resetAt) {
		l.resetAt = resetAt
	}
}

// Clear ends any active window.
func (l *Limiter) Clear() {
	l.mu.Lock()
	l.resetAt = time.Time{}
	l.mu.Unlock()
}

// Error is returned for calls refused because of an active window.
type Error struct {
	ResetAt time.Time
	now     func() time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetAt.Format(time.RFC3339))
}

// RetryAfter returns the whole seconds left in the window, at least 1.
func (e *Error) RetryAfter() int {
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	secs := int(math.Ceil(e.ResetAt.Sub(now()).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// NewError builds an *Error for a window ending at resetAt.
func NewError(resetAt time.Time) *Error {
	return &Error{ResetAt: resetAt}
}

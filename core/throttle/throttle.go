// Package throttle rejects repeated activations of the same key within a window.
package throttle

import (
	"errors"
	"sync"
	"time"
)

// ErrThrottled is returned by Check while a key is cooling down.
var ErrThrottled error = &throttledError{}

type throttledError struct{}

func (*throttledError) Error() string { return "throttle: try again later" }
func (*throttledError) Code() string  { return "throttled" }

// IsThrottled reports whether err came from a throttled key.
func IsThrottled(err error) bool { return errors.Is(err, ErrThrottled) }

const sweepInterval = time.Minute

// Registry remembers when each key may fire again. It is safe for concurrent
// use and holds nothing across restarts.
type Registry struct {
	mu        sync.Mutex
	until     map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{until: make(map[string]time.Time), now: time.Now}
}

// Allow reports whether key may fire now and, if so, blocks it for window.
// A non-positive window always allows.
func (r *Registry) Allow(key string, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)
	if until, ok := r.until[key]; ok && now.Before(until) {
		return false
	}
	r.until[key] = now.Add(window)
	return true
}

// Check is Allow returning ErrThrottled on rejection.
func (r *Registry) Check(key string, window time.Duration) error {
	if !r.Allow(key, window) {
		return ErrThrottled
	}
	return nil
}

// Len returns the number of keys currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.until)
}

func (r *Registry) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now
	for k, until := range r.until {
		if !now.Before(until) {
			delete(r.until, k)
		}
	}
}

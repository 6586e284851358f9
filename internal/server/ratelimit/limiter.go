// Package ratelimit provides a fixed-window request limiter used to slow
// down online guessing of one-time codes. The backend runs as a single
// process, so an in-memory limiter is sufficient.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter allows at most max events per key within each window.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string]*bucket
}

func New(window time.Duration, max int) *Limiter {
	return &Limiter{
		window:  window,
		max:     max,
		buckets: make(map[string]*bucket),
	}
}

// Allow records an event for key and reports whether it fits the window.
// A zero or negative max disables limiting.
func (l *Limiter) Allow(key string) bool {
	if l.max <= 0 {
		return true
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		l.pruneLocked(now)
		return true
	}

	b.count++
	return b.count <= l.max
}

// pruneLocked drops stale buckets so the map cannot grow without bound.
// Called with the lock held, only on the bucket-reset path.
func (l *Limiter) pruneLocked(now time.Time) {
	if len(l.buckets) < 4096 {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// Package ratelimit provides a moving-window call counter used to cap the
// outbound calls triggered by chat events.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow is the length of the moving window.
const DefaultWindow = time.Minute

// Window admits at most Limit calls in any trailing window.
type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   []time.Time
	now    func() time.Time
}

// NewPerMinute returns a limiter admitting limit calls per rolling minute.
// A non-positive limit disables limiting.
func NewPerMinute(limit int) *Window {
	return New(limit, DefaultWindow)
}

// New returns a limiter admitting limit calls per window.
func New(limit int, window time.Duration) *Window {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Window{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records a call and reports whether it fits in the window.
// Rejected calls are not recorded.
func (w *Window) Allow() bool {
	if w.limit <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	if len(w.hits) >= w.limit {
		return false
	}

	w.hits = append(w.hits, now)

	return true
}

// Remaining returns how many calls would currently be admitted.
func (w *Window) Remaining() int {
	if w.limit <= 0 {
		return -1
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(w.now())

	return w.limit - len(w.hits)
}

// RetryAfter returns how long until the next call would be admitted.
func (w *Window) RetryAfter() time.Duration {
	if w.limit <= 0 {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	if len(w.hits) < w.limit {
		return 0
	}

	return w.hits[0].Add(w.window).Sub(now)
}

// Limit returns the configured ceiling.
func (w *Window) Limit() int {
	return w.limit
}

// evict drops hits that left the window. Caller holds mu.
func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.window)

	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}

	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}

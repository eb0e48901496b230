package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

func newTestWindow(limit int) (*Window, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)}
	w := NewPerMinute(limit)
	w.now = clock.Now

	return w, clock
}

func TestWindow_RejectsCallOverLimit(t *testing.T) {
	for _, limit := range []int{1, 3, 20} {
		w, clock := newTestWindow(limit)

		for i := 0; i < limit; i++ {
			require.True(t, w.Allow(), "call %d of %d", i+1, limit)
			clock.Advance(time.Second)
		}

		require.False(t, w.Allow(), "call %d should be rejected", limit+1)
	}
}

func TestWindow_RollsOver(t *testing.T) {
	w, clock := newTestWindow(2)

	require.True(t, w.Allow())
	clock.Advance(30 * time.Second)
	require.True(t, w.Allow())
	require.False(t, w.Allow())

	require.Equal(t, 30*time.Second, w.RetryAfter())

	clock.Advance(30*time.Second + time.Millisecond)
	require.Equal(t, 1, w.Remaining())
	require.True(t, w.Allow())
	require.False(t, w.Allow())
}

func TestWindow_RejectedCallsDoNotExtendWindow(t *testing.T) {
	w, clock := newTestWindow(1)

	require.True(t, w.Allow())

	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		require.False(t, w.Allow())
	}

	clock.Advance(11 * time.Second)
	require.True(t, w.Allow())
}

func TestWindow_Disabled(t *testing.T) {
	w, _ := newTestWindow(0)

	for i := 0; i < 100; i++ {
		require.True(t, w.Allow())
	}

	require.Equal(t, -1, w.Remaining())
	require.Zero(t, w.RetryAfter())
}

func TestWindow_Concurrent(t *testing.T) {
	const limit = 50

	w, _ := newTestWindow(limit)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
	)

	for i := 0; i < 200; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if w.Allow() {
				allowed.Add(1)
			}
		}()
	}

	wg.Wait()

	require.Equal(t, int64(limit), allowed.Load())
}

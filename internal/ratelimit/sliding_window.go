package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter caps requests over a rolling window with the
// two-bucket approximation: the previous window's count is weighted by how
// much of it still overlaps the rolling window.
//
//	effective = current + previous * (window - elapsed) / window
//
// A nil counter is unlimited.
type SlidingWindowCounter struct {
	mu          sync.Mutex
	curr        int
	prev        int
	windowStart time.Time
	window      time.Duration
	max         int
	now         func() time.Time
}

// NewSlidingWindowCounter allows limit requests per window. It returns nil
// (unlimited) when limit <= 0.
func NewSlidingWindowCounter(limit int, window time.Duration) *SlidingWindowCounter {
	return newSlidingWindowWithClock(limit, window, time.Now)
}

func newSlidingWindowWithClock(limit int, window time.Duration, now func() time.Time) *SlidingWindowCounter {
	if limit <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		windowStart: now(),
		window:      window,
		max:         limit,
		now:         now,
	}
}

// Allow counts a request if the window has room.
func (c *SlidingWindowCounter) Allow() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.effective() >= float64(c.max) {
		return false
	}
	c.curr++
	return true
}

// Check reports whether a request would be counted.
func (c *SlidingWindowCounter) Check() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.effective() < float64(c.max)
}

// Consume counts a request after a successful Check.
func (c *SlidingWindowCounter) Consume() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.effective() < float64(c.max) {
		c.curr++
	}
}

// Remaining returns the approximate number of requests left, or -1 when
// unlimited.
func (c *SlidingWindowCounter) Remaining() int {
	if c == nil {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	left := float64(c.max) - c.effective()
	if left < 0 {
		return 0
	}
	return int(left)
}

// effective rotates expired windows and returns the weighted count.
// Must be called with mu held.
func (c *SlidingWindowCounter) effective() float64 {
	elapsed := c.now().Sub(c.windowStart)
	if elapsed >= c.window {
		passed := int(elapsed / c.window)
		if passed == 1 {
			c.prev = c.curr
		} else {
			c.prev = 0
		}
		c.curr = 0
		c.windowStart = c.windowStart.Add(time.Duration(passed) * c.window)
		elapsed = c.now().Sub(c.windowStart)
	}

	overlap := float64(c.window-elapsed) / float64(c.window)
	overlap = min(max(overlap, 0), 1)
	return float64(c.curr) + float64(c.prev)*overlap
}

package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := newWithClock(3, 1, clock.Now)

	for i := range 3 {
		assert.True(t, l.Allow(), "request %d within burst", i)
	}
	assert.False(t, l.Allow())
	assert.Equal(t, time.Second, l.RetryAfter())

	clock.Advance(time.Second)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	clock.Advance(time.Hour)
	assert.True(t, l.IsFull())
}

func TestLimiter_CheckDoesNotConsume(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := newWithClock(1, 0.1, clock.Now)

	assert.True(t, l.Check())
	assert.True(t, l.Check())
	l.Consume()
	assert.False(t, l.Check())
}

func TestSlidingWindowCounter(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	c := newSlidingWindowWithClock(4, time.Hour, clock.Now)

	for range 4 {
		require.True(t, c.Allow())
	}
	assert.False(t, c.Allow())
	assert.Equal(t, 0, c.Remaining())

	// Half way into the next window half of the previous count still applies.
	clock.Advance(90 * time.Minute)
	assert.Equal(t, 2, c.Remaining())
	assert.True(t, c.Check())
	c.Consume()
	assert.Equal(t, 1, c.Remaining())

	// Two idle windows forget everything.
	clock.Advance(3 * time.Hour)
	assert.Equal(t, 4, c.Remaining())
}

func TestSlidingWindowCounter_Disabled(t *testing.T) {
	t.Parallel()
	c := NewSlidingWindowCounter(0, time.Hour)
	assert.Nil(t, c)
	assert.True(t, c.Allow())
	assert.True(t, c.Check())
	c.Consume()
	assert.Equal(t, -1, c.Remaining())
}

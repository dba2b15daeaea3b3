package genai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		attempt     int
		initial     time.Duration
		maxDelay    time.Duration
		maxExpected time.Duration
	}{
		{name: "first attempt (no delay)", attempt: 0, initial: time.Second, maxDelay: 10 * time.Second, maxExpected: 0},
		{name: "second attempt", attempt: 1, initial: time.Second, maxDelay: 10 * time.Second, maxExpected: time.Second},
		{name: "third attempt", attempt: 2, initial: time.Second, maxDelay: 10 * time.Second, maxExpected: 2 * time.Second},
		{name: "capped at max", attempt: 10, initial: time.Second, maxDelay: 5 * time.Second, maxExpected: 5 * time.Second},
		{name: "overflow is capped", attempt: 200, initial: time.Second, maxDelay: 5 * time.Second, maxExpected: 5 * time.Second},
		{name: "negative attempt", attempt: -1, initial: time.Second, maxDelay: 10 * time.Second, maxExpected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 20 {
				got := CalculateBackoff(tt.attempt, tt.initial, tt.maxDelay)
				assert.GreaterOrEqual(t, got, time.Duration(0))
				assert.LessOrEqual(t, got, tt.maxExpected)
			}
		})
	}
}

func TestNextDelay_HonorsRetryAfter(t *testing.T) {
	t.Parallel()
	cfg := RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 3 * time.Second}

	err := &LLMError{Err: assert.AnError, StatusCode: 429, RetryAfter: 2 * time.Second}
	assert.Equal(t, 2*time.Second, nextDelay(1, cfg, err))

	huge := &LLMError{Err: assert.AnError, StatusCode: 429, RetryAfter: time.Minute}
	assert.Equal(t, 3*time.Second, nextDelay(1, cfg, huge))
}

func TestSleep(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestHasSufficientBudget(t *testing.T) {
	t.Parallel()
	assert.True(t, HasSufficientBudget(context.Background(), time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.True(t, HasSufficientBudget(ctx, time.Millisecond))
	assert.False(t, HasSufficientBudget(ctx, time.Second))
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := NewValidationError("faculty", "must not be blank")

	assert.Equal(t, "validation failed on faculty: must not be blank", err.Error())
	assert.ErrorIs(t, fmt.Errorf("search: %w", err), ErrInvalidInput)
}

func TestUpstreamError(t *testing.T) {
	t.Parallel()
	cause := context.DeadlineExceeded
	err := NewUpstreamError("gemini", "gemini-3-flash-preview", cause)

	assert.Contains(t, err.Error(), "provider=gemini")
	assert.Contains(t, err.Error(), "model=gemini-3-flash-preview")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	noModel := NewUpstreamError("groq", "", errors.New("boom"))
	assert.NotContains(t, noModel.Error(), "model=")
}

func TestWrapper(t *testing.T) {
	t.Parallel()
	w := NewWrapper("advisor", "details")

	assert.Nil(t, w.Wrap(nil, "ignored"))

	err := w.Wrap(ErrUpstream, "เกิดข้อผิดพลาด")
	var wrapped *WrappedError
	assert.ErrorAs(t, err, &wrapped)
	assert.Equal(t, "advisor", wrapped.Module)
	assert.Equal(t, "details", wrapped.Operation)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "[advisor:details] เกิดข้อผิดพลาด: upstream model failure", err.Error())
}

func TestGetUserMessage(t *testing.T) {
	t.Parallel()
	assert.Empty(t, GetUserMessage(nil, "fallback"))
	assert.Equal(t, "fallback", GetUserMessage(errors.New("raw"), "fallback"))

	inner := NewWrapper("advisor", "search").Wrap(ErrUpstream, "inner message")
	outer := fmt.Errorf("handler: %w", inner)
	assert.Equal(t, "inner message", GetUserMessage(outer, "fallback"))
}

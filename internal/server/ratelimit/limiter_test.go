package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowsUpToMax(t *testing.T) {
	l := New(time.Minute, 3)

	assert.True(t, l.Allow("a@x.com"))
	assert.True(t, l.Allow("a@x.com"))
	assert.True(t, l.Allow("a@x.com"))
	assert.False(t, l.Allow("a@x.com"))

	// other keys are unaffected
	assert.True(t, l.Allow("b@x.com"))
}

func TestLimiter_WindowResets(t *testing.T) {
	l := New(20*time.Millisecond, 1)

	assert.True(t, l.Allow("a@x.com"))
	assert.False(t, l.Allow("a@x.com"))

	time.Sleep(30 * time.Millisecond)

	assert.True(t, l.Allow("a@x.com"))
}

func TestLimiter_DisabledWhenMaxZero(t *testing.T) {
	l := New(time.Minute, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a@x.com"))
	}
}

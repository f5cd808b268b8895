package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := New(3, 5*time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("user-1")
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, wait := l.Allow("user-1")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	// Other keys are independent.
	ok, _ = l.Allow("user-2")
	assert.True(t, ok)
}

func TestWindowResets(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("u")
	assert.True(t, ok)
	ok, _ = l.Allow("u")
	assert.False(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow("u")
	assert.True(t, ok)
}

func TestSweep(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	now = now.Add(2 * time.Minute)
	l.Sweep()
	assert.Empty(t, l.byKey)
}

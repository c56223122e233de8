package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter() (*Limiter, *clock) {
	c := &clock{t: time.Unix(1700000000, 0)}
	l := New()
	l.now = c.now
	return l, c
}

func TestAllowBurstThenRefill(t *testing.T) {
	l, c := newTestLimiter()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1", 3, 1), "burst %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1", 3, 1))

	c.advance(500 * time.Millisecond)
	assert.False(t, l.Allow("10.0.0.1", 3, 1))

	c.advance(500 * time.Millisecond)
	assert.True(t, l.Allow("10.0.0.1", 3, 1))
}

func TestAllowIsPerKey(t *testing.T) {
	l, _ := newTestLimiter()

	assert.True(t, l.Allow("a", 1, 0.1))
	assert.False(t, l.Allow("a", 1, 0.1))
	assert.True(t, l.Allow("b", 1, 0.1))
}

func TestRefillCapsAtCapacity(t *testing.T) {
	l, c := newTestLimiter()

	assert.True(t, l.Allow("a", 2, 1))
	c.advance(time.Hour)
	assert.True(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))
}

func TestPrune(t *testing.T) {
	l, c := newTestLimiter()

	l.Allow("old", 1, 1)
	c.advance(10 * time.Minute)
	l.Allow("fresh", 1, 1)

	assert.Equal(t, 1, l.Prune(5*time.Minute))
	assert.Equal(t, 1, l.Len())
}

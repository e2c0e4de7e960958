package ratelimiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, cfg Config, opts ...Option) (*Limiter, *clock) {
	t.Helper()
	l, err := New(cfg, opts...)
	require.NoError(t, err)
	c := &clock{t: time.Unix(1000, 0)}
	l.now = c.now
	return l, c
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero capacity", Config{Capacity: 0, RefillRate: 1, RefillInterval: time.Second}},
		{"zero rate", Config{Capacity: 1, RefillRate: 0, RefillInterval: time.Second}},
		{"zero interval", Config{Capacity: 1, RefillRate: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestAllow(t *testing.T) {
	t.Parallel()

	cfg := Config{Capacity: 3, RefillRate: 2, RefillInterval: time.Second}

	t.Run("burst then deny", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLimiter(t, cfg)

		for range 3 {
			assert.True(t, l.Allow("a"))
		}
		assert.False(t, l.Allow("a"))
		assert.True(t, l.Allow("b"), "keys have separate buckets")

		s := l.Stats()
		assert.Equal(t, int64(4), s.Allowed)
		assert.Equal(t, int64(1), s.Denied)
		assert.Equal(t, 2, s.Buckets)
	})

	t.Run("refill", func(t *testing.T) {
		t.Parallel()
		l, c := newTestLimiter(t, cfg)

		for range 3 {
			l.Allow("a")
		}
		c.advance(999 * time.Millisecond)
		assert.False(t, l.Allow("a"), "partial interval adds nothing")

		c.advance(time.Millisecond)
		assert.True(t, l.Allow("a"))
		assert.True(t, l.Allow("a"))
		assert.False(t, l.Allow("a"))
	})

	t.Run("refill capped at capacity", func(t *testing.T) {
		t.Parallel()
		l, c := newTestLimiter(t, cfg)

		l.Allow("a")
		c.advance(time.Hour)
		for range 3 {
			assert.True(t, l.Allow("a"))
		}
		assert.False(t, l.Allow("a"))
	})

	t.Run("forget", func(t *testing.T) {
		t.Parallel()
		l, _ := newTestLimiter(t, Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})

		assert.True(t, l.Allow("a"))
		assert.False(t, l.Allow("a"))
		l.Forget("a")
		assert.True(t, l.Allow("a"))
	})
}

func TestRemoveStale(t *testing.T) {
	t.Parallel()

	l, c := newTestLimiter(t, Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second}, WithIdleTTL(time.Minute))

	l.Allow("old")
	c.advance(2 * time.Minute)
	l.Allow("fresh")

	assert.Equal(t, 1, l.removeStale())
	assert.Equal(t, 1, l.Stats().Buckets)
}

func TestRun(t *testing.T) {
	t.Parallel()

	l, c := newTestLimiter(t, Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second},
		WithIdleTTL(time.Minute), WithCleanupInterval(5*time.Millisecond))

	l.Allow("a")
	c.advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx)() }()

	require.Eventually(t, func() bool { return l.Stats().Buckets == 0 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

package ratelimiter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config describes one token bucket. Every key gets its own bucket.
type Config struct {
	Capacity       int           `env:"HQ_RATE_CAPACITY" envDefault:"20"`
	RefillRate     int           `env:"HQ_RATE_REFILL" envDefault:"10"`
	RefillInterval time.Duration `env:"HQ_RATE_INTERVAL" envDefault:"1s"`
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %s", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time // used by cleanup to identify stale buckets
}

// Stats reports limiter activity.
type Stats struct {
	Allowed int64
	Denied  int64
	Buckets int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithCleanupInterval sets how often Run removes idle buckets.
func WithCleanupInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		if interval > 0 {
			l.cleanupInterval = interval
		}
	}
}

// WithIdleTTL sets how long an unused bucket survives cleanup.
func WithIdleTTL(ttl time.Duration) Option {
	return func(l *Limiter) {
		if ttl > 0 {
			l.idleTTL = ttl
		}
	}
}

// WithLogger sets the logger for internal operations.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Limiter is an in-memory keyed token bucket limiter. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     Config
	now     func() time.Time

	cleanupInterval time.Duration
	idleTTL         time.Duration
	logger          *slog.Logger

	allowed atomic.Int64
	denied  atomic.Int64
}

// New creates a Limiter. Call Run to remove idle buckets periodically.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		buckets:         make(map[string]*bucket),
		cfg:             cfg,
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		idleTTL:         time.Hour,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow consumes one token from key's bucket and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.cfg.Capacity, lastRefill: now}
		l.buckets[key] = b
	}
	b.lastAccess = now

	// whole intervals only; capped so huge gaps cannot overflow
	maxIntervals := int64(l.cfg.Capacity/l.cfg.RefillRate + 1)
	intervals := int(min(int64(now.Sub(b.lastRefill)/l.cfg.RefillInterval), maxIntervals))
	if intervals > 0 {
		b.tokens = min(b.tokens+intervals*l.cfg.RefillRate, l.cfg.Capacity)
		b.lastRefill = now
	}

	if b.tokens <= 0 {
		l.denied.Add(1)
		return false
	}
	b.tokens--
	l.allowed.Add(1)
	return true
}

// Forget drops key's bucket.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Stats returns current counters.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	n := len(l.buckets)
	l.mu.Unlock()

	return Stats{
		Allowed: l.allowed.Load(),
		Denied:  l.denied.Load(),
		Buckets: n,
	}
}

// Run provides errgroup compatibility. The returned function removes idle
// buckets every cleanup interval until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) func() error {
	return func() error {
		ticker := time.NewTicker(l.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := l.removeStale(); n > 0 {
					l.logger.DebugContext(ctx, "rate limiter buckets removed", slog.Int("count", n))
				}
			}
		}
	}
}

func (l *Limiter) removeStale() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastAccess) > l.idleTTL {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

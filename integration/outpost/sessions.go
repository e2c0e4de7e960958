package outpost

import (
	"sync"
	"time"

	"github.com/dmitrymomot/headquarters/core/command"
)

// Sessions keeps one ContextObject per session key so that consecutive
// requests of a session share state. Idle sessions expire after the TTL.
type Sessions struct {
	mu    sync.Mutex
	items map[string]*sessionEntry
	ttl   time.Duration
	now   func() time.Time
}

type sessionEntry struct {
	ctx      *command.MapContext
	lastSeen time.Time
}

// NewSessions creates a session store. A ttl of zero keeps sessions forever.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		items: make(map[string]*sessionEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the context of session key, creating it if needed.
// An empty key yields a fresh context that is not stored.
func (s *Sessions) Get(key string) command.ContextObject {
	if key == "" {
		return command.NewContextObject()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expire(now)

	e, ok := s.items[key]
	if !ok {
		e = &sessionEntry{ctx: command.NewContextObject()}
		e.ctx.Store(SessionKey, key)
		s.items[key] = e
	}
	e.lastSeen = now
	return e.ctx
}

// Drop forgets session key.
func (s *Sessions) Drop(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(s.now())
	return len(s.items)
}

func (s *Sessions) expire(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for key, e := range s.items {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.items, key)
		}
	}
}

package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSessions bounds live sessions when Sessions.Max is unset.
const DefaultMaxSessions = 1000

type session struct {
	c *Controller

	mu     sync.Mutex
	lastAt time.Time
}

// Sessions keeps one controller per browser session. Past Max live
// sessions, the least recently used one is evicted to make room.
type Sessions struct {
	m   sync.Map // id -> *session
	n   atomic.Int64
	New func() *Controller
	Max int
	now func() time.Time

	evictMu sync.Mutex
}

func NewSessions(newController func() *Controller) *Sessions {
	return &Sessions{New: newController, Max: DefaultMaxSessions, now: time.Now}
}

// Lookup returns the controller for a known id without creating one.
func (s *Sessions) Lookup(id string) (*Controller, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := s.m.Load(id)
	if !ok {
		return nil, false
	}
	ss := v.(*session)
	ss.touch(s.now())
	return ss.c, true
}

// Get returns the controller for id, creating a session when id is empty
// or unknown. The returned id is the one to hand back to the client.
func (s *Sessions) Get(id string) (string, *Controller) {
	if c, ok := s.Lookup(id); ok {
		return id, c
	}
	s.makeRoom()
	id = uuid.NewString()
	ss := &session{c: s.New(), lastAt: s.now()}
	v, loaded := s.m.LoadOrStore(id, ss)
	if !loaded {
		s.n.Add(1)
	}
	return id, v.(*session).c
}

// makeRoom evicts least recently used sessions until one more fits.
func (s *Sessions) makeRoom() {
	limit := s.Max
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	s.evictMu.Lock()
	defer s.evictMu.Unlock()
	for s.n.Load() >= int64(limit) {
		var (
			oldestKey any
			oldestAt  time.Time
		)
		s.m.Range(func(k, v any) bool {
			at := v.(*session).last()
			if oldestKey == nil || at.Before(oldestAt) {
				oldestKey, oldestAt = k, at
			}
			return true
		})
		if oldestKey == nil {
			return
		}
		s.delete(oldestKey)
	}
}

func (s *Sessions) delete(k any) bool {
	if _, ok := s.m.LoadAndDelete(k); ok {
		s.n.Add(-1)
		return true
	}
	return false
}

func (ss *session) touch(t time.Time) {
	ss.mu.Lock()
	ss.lastAt = t
	ss.mu.Unlock()
}

func (ss *session) last() time.Time {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lastAt
}

// Sweep drops sessions idle for longer than maxIdle and reports how many
// were removed.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	now := s.now()
	n := 0
	s.m.Range(func(k, v any) bool {
		if now.Sub(v.(*session).last()) > maxIdle && s.delete(k) {
			n++
		}
		return true
	})
	return n
}

// Len counts live sessions.
func (s *Sessions) Len() int {
	return int(s.n.Load())
}

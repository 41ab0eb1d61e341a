// Package session owns the in-memory session store. All access to a
// session's table goes through an exclusive per-session lease, so
// previews, executions, and replacements on the same session never
// interleave while separate sessions proceed in parallel.
package session

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// entry wraps a session with its runtime bookkeeping. lastUsed is atomic
// so the sweeper can read it without contending for the lease.
type entry struct {
	session  *domain.Session
	mu       sync.Mutex
	lastUsed atomic.Value // stores time.Time
	closing  atomic.Bool
}

func (e *entry) lastUsedTime() time.Time {
	if v := e.lastUsed.Load(); v != nil {
		return v.(time.Time)
	}
	return e.session.CreatedAt
}

// Store holds every live session keyed by id.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	logger  *slog.Logger
}

// NewStore creates a Store. ttl <= 0 selects DefaultTTL.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		logger:  logger.With("component", "session"),
	}
}

// Add registers a session with a fresh idle clock.
func (s *Store) Add(sess *domain.Session) {
	e := &entry{session: sess}
	e.lastUsed.Store(sess.CreatedAt)
	s.mu.Lock()
	s.entries[sess.ID] = e
	s.mu.Unlock()
}

// Acquire returns the session under an exclusive lease and refreshes its
// idle clock. The release func must be called exactly once; until then
// every other Acquire for the same id blocks. A session past its idle TTL
// but not yet swept comes back as ExpiredError, a missing or deleted one
// as NotFoundError.
func (s *Store) Acquire(id string) (*domain.Session, func(), error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, domain.ErrNotFound("session %s not found", id)
	}

	e.mu.Lock()
	if e.closing.Load() {
		e.mu.Unlock()
		return nil, nil, domain.ErrNotFound("session %s not found", id)
	}
	if time.Since(e.lastUsedTime()) > s.ttl {
		e.mu.Unlock()
		return nil, nil, domain.ErrExpired("session %s expired", id)
	}
	now := time.Now()
	e.lastUsed.Store(now)
	e.session.LastAccessedAt = now
	return e.session, func() { e.mu.Unlock() }, nil
}

// Delete removes a session and reports whether it existed. It never waits
// for a lease holder: the entry leaves the map immediately, later writes
// by the holder land on an unreachable session, and the holder's release
// stays valid.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		e.closing.Store(true)
		delete(s.entries, id)
	}
	s.mu.Unlock()
	return ok
}

// SweepExpired removes every session idle past the TTL and returns the
// collected ids.
func (s *Store) SweepExpired() []string {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	var removed []string
	for id, e := range s.entries {
		if e.lastUsedTime().Before(cutoff) {
			e.closing.Store(true)
			delete(s.entries, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()
	if len(removed) > 0 {
		s.logger.Info("swept expired sessions", "count", len(removed))
	}
	return removed
}

// Clear removes every session. Called on server shutdown.
func (s *Store) Clear() int {
	s.mu.Lock()
	n := len(s.entries)
	for id, e := range s.entries {
		e.closing.Store(true)
		delete(s.entries, id)
	}
	s.mu.Unlock()
	return n
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

package wizard

// sessions.go holds in-progress wizard states keyed by session ID. The
// store is the single holder of "current" state: handlers read a
// snapshot, run pure transitions on it, and put the result back. Stale
// sessions are swept periodically.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one in-progress wizard run.
type Session struct {
	ID        string      `json:"id"`
	State     WizardState `json:"state"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Sessions is a concurrency-safe, TTL-bounded session store.
type Sessions struct {
	mu     sync.RWMutex
	m      map[string]*Session
	ttl    time.Duration
	max    int
	now    func() time.Time
	onSize func(int)
}

// NewSessions creates a store. Zero ttl means sessions never expire; zero
// max means unlimited.
func NewSessions(ttl time.Duration, max int) *Sessions {
	return &Sessions{
		m:   make(map[string]*Session),
		ttl: ttl,
		max: max,
		now: time.Now,
	}
}

// SetSizeObserver registers fn to be called with the store size after
// every change, including sweeps. The caller wires a metrics gauge here
// so it never drifts from the store. Set once, before the store is used.
func (s *Sessions) SetSizeObserver(fn func(int)) {
	s.mu.Lock()
	s.onSize = fn
	n := len(s.m)
	s.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// notifySize fires the observer outside the lock.
func (s *Sessions) notifySize(fn func(int), n int) {
	if fn != nil {
		fn(n)
	}
}

// Create opens a new wizard session. An edit-mode session is seeded from
// the prior job's state; a create-mode session starts empty.
func (s *Sessions) Create(mode Mode, prior *WizardState) (*Session, error) {
	s.mu.Lock()

	if s.max > 0 && len(s.m) >= s.max {
		s.mu.Unlock()
		return nil, fmt.Errorf("session limit reached (%d active)", s.max)
	}

	state := NewState(mode)
	if mode == ModeEdit && prior != nil {
		state = prior.clone()
		state.Mode = ModeEdit
		state.Current = StepJobDetails
		state.Completed[StepSource] = true
	}

	sess := &Session{
		ID:        uuid.NewString(),
		State:     state,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.m[sess.ID] = sess
	fn, n := s.onSize, len(s.m)
	s.mu.Unlock()

	s.notifySize(fn, n)
	return sess, nil
}

// Get returns a snapshot of the session. The returned state shares no
// mutable containers with the stored one.
func (s *Sessions) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.m[id]
	if !ok {
		return Session{}, false
	}
	out := *sess
	out.State = sess.State.clone()
	return out, true
}

// Put replaces the session's state wholesale.
func (s *Sessions) Put(id string, state WizardState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[id]
	if !ok {
		return false
	}
	sess.State = state
	sess.UpdatedAt = s.now()
	return true
}

// Delete discards a session (submit or cancel).
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	delete(s.m, id)
	fn, n := s.onSize, len(s.m)
	s.mu.Unlock()

	s.notifySize(fn, n)
}

// Len returns the number of active sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// StartSweeper runs a background loop that drops sessions idle longer
// than the TTL. It returns immediately when no TTL is configured and
// stops when the context is cancelled.
func (s *Sessions) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				slog.Info("expired wizard sessions swept", "count", n)
			}
		}
	}
}

func (s *Sessions) sweep() int {
	s.mu.Lock()

	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, sess := range s.m {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.m, id)
			n++
		}
	}
	fn, size := s.onSize, len(s.m)
	s.mu.Unlock()

	if n > 0 {
		s.notifySize(fn, size)
	}
	return n
}

package service

import (
	"sync"
	"time"
)

// SessionStore keeps one QuizSession per browser session ID in memory.
// Requests for the same ID are serialized; different IDs proceed in parallel.
type SessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*storedSession
	newSession func() *QuizSession
	ttl        time.Duration
	now        func() time.Time
}

type storedSession struct {
	mu   sync.Mutex // serializes fn calls on quiz
	quiz *QuizSession

	lastSeen time.Time // guarded by SessionStore.mu
}

// NewSessionStore creates a store that builds sessions with newSession and
// forgets them after ttl without activity
func NewSessionStore(newSession func() *QuizSession, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions:   make(map[string]*storedSession),
		newSession: newSession,
		ttl:        ttl,
		now:        time.Now,
	}
}

// With runs fn on the session for id, creating an idle one if needed
func (s *SessionStore) With(id string, fn func(*QuizSession) error) error {
	s.mu.Lock()
	entry, exists := s.sessions[id]
	if !exists {
		entry = &storedSession{quiz: s.newSession()}
		s.sessions[id] = entry
	}
	entry.lastSeen = s.now()
	s.mu.Unlock()

	return entry.run(fn)
}

// Peek runs fn on the session for id only if one exists and reports whether
// it did. A browser without a stored session is idle.
func (s *SessionStore) Peek(id string, fn func(*QuizSession) error) (bool, error) {
	s.mu.Lock()
	entry, exists := s.sessions[id]
	if exists {
		entry.lastSeen = s.now()
	}
	s.mu.Unlock()

	if !exists {
		return false, nil
	}
	return true, entry.run(fn)
}

func (e *storedSession) run(fn func(*QuizSession) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.quiz)
}

// Delete drops the session for id
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of tracked sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CleanupExpired removes sessions idle for longer than the ttl and returns
// how many were removed. Sessions busy with a request are left alone.
func (s *SessionStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, entry := range s.sessions {
		if !entry.mu.TryLock() {
			continue
		}
		if entry.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
		entry.mu.Unlock()
	}
	return removed
}

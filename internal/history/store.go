// Package history keeps short per-session conversation history in memory.
// It exists as optional ranking input for follow-up questions; nothing in
// the retrieval pipeline requires it.
package history

import (
	"sync"
	"time"

	"github.com/vantor-labs/repliq/internal/domain"
)

// session holds the recorded turns for one session id
type session struct {
	turns    []domain.Turn
	lastSeen time.Time
}

// Store records recent turns per session. Sessions that stay idle past the
// TTL are dropped by the background sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	maxTurns int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewStore creates a Store keeping at most maxTurns per session and
// expiring sessions idle for longer than idleTTL
func NewStore(maxTurns int, idleTTL time.Duration) *Store {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Store{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Record appends a turn to the session, trimming the oldest turns beyond
// the per-session cap
func (s *Store) Record(sessionID string, turn domain.Turn) {
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	sess.turns = append(sess.turns, turn)
	if len(sess.turns) > s.maxTurns {
		sess.turns = sess.turns[len(sess.turns)-s.maxTurns:]
	}
	sess.lastSeen = s.now()
}

// Recent returns up to n turns for the session, oldest first
func (s *Store) Recent(sessionID string, n int) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || n <= 0 {
		return nil
	}

	turns := sess.turns
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Intents returns the distinct intents seen in the session, most recent
// first. Turns without a detected intent are skipped.
func (s *Store) Intents(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var intents []string
	for i := len(sess.turns) - 1; i >= 0; i-- {
		intent := sess.turns[i].Intent
		if intent == "" {
			continue
		}
		if _, dup := seen[intent]; dup {
			continue
		}
		seen[intent] = struct{}{}
		intents = append(intents, intent)
	}
	return intents
}

// Sweep drops sessions idle past the TTL and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idleTTL {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

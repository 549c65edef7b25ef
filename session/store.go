package session

import (
	"sync"
	"time"

	"github.com/fitly/fashion-ai/models"
	"github.com/google/uuid"
)

// DefaultTTL is how long a session stays valid after its last activity.
const DefaultTTL = 60 * time.Minute

// Store keeps chat sessions in memory with lazy TTL expiry. Expired
// sessions are deleted on the next Get; CleanupExpired can additionally be
// driven by a ticker for memory hygiene.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*models.Session
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

// Create starts a new session with a fresh opaque token.
func (s *Store) Create() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &models.Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[sess.ID] = sess
	return copySession(sess)
}

// Get returns a snapshot of the session, or false if the ID is unknown or
// the session has expired. Expired entries are removed on access.
func (s *Store) Get(id string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return copySession(sess), true
}

// GetOrCreate resolves an optional session ID: a valid non-expired ID
// returns the existing session, anything else transparently creates a new
// one. The second return value reports whether a new session was created.
func (s *Store) GetOrCreate(id string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.lookup(id); ok {
			return copySession(sess), false
		}
	}

	now := s.now()
	sess := &models.Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[sess.ID] = sess
	return copySession(sess), true
}

// AppendTurn adds a turn to the session history and refreshes its last
// activity. Appends to unknown or expired sessions are dropped.
func (s *Store) AppendTurn(id string, turn models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookup(id)
	if !ok {
		return
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	sess.Turns = append(sess.Turns, turn)
	sess.LastActivity = s.now()
}

// Touch refreshes the session's last-activity timestamp.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.lookup(id); ok {
		sess.LastActivity = s.now()
	}
}

// CleanupExpired removes every expired session and reports how many were
// dropped.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of sessions currently held, including ones that
// have expired but not yet been swept.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// lookup must be called with the lock held.
func (s *Store) lookup(id string) (*models.Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.LastActivity) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

func copySession(sess *models.Session) *models.Session {
	out := *sess
	out.Turns = append([]models.Turn(nil), sess.Turns...)
	return &out
}

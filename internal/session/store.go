package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/sells-group/proviewer/internal/model"
)

// Store keeps sessions in memory, bounded by count and idle time. Nothing is
// persisted; an evicted session starts over empty.
type Store struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, Session]
	defaults Inputs
}

// NewStore creates a store holding at most size sessions, each expiring ttl
// after its last use.
func NewStore(size int, ttl time.Duration, defaults Inputs) *Store {
	if size <= 0 {
		size = 1024
	}
	onEvict := func(id string, _ Session) {
		zap.L().Debug("session evicted", zap.String("session", id))
	}
	return &Store{
		sessions: expirable.NewLRU[string, Session](size, onEvict, ttl),
		defaults: defaults,
	}
}

// Get returns the session with id.
func (s *Store) Get(id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	return s.sessions.Get(id)
}

// Create starts and stores a new session with a random id.
func (s *Store) Create() Session {
	sess := New(uuid.New().String(), s.defaults)
	s.sessions.Add(sess.ID, sess)
	return sess
}

// GetOrCreate returns the session with id, or a new one if it is unknown or
// expired. created reports which happened. A found session's expiry is
// pushed back so that reads keep an active session alive.
func (s *Store) GetOrCreate(id string) (sess Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if sess, ok := s.sessions.Get(id); ok {
			s.sessions.Add(id, sess)
			return sess, false
		}
	}
	sess = New(uuid.New().String(), s.defaults)
	s.sessions.Add(sess.ID, sess)
	return sess, true
}

// Put replaces the stored snapshot for sess.ID.
func (s *Store) Put(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Add(sess.ID, sess)
}

// Commit stores flow's state from sess on top of the latest stored snapshot,
// keeping whatever other requests wrote to the remaining flows meanwhile.
func (s *Store) Commit(flow model.Flow, sess Session) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if latest, ok := s.sessions.Get(sess.ID); ok {
		sess = latest.Adopt(flow, sess)
	}
	s.sessions.Add(sess.ID, sess)
	return sess
}

// Delete drops the session with id.
func (s *Store) Delete(id string) {
	s.sessions.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}

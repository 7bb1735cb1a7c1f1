package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store keeps a bounded set of live sessions. Sessions that fall out of the
// store, by capacity or idle time, are closed.
type Store struct {
	sessions *expirable.LRU[string, *Session]
}

// NewStore creates a store holding at most limit sessions, each expiring
// ttl after its last use.
func NewStore(limit int, ttl time.Duration) *Store {
	if limit <= 0 {
		limit = 64
	}
	// Eviction runs under the LRU lock; Close does not wait for the loop.
	onEvict := func(_ string, s *Session) { s.Close() }
	return &Store{sessions: expirable.NewLRU[string, *Session](limit, onEvict, ttl)}
}

// Create builds a session with a fresh id and stores it.
func (st *Store) Create(cfg SessionConfig) (*Session, error) {
	cfg.ID = uuid.NewString()
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	st.sessions.Add(s.ID(), s)
	return s, nil
}

// Get returns the session with id.
func (st *Store) Get(id string) (*Session, error) {
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and removes the session with id.
func (st *Store) Delete(id string) error {
	if !st.sessions.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int { return st.sessions.Len() }

// Close closes every session.
func (st *Store) Close() {
	st.sessions.Purge()
}

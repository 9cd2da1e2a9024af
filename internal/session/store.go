// Package session provides the server-side session store backing CSRF
// protection. Sessions are keyed by an opaque ID carried in a cookie; the
// interface allows swapping the in-memory backing for an external store when
// running more than one instance.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session ID is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side state bound to one client.
type Session struct {
	ID        string
	CSRFToken string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists sessions for the lifetime of their TTL.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	SetCSRFToken(ctx context.Context, id, token string) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// MemoryStore is a single-instance, in-memory Store with TTL eviction.
type MemoryStore struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	ttl          time.Duration
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &MemoryStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
	go s.startCleanup()
	return s
}

func (s *MemoryStore) Create(_ context.Context) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	stored := *sess
	s.mu.Lock()
	s.sessions[sess.ID] = &stored
	s.mu.Unlock()

	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Check and copy while the lock is held: SetCSRFToken mutates the
	// stored struct in place.
	sess, ok := s.sessions[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, ErrSessionNotFound
	}

	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) SetCSRFToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return ErrSessionNotFound
	}
	sess.CSRFToken = token
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.shutdownOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

// startCleanup runs periodic cleanup to remove expired sessions
func (s *MemoryStore) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

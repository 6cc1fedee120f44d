package memstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

// SessionStore is the in-memory session.Store. All mutations run under one
// mutex; the sweep shares the same lock so it can never race an in-flight
// read or write on a record.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Record
	ttl      time.Duration
}

// NewSessionStore creates an in-memory store with the given session duration.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Record),
		ttl:      ttl,
	}
}

// generateID returns a 256-bit random handle, base64 raw URL encoded.
func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", apperrors.Wrap(err, "failed to generate session id")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create stores a new record and opportunistically sweeps expired ones.
func (s *SessionStore) Create(_ context.Context, userID, email string, metadata map[string]interface{}) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", err
	}

	rec := session.NewRecord(id, userID, email, metadata, s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = rec
	s.sweepLocked()

	return id, nil
}

// Get returns a detached copy of the record, or nil if unknown or expired.
// Expired records are purged on the way out. The copy carries its own
// metadata map so callers can read it after the lock is released.
func (s *SessionStore) Get(_ context.Context, sessionID string) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if rec.Expired() {
		delete(s.sessions, sessionID)
		return nil, nil
	}

	return rec.Clone(), nil
}

// Update merges fields into an existing, unexpired record.
func (s *SessionStore) Update(_ context.Context, sessionID string, update session.Update) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok || rec.Expired() {
		return false, nil
	}

	rec.Apply(update)
	return true, nil
}

// Delete removes the record. Idempotent.
func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Sweep removes expired records.
func (s *SessionStore) Sweep(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	return nil
}

func (s *SessionStore) sweepLocked() {
	now := time.Now().UTC()
	for id, rec := range s.sessions {
		if !now.Before(rec.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

// Len reports the number of live entries, expired included until swept.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

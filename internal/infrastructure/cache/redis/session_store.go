package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

const sessionPrefix = "session:"

// SessionStore implements session.Store on Redis for multi-instance
// deployments. Expiry is delegated to Redis TTLs, so Sweep is a no-op.
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

type sessionData struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	Email     string                 `json:"email"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ExpiresAt time.Time              `json:"expires_at"`
	CreatedAt time.Time              `json:"created_at"`
}

// Create stores a new record under a random handle with TTL.
func (s *SessionStore) Create(ctx context.Context, userID, email string, metadata map[string]interface{}) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", apperrors.Wrap(err, "failed to generate session id")
	}
	id := base64.RawURLEncoding.EncodeToString(b)

	rec := session.NewRecord(id, userID, email, metadata, s.ttl)
	if err := s.put(ctx, rec); err != nil {
		return "", err
	}

	return id, nil
}

// Get returns the record, or nil if unknown or expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, sessionPrefix+sessionID)
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	var data sessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session")
	}

	rec := &session.Record{
		SessionID: data.SessionID,
		UserID:    data.UserID,
		Email:     data.Email,
		Metadata:  data.Metadata,
		ExpiresAt: data.ExpiresAt,
		CreatedAt: data.CreatedAt,
	}
	if rec.Expired() {
		s.client.Delete(ctx, sessionPrefix+sessionID)
		return nil, nil
	}

	return rec, nil
}

// Update merges fields into an existing, unexpired record.
func (s *SessionStore) Update(ctx context.Context, sessionID string, update session.Update) (bool, error) {
	rec, err := s.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	rec.Apply(update)
	if err := s.put(ctx, rec); err != nil {
		return false, err
	}

	return true, nil
}

// Delete removes the record. Idempotent.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Delete(ctx, sessionPrefix+sessionID)
}

// Sweep is a no-op; Redis expires keys itself.
func (s *SessionStore) Sweep(_ context.Context) error {
	return nil
}

func (s *SessionStore) put(ctx context.Context, rec *session.Record) error {
	data := sessionData{
		SessionID: rec.SessionID,
		UserID:    rec.UserID,
		Email:     rec.Email,
		Metadata:  rec.Metadata,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return apperrors.ErrSessionExpired
	}

	if err := s.client.Set(ctx, sessionPrefix+rec.SessionID, raw, ttl); err != nil {
		return apperrors.Wrap(err, "failed to store session")
	}

	return nil
}

package session

import (
	"time"
)

// Record holds the minimal identity data a session carries. The provider's
// full credential is not re-validated on every request; this record is the
// fast-path identity check.
type Record struct {
	SessionID string
	UserID    string
	Email     string
	Metadata  map[string]interface{}
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewRecord creates a record expiring after ttl. The metadata map is copied
// so the record never aliases the caller's map.
func NewRecord(sessionID, userID, email string, metadata map[string]interface{}, ttl time.Duration) *Record {
	now := time.Now().UTC()
	return &Record{
		SessionID: sessionID,
		UserID:    userID,
		Email:     email,
		Metadata:  cloneMetadata(metadata),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Clone returns a copy with its own metadata map, safe to hand to callers
// that read it outside the store's lock.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Metadata = cloneMetadata(r.Metadata)
	return &cp
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// Expired reports whether the record has passed its expiry.
func (r *Record) Expired() bool {
	return !time.Now().UTC().Before(r.ExpiresAt)
}

// Update carries the fields of a partial session update. Nil fields are left
// untouched; ExpiresAt is preserved unless explicitly set.
type Update struct {
	Email     *string
	Metadata  map[string]interface{}
	ExpiresAt *time.Time
}

// Apply merges the update into the record. The metadata map is replaced, not
// mutated, so clones handed out before the update keep reading their own map.
func (r *Record) Apply(u Update) {
	if u.Email != nil {
		r.Email = *u.Email
	}
	if u.Metadata != nil {
		merged := make(map[string]interface{}, len(r.Metadata)+len(u.Metadata))
		for k, v := range r.Metadata {
			merged[k] = v
		}
		for k, v := range u.Metadata {
			merged[k] = v
		}
		r.Metadata = merged
	}
	if u.ExpiresAt != nil {
		r.ExpiresAt = *u.ExpiresAt
	}
}

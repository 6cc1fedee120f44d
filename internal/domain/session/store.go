package session

import "context"

// Store maps opaque session handles to records. Absent is a normal result:
// Get returns (nil, nil) for unknown or expired handles, and implementations
// purge expired records as a side effect of lookup.
//
// The reference implementation is in-memory and single-process; a shared
// key-value store can be swapped in behind this interface without changing
// the contract.
type Store interface {
	// Create stores a new record under a freshly generated handle and
	// returns the handle.
	Create(ctx context.Context, userID, email string, metadata map[string]interface{}) (string, error)

	// Get returns the record for the handle, or nil if unknown or expired.
	Get(ctx context.Context, sessionID string) (*Record, error)

	// Update merges partial fields into an existing record. Returns false
	// if the session is unknown or expired.
	Update(ctx context.Context, sessionID string, update Update) (bool, error)

	// Delete removes the record. Idempotent.
	Delete(ctx context.Context, sessionID string) error

	// Sweep removes expired records.
	Sweep(ctx context.Context) error
}

package identity

import "context"

// Tree is the ordered key-value boundary the user record store builds on.
// Implementations provide per-key atomicity; cross-key invariants are the
// caller's problem. Scan visits entries in ascending key order.
type Tree interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores the value under the key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the key and reports whether an entry was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// Contains reports whether the key is present.
	Contains(ctx context.Context, key string) (bool, error)
	// Scan calls fn for every entry in ascending key order. A non-nil
	// error from fn stops the scan and is returned unchanged.
	Scan(ctx context.Context, fn func(key string, value []byte) error) error
	// Len returns the number of stored entries.
	Len(ctx context.Context) (int, error)
	// GenerateID returns a process-unique identifier.
	GenerateID() string
}

// Package kv abstracts the small key-value surface the synthesis and timing
// layers need: appended lists, membership sets with an added-or-not answer,
// expiring keys, and deletion. Correctness of callers must not depend on a
// specific backend's transaction model.
package kv

import (
	"context"
	"time"
)

// Store is the key-value contract. Implementations are safe for concurrent
// use but are not required to make multi-key sequences atomic; callers that
// need check-then-act atomicity serialize around the store.
type Store interface {
	// ListAppend appends a value to the list at key and returns the new
	// list length.
	ListAppend(ctx context.Context, key string, value []byte) (int, error)
	// ListRange returns every value in the list at key, oldest first.
	// A missing key yields an empty slice.
	ListRange(ctx context.Context, key string) ([][]byte, error)
	// SetAdd adds a member to the set at key and reports whether it was
	// newly added.
	SetAdd(ctx context.Context, key, member string) (bool, error)
	// SetMembers returns the members of the set at key.
	SetMembers(ctx context.Context, key string) ([]string, error)
	// SetRemove removes a member from the set at key.
	SetRemove(ctx context.Context, key, member string) error
	// Expire sets a time-to-live on key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error
}

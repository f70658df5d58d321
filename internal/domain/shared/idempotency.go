package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of requests that were already accepted,
// e.g. a POS terminal re-submitting the same basket after a timeout.
type IdempotencyStore interface {
	// Claim atomically records key with a TTL.
	// Returns true if the key was newly claimed, false if it was already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key so that a failed request can be retried
	Release(ctx context.Context, key string) error

	// IsClaimed checks whether key is currently held
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

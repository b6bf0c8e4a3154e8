package shared

import (
	"context"
	"time"
)

// RunLease serializes background reconciliation passes across instances.
// TryAcquire returns true when the caller now owns the lease; the lease
// expires on its own after ttl if Release is never called.
type RunLease interface {
	// TryAcquire attempts to take the lease for at most ttl.
	TryAcquire(ctx context.Context, ttl time.Duration) (bool, error)

	// Release gives the lease back. Releasing a lease that is not held
	// (expired or owned by someone else) is a no-op.
	Release(ctx context.Context) error
}

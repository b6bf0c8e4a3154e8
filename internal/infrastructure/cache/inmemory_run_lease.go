package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jetqor/backend/internal/domain/shared"
)

// InMemoryRunLease implements shared.RunLease with a local mutex
// This is suitable for single-instance deployments and testing where
// Redis is not available
type InMemoryRunLease struct {
	mu        sync.Mutex
	held      bool
	expiresAt time.Time
}

// NewInMemoryRunLease creates a new in-memory run lease
func NewInMemoryRunLease() *InMemoryRunLease {
	return &InMemoryRunLease{}
}

// TryAcquire attempts to take the lease for the given TTL
func (l *InMemoryRunLease) TryAcquire(_ context.Context, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.held && now.Before(l.expiresAt) {
		return false, nil
	}

	l.held = true
	l.expiresAt = now.Add(ttl)
	return true, nil
}

// Release gives the lease back
func (l *InMemoryRunLease) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = false
	return nil
}

// Ensure InMemoryRunLease implements RunLease
var _ shared.RunLease = (*InMemoryRunLease)(nil)

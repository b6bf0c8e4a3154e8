package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRunLease_TryAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("grants a free lease", func(t *testing.T) {
		lease := NewInMemoryRunLease()

		acquired, err := lease.TryAcquire(ctx, time.Minute)

		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("refuses while held", func(t *testing.T) {
		lease := NewInMemoryRunLease()

		_, err := lease.TryAcquire(ctx, time.Minute)
		require.NoError(t, err)

		acquired, err := lease.TryAcquire(ctx, time.Minute)

		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("grants again after the TTL passes", func(t *testing.T) {
		lease := NewInMemoryRunLease()

		_, err := lease.TryAcquire(ctx, 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		acquired, err := lease.TryAcquire(ctx, time.Minute)

		require.NoError(t, err)
		assert.True(t, acquired)
	})
}

func TestInMemoryRunLease_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("frees the lease for the next acquirer", func(t *testing.T) {
		lease := NewInMemoryRunLease()

		_, err := lease.TryAcquire(ctx, time.Minute)
		require.NoError(t, err)
		require.NoError(t, lease.Release(ctx))

		acquired, err := lease.TryAcquire(ctx, time.Minute)

		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("is idempotent", func(t *testing.T) {
		lease := NewInMemoryRunLease()

		assert.NoError(t, lease.Release(ctx))
		assert.NoError(t, lease.Release(ctx))
	})
}

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/infrastructure/cache"
)

type countingRunner struct {
	runs atomic.Int64
	err  error
}

func (r *countingRunner) RunOnce(context.Context) error {
	r.runs.Add(1)
	return r.err
}

type deniedLease struct{}

func (deniedLease) TryAcquire(context.Context, time.Duration) (bool, error) { return false, nil }
func (deniedLease) Release(context.Context) error                          { return nil }

func TestReconcileTrigger(t *testing.T) {
	t.Run("runs a pass immediately on start", func(t *testing.T) {
		runner := &countingRunner{}
		trigger := NewReconcileTrigger(
			ReconcileTriggerConfig{Interval: time.Hour, LeaseTTL: time.Minute},
			runner,
			cache.NewInMemoryRunLease(),
			zap.NewNop(),
		)

		require.NoError(t, trigger.Start(context.Background()))
		defer func() { _ = trigger.Stop(context.Background()) }()

		assert.Eventually(t, func() bool {
			return runner.runs.Load() == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("skips passes while the lease is held elsewhere", func(t *testing.T) {
		runner := &countingRunner{}
		trigger := NewReconcileTrigger(
			ReconcileTriggerConfig{Interval: 10 * time.Millisecond, LeaseTTL: time.Minute},
			runner,
			deniedLease{},
			zap.NewNop(),
		)

		require.NoError(t, trigger.Start(context.Background()))
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, trigger.Stop(context.Background()))

		assert.Zero(t, runner.runs.Load())
	})

	t.Run("releases the lease after a failed pass", func(t *testing.T) {
		lease := cache.NewInMemoryRunLease()
		runner := &countingRunner{err: errors.New("remote down")}
		trigger := NewReconcileTrigger(
			ReconcileTriggerConfig{Interval: time.Hour, LeaseTTL: time.Minute},
			runner,
			lease,
			zap.NewNop(),
		)

		require.NoError(t, trigger.Start(context.Background()))
		assert.Eventually(t, func() bool {
			return runner.runs.Load() == 1
		}, time.Second, 10*time.Millisecond)
		require.NoError(t, trigger.Stop(context.Background()))

		acquired, err := lease.TryAcquire(context.Background(), time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("start is idempotent", func(t *testing.T) {
		runner := &countingRunner{}
		trigger := NewReconcileTrigger(
			ReconcileTriggerConfig{Interval: time.Hour, LeaseTTL: time.Minute},
			runner,
			cache.NewInMemoryRunLease(),
			zap.NewNop(),
		)

		require.NoError(t, trigger.Start(context.Background()))
		require.NoError(t, trigger.Start(context.Background()))
		defer func() { _ = trigger.Stop(context.Background()) }()

		assert.Eventually(t, func() bool {
			return runner.runs.Load() == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		trigger := NewReconcileTrigger(
			ReconcileTriggerConfig{},
			&countingRunner{},
			cache.NewInMemoryRunLease(),
			zap.NewNop(),
		)

		assert.NoError(t, trigger.Stop(context.Background()))
	})
}

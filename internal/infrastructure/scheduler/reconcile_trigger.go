package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/domain/shared"
)

// Runner executes one full reconciliation pass
type Runner interface {
	RunOnce(ctx context.Context) error
}

// ReconcileTriggerConfig holds configuration for the reconcile trigger
type ReconcileTriggerConfig struct {
	// Interval is how often a reconciliation pass is started
	Interval time.Duration

	// LeaseTTL bounds how long a single pass may hold the run lease
	LeaseTTL time.Duration
}

// DefaultReconcileTriggerConfig returns default trigger configuration
func DefaultReconcileTriggerConfig() ReconcileTriggerConfig {
	return ReconcileTriggerConfig{
		Interval: 5 * time.Minute,
		LeaseTTL: 10 * time.Minute,
	}
}

// ReconcileTrigger runs the reconciliation pass on a fixed interval.
// The run lease keeps concurrent instances from polling the marketplace
// for the same merchants at the same time.
type ReconcileTrigger struct {
	config ReconcileTriggerConfig
	runner Runner
	lease  shared.RunLease
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReconcileTrigger creates a new reconcile trigger
func NewReconcileTrigger(
	config ReconcileTriggerConfig,
	runner Runner,
	lease shared.RunLease,
	logger *zap.Logger,
) *ReconcileTrigger {
	if config.Interval <= 0 {
		config.Interval = DefaultReconcileTriggerConfig().Interval
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = DefaultReconcileTriggerConfig().LeaseTTL
	}
	return &ReconcileTrigger{
		config: config,
		runner: runner,
		lease:  lease,
		logger: logger,
	}
}

// Start starts the trigger loop. The first pass runs immediately.
func (t *ReconcileTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Reconcile trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Duration("lease_ttl", t.config.LeaseTTL),
	)

	return nil
}

// Stop stops the trigger and waits for an in-flight pass to finish
func (t *ReconcileTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Reconcile trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop runs passes on the configured interval
func (t *ReconcileTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	t.runGuarded(ctx)

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runGuarded(ctx)
		}
	}
}

// runGuarded executes one pass under the run lease
func (t *ReconcileTrigger) runGuarded(ctx context.Context) {
	acquired, err := t.lease.TryAcquire(ctx, t.config.LeaseTTL)
	if err != nil {
		t.logger.Error("Failed to acquire run lease", zap.Error(err))
		return
	}
	if !acquired {
		t.logger.Debug("Run lease held elsewhere, skipping pass")
		return
	}
	defer func() {
		if err := t.lease.Release(ctx); err != nil {
			t.logger.Warn("Failed to release run lease", zap.Error(err))
		}
	}()

	started := time.Now()
	if err := t.runner.RunOnce(ctx); err != nil {
		t.logger.Error("Reconciliation pass failed",
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return
	}

	t.logger.Info("Reconciliation pass finished",
		zap.Duration("elapsed", time.Since(started)),
	)
}

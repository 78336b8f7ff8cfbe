package coordinator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/status"
	pkgsync "github.com/qianmo517/reader/internal/sync"
	"github.com/qianmo517/reader/internal/telemetry"
)

// jitterFraction bounds the random offset applied to each tick, as a fraction of the interval
const jitterFraction = 10

// Coordinator manages background synchronization of the registry
type Coordinator interface {
	// Start runs an initial sync and then syncs on every tick.
	// Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for Start to return
	Stop() error

	// Status returns a copy of the current sync status
	Status() status.SyncStatus
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager  pkgsync.Manager
	interval time.Duration
	tracker  *status.Tracker

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}

	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// New creates a new coordinator with injected dependencies
func New(manager pkgsync.Manager, interval time.Duration, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:  manager,
		interval: interval,
		tracker:  status.NewTracker(interval.String()),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// nextInterval returns the interval with a random jitter of up to ±interval/jitterFraction.
func nextInterval(interval time.Duration) time.Duration {
	jitter := interval / jitterFraction
	if jitter <= 0 {
		return interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	return interval + offset
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	if c.interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", c.interval)
	}

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancelFunc != nil {
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("coordinator already started")
	}
	c.cancelFunc = cancel
	c.mu.Unlock()

	defer func() {
		close(c.done)
		zap.S().Info("Background sync coordinator shut down")
	}()

	zap.S().Infow("Starting background sync coordinator", "interval", c.interval.String())

	c.performSync(coordCtx)

	ticker := time.NewTicker(nextInterval(c.interval))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.performSync(coordCtx)
			ticker.Reset(nextInterval(c.interval))
		case <-coordCtx.Done():
			zap.S().Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		zap.S().Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// Status returns a copy of the current sync status
func (c *defaultCoordinator) Status() status.SyncStatus {
	return c.tracker.Get()
}

// performSync executes one sync run and records its outcome
func (c *defaultCoordinator) performSync(ctx context.Context) {
	startTime := time.Now()

	var attempt int
	c.tracker.Update(func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseSyncing
		s.Message = "Sync in progress"
		s.LastAttempt = &startTime
		s.AttemptCount++
		attempt = s.AttemptCount
	})
	zap.S().Debugw("Starting sync run", "attempt", attempt)

	result, syncErr := c.manager.PerformSync(ctx)
	syncDuration := time.Since(startTime)

	if syncErr != nil {
		c.tracker.Update(func(s *status.SyncStatus) {
			s.Phase = status.SyncPhaseFailed
			s.Message = syncErr.Message
		})
		zap.S().Errorw("Sync failed",
			"attempt", attempt,
			"reason", syncErr.Reason,
			"error", syncErr.Err)
		c.syncMetrics.RecordSyncDuration(ctx, syncDuration, false)
		return
	}

	failed := result.Failed()
	now := time.Now()
	c.tracker.Update(func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseComplete
		s.Message = "Sync completed successfully"
		if len(failed) > 0 {
			s.Message = fmt.Sprintf("Sync completed with %d of %d lists failing", len(failed), len(result.Lists))
		}
		s.RunID = result.RunID
		s.LastSyncTime = &now
		s.LastSyncHash = result.Hash
		s.SourceCount = result.SourceCount
		s.Lists = result.Lists
		s.AttemptCount = 0
	})

	zap.S().Infow("Sync completed",
		"run_id", result.RunID,
		"sources", result.SourceCount,
		"changed", result.Changed,
		"failed_lists", len(failed),
		"duration", syncDuration.String())
	c.syncMetrics.RecordSyncDuration(ctx, syncDuration, len(failed) == 0)
}

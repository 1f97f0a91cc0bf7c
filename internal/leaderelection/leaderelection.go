package leaderelection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"Dormant/internal/config"
)

// LeaderElector elects a single active replica through an exclusive flock on
// a shared lock file. Only one process can hold the lock; a crashed leader
// releases it when the kernel closes its descriptor.
type LeaderElector struct {
	config   config.LeaderElectionConfig
	logger   *slog.Logger
	lockFile *os.File
	isLeader atomic.Bool
}

// New creates a new leader elector
func New(cfg config.LeaderElectionConfig, logger *slog.Logger) *LeaderElector {
	return &LeaderElector{
		config: cfg,
		logger: logger.With("component", "leader-election"),
	}
}

// Run blocks until ctx is done. onStartLeading runs in its own goroutine with
// a context that is cancelled when leadership ends.
func (le *LeaderElector) Run(ctx context.Context, onStartLeading, onStopLeading func(ctx context.Context)) error {
	if !le.config.Enabled {
		le.logger.Info("leader election disabled, assuming leadership")
		le.isLeader.Store(true)
		onStartLeading(ctx)
		<-ctx.Done()
		return nil
	}

	le.logger.Info("starting leader election",
		"lock_file", le.config.LockFilePath,
		"retry_period", le.config.RetryPeriod,
	)

	var (
		leaderCtx   context.Context
		stopLeading context.CancelFunc
	)

	ticker := time.NewTicker(le.config.RetryPeriod)
	defer ticker.Stop()

	for {
		acquired, err := le.tryAcquireLock()
		if err != nil {
			le.logger.Error("failed to acquire lock", "error", err)
		}

		if acquired && !le.isLeader.Load() {
			le.logger.Info("acquired leadership")
			le.isLeader.Store(true)
			leaderCtx, stopLeading = context.WithCancel(ctx)
			go onStartLeading(leaderCtx)
		}

		select {
		case <-ctx.Done():
			if le.isLeader.Load() {
				stopLeading()
				le.release()
				le.isLeader.Store(false)
				onStopLeading(ctx)
			}
			return nil
		case <-ticker.C:
		}
	}
}

// IsLeader returns whether this instance is the leader
func (le *LeaderElector) IsLeader() bool {
	return le.isLeader.Load() || !le.config.Enabled
}

// tryAcquireLock reports whether this process holds the lock. A held lock is
// kept; reopening the file would create a second open file description that
// conflicts with our own lock.
func (le *LeaderElector) tryAcquireLock() (bool, error) {
	if le.lockFile != nil {
		return true, nil
	}

	f, err := os.OpenFile(le.config.LockFilePath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	le.lockFile = f
	return true, nil
}

func (le *LeaderElector) release() {
	if le.lockFile == nil {
		return
	}
	syscall.Flock(int(le.lockFile.Fd()), syscall.LOCK_UN)
	le.lockFile.Close()
	le.lockFile = nil
	le.logger.Info("released leadership")
}

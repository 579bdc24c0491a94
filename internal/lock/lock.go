// Package lock provides the file-based execution lock that keeps restore
// runs mutually exclusive. At most one orchestrator may execute the
// post-validation pipeline at a time; concurrent runs against the same
// tables would corrupt data during the swap phase.
package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/edwinbulter/quote-lambda-tf/internal/errors"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
)

const (
	// staleAfter is the age past which a leftover lock file from a dead run
	// is reclaimed. There is no heartbeat renewal while a lock is held.
	staleAfter = time.Hour

	// retryInterval is the pause between acquisition attempts on contention.
	retryInterval = 500 * time.Millisecond
)

// FileLock guards the restore pipeline via exclusive-create of a marker file.
type FileLock struct {
	path     string
	acquired bool
	log      logger.Logger
}

// New creates a lock on the given marker path.
func New(path string, log logger.Logger) *FileLock {
	return &FileLock{path: path, log: log}
}

// Path returns the lock marker path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire attempts to take the lock, retrying on contention until the timeout
// elapses. A marker older than one hour is treated as stale, removed, and the
// attempt repeated. Returns a LockContention error when the timeout expires.
func (l *FileLock) Acquire(ctx context.Context, timeout time.Duration) error {
	b := backoff.NewConstantBackOff(retryInterval)
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(timeout/retryInterval)), ctx)

	if err := backoff.Retry(l.tryOnce, policy); err != nil {
		// Retries exhaust only on contention; anything else surfaced as a
		// permanent error is an I/O problem with the marker itself.
		if os.IsExist(err) || ctx.Err() != nil {
			l.log.Error("Failed to acquire lock - restore already in progress", "lock_file", l.path)
			return errors.LockContention(l.path)
		}
		return err
	}

	l.log.Info("Lock acquired", "lock_file", l.path)
	return nil
}

// tryOnce performs a single exclusive-create attempt.
func (l *FileLock) tryOnce() error {
	fd, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(fd, "%d\n%d\n", os.Getpid(), time.Now().Unix())
		if cerr := fd.Close(); cerr != nil {
			os.Remove(l.path)
			return backoff.Permanent(fmt.Errorf("failed to write lock file: %w", cerr))
		}
		l.acquired = true
		return nil
	}

	if !os.IsExist(err) {
		return backoff.Permanent(fmt.Errorf("failed to create lock file: %w", err))
	}

	if l.isStale() {
		l.log.Warn("Removing stale lock file", "lock_file", l.path)
		os.Remove(l.path)
	}
	return err
}

// isStale reports whether the existing marker is older than the staleness
// bound. A vanished marker is not stale; the next create attempt decides.
func (l *FileLock) isStale() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleAfter
}

// Release removes the marker. Safe to call on every exit path; releasing a
// lock that was never acquired is a no-op.
func (l *FileLock) Release() {
	if !l.acquired {
		return
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		l.log.Warn("Failed to release lock", "lock_file", l.path, "error", err)
		return
	}
	l.acquired = false
	l.log.Info("Lock released", "lock_file", l.path)
}

// Package lockfile provides exclusive advisory locks keyed by file path.
//
// Two implementations satisfy Locker: FileLocker uses OS advisory locks
// (flock on unix, LockFileEx on windows) and coordinates separate
// processes; MemLocker coordinates goroutines inside one process and is
// used for embedded deployments and tests.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrLockBusy means another holder owns the lock right now.
	ErrLockBusy = errors.New("lock busy")

	// ErrLockTimeout means a blocking acquire gave up.
	ErrLockTimeout = errors.New("lock timeout")
)

const (
	// DefaultPollInterval is how often a blocking acquire retries.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultTimeout bounds a blocking acquire when the caller passes zero.
	DefaultTimeout = 30 * time.Second
)

// Lock is a held lock. Release is idempotent.
type Lock interface {
	Release() error
}

// Locker acquires exclusive locks identified by path.
type Locker interface {
	// TryLock acquires the lock without waiting, or returns ErrLockBusy.
	TryLock(path string) (Lock, error)

	// Lock polls until the lock is acquired, ctx is done, or timeout
	// elapses (ErrLockTimeout).
	Lock(ctx context.Context, path string, timeout time.Duration) (Lock, error)
}

// acquire implements the blocking acquire shared by both lockers: one
// immediate attempt, then constant-interval polling until the deadline.
func acquire(ctx context.Context, path string, timeout, interval time.Duration, try func(string) (Lock, error)) (Lock, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var held Lock
	op := func() error {
		l, err := try(path)
		if err == nil {
			held = l
			return nil
		}
		if errors.Is(err, ErrLockBusy) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(interval), lockCtx))
	if err == nil {
		return held, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, ErrLockBusy) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s not acquired within %s", ErrLockTimeout, path, timeout)
	}
	return nil, err
}

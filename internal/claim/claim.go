// Package claim enforces single ownership of in-progress work.
//
// Two paths take a claim. Claim is the update path: it waits (bounded) for
// the task's lock file, re-reads the task and rejects a claim held by
// someone else. ClaimNext walks the ready queue, skipping any task whose
// lock is busy, and re-verifies each candidate after locking so that two
// processes never walk away with the same task.
package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/taskgraph/internal/lockfile"
	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/types"
)

// DefaultLockTimeout bounds the wait for a per-task lock on the update path.
const DefaultLockTimeout = 5 * time.Second

// Claimer coordinates claims through per-task locks.
type Claimer struct {
	store       storage.Storage
	locker      lockfile.Locker
	lockTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Claimer.
type Option func(*Claimer)

// WithLockTimeout sets how long Claim waits for a busy task lock.
func WithLockTimeout(d time.Duration) Option {
	return func(c *Claimer) {
		if d > 0 {
			c.lockTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Claimer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Claimer. The locker decides portability: FileLocker for
// cooperating processes, MemLocker inside a single process.
func New(store storage.Storage, locker lockfile.Locker, opts ...Option) *Claimer {
	c := &Claimer{
		store:       store,
		locker:      locker,
		lockTimeout: DefaultLockTimeout,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckClaim rejects assignee if t is in progress under someone else.
// Reclaiming by the current owner, or claiming an unowned task, is fine.
func CheckClaim(t *types.Task, assignee string) error {
	owner := t.ClaimedBy()
	if owner == "" || owner == assignee {
		return nil
	}
	return &storage.ClaimConflictError{TaskID: t.ID, Assignee: owner, Since: t.Modified}
}

// Claim moves id to in_progress owned by assignee. apply, if non-nil, makes
// further edits to the freshly read task before it is saved.
func (c *Claimer) Claim(ctx context.Context, id, assignee string, apply func(*types.Task) error) (*types.Task, error) {
	if assignee == "" {
		return nil, fmt.Errorf("%w: assignee is required to claim %s", storage.ErrValidation, id)
	}
	t, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	if err := CheckClaim(t, assignee); err != nil {
		return nil, err
	}

	lock, err := c.locker.Lock(ctx, c.store.LockPath(t), c.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, err)
	}
	defer func() { _ = lock.Release() }()

	fresh, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	if err := CheckClaim(fresh, assignee); err != nil {
		return nil, err
	}
	if apply != nil {
		if err := apply(fresh); err != nil {
			return nil, err
		}
	}
	fresh.Status = types.StatusInProgress
	fresh.Assignee = assignee
	if _, err := c.store.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, err)
	}
	c.logger.Info("task claimed", "id", id, "assignee", assignee)
	return fresh, nil
}

// ClaimNext claims the highest-priority ready task for caller. It returns
// (nil, nil) when every candidate is taken or none exist.
func (c *Claimer) ClaimNext(ctx context.Context, caller, project string) (*types.Task, error) {
	if caller == "" {
		return nil, fmt.Errorf("%w: caller is required", storage.ErrValidation)
	}
	candidates, err := c.store.ReadyTasks(ctx, project)
	if err != nil {
		return nil, err
	}
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cand.Assignee != "" && cand.Assignee != caller {
			continue
		}
		t, err := c.tryClaim(ctx, cand, caller)
		if err != nil {
			c.logger.Debug("claim candidate skipped", "id", cand.ID, "err", err)
			continue
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, nil
}

var errNotClaimable = errors.New("no longer claimable")

func (c *Claimer) tryClaim(ctx context.Context, cand *types.Task, caller string) (*types.Task, error) {
	lock, err := c.locker.TryLock(c.store.LockPath(cand))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	fresh, err := c.store.Get(ctx, cand.ID)
	if err != nil {
		return nil, err
	}
	ok, err := c.claimable(ctx, fresh, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNotClaimable
	}

	fresh.Status = types.StatusInProgress
	fresh.Assignee = caller
	if _, err := c.store.Save(ctx, fresh); err != nil {
		return nil, err
	}
	c.logger.Info("task claimed", "id", fresh.ID, "assignee", caller, "via", "claim-next")
	return fresh, nil
}

// claimable re-checks the readiness law and ownership against storage.
func (c *Claimer) claimable(ctx context.Context, t *types.Task, caller string) (bool, error) {
	if t == nil || !t.Status.IsReadyEligible() {
		return false, nil
	}
	if t.Assignee != "" && t.Assignee != caller {
		return false, nil
	}
	kids, err := c.store.Children(ctx, t.ID)
	if err != nil || len(kids) > 0 {
		return false, err
	}
	for _, id := range t.DependsOn {
		d, err := c.store.Get(ctx, id)
		if err != nil {
			return false, err
		}
		if d == nil || d.Status != types.StatusDone {
			return false, nil
		}
	}
	return true, nil
}

// Package completion moves tasks to done behind an incomplete-marker gate
// and cascades unblocking to dependents.
package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/types"
)

// Completer performs gated completion against storage.
type Completer struct {
	store  storage.Storage
	logger *slog.Logger
}

// New returns a Completer. A nil logger discards output.
func New(store storage.Storage, logger *slog.Logger) *Completer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Completer{store: store, logger: logger}
}

// Outcome describes a successful completion.
type Outcome struct {
	Task *types.Task `json:"task"`

	// Unblocked lists dependents moved from blocked to active.
	Unblocked []*types.Task `json:"unblocked,omitempty"`

	// AlreadyDone is set when the task was done before the call.
	AlreadyDone bool `json:"already_done,omitempty"`
}

// Check returns an IncompleteWorkError if t's body carries markers.
func Check(t *types.Task) error {
	if markers := ScanMarkers(t.Body); len(markers) > 0 {
		return &storage.IncompleteWorkError{TaskID: t.ID, Markers: markers}
	}
	return nil
}

// Complete marks id done unless its body has incomplete markers and force
// is false, then propagates. Completing a task that is already done
// succeeds without rewriting it.
func (c *Completer) Complete(ctx context.Context, id string, force bool) (*Outcome, error) {
	t, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}

	out := &Outcome{Task: t}
	if t.Status == types.StatusDone {
		out.AlreadyDone = true
	} else {
		if !force {
			if err := Check(t); err != nil {
				return nil, err
			}
		}
		t.Status = types.StatusDone
		if _, err := c.store.Save(ctx, t); err != nil {
			return nil, fmt.Errorf("complete %s: %w", id, err)
		}
		c.logger.Info("task completed", "id", id, "forced", force)
	}

	if out.Unblocked, err = c.Propagate(ctx, id); err != nil {
		return out, err
	}
	return out, nil
}

// Propagate walks dependents of the given (done) tasks breadth first. A
// blocked dependent whose every hard dependency is now done becomes
// active. Dependents that are already done are walked in turn so chains
// completed out of order still release their own dependents.
func (c *Completer) Propagate(ctx context.Context, ids ...string) ([]*types.Task, error) {
	all, err := c.store.List(ctx, types.Filter{})
	if err != nil {
		return nil, err
	}
	dependents := make(map[string][]string)
	for _, t := range all {
		for _, dep := range t.DependsOn {
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	var unblocked []*types.Task
	visited := make(map[string]bool)
	queue := append([]string(nil), ids...)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return unblocked, err
		}
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, depID := range dependents[current] {
			x, err := c.store.Get(ctx, depID)
			if err != nil {
				return unblocked, err
			}
			if x == nil {
				continue
			}
			ready, err := c.dependenciesDone(ctx, x)
			if err != nil {
				return unblocked, err
			}
			if !ready {
				continue
			}
			switch x.Status {
			case types.StatusBlocked:
				x.Status = types.StatusActive
				if _, err := c.store.Save(ctx, x); err != nil {
					return unblocked, fmt.Errorf("unblock %s: %w", x.ID, err)
				}
				c.logger.Info("task unblocked", "id", x.ID, "by", current)
				unblocked = append(unblocked, x)
			case types.StatusDone:
				queue = append(queue, x.ID)
			}
		}
	}
	return unblocked, nil
}

// dependenciesDone re-reads every hard dependency of t from storage.
func (c *Completer) dependenciesDone(ctx context.Context, t *types.Task) (bool, error) {
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

// ItemResult is the per-id outcome of a bulk completion.
type ItemResult struct {
	ID        string        `json:"id"`
	Success   bool          `json:"success"`
	Message   string        `json:"message,omitempty"`
	Task      *types.Task   `json:"task,omitempty"`
	Unblocked []*types.Task `json:"unblocked,omitempty"`
}

// BulkResult collects per-id outcomes. Success is false if any id failed.
type BulkResult struct {
	Success bool         `json:"success"`
	Results []ItemResult `json:"results"`
}

// Failed counts the ids that did not complete.
func (r *BulkResult) Failed() int {
	n := 0
	for _, item := range r.Results {
		if !item.Success {
			n++
		}
	}
	return n
}

// CompleteAll completes each id independently. A failure on one id never
// stops the rest from being attempted.
func (c *Completer) CompleteAll(ctx context.Context, ids []string, force bool) *BulkResult {
	res := &BulkResult{Success: true, Results: make([]ItemResult, 0, len(ids))}
	for _, id := range ids {
		out, err := c.Complete(ctx, id, force)
		item := ItemResult{ID: id, Success: err == nil}
		if out != nil {
			item.Task = out.Task
			item.Unblocked = out.Unblocked
			if out.AlreadyDone {
				item.Message = "already done"
			}
		}
		if err != nil {
			item.Message = err.Error()
			res.Success = false
		}
		res.Results = append(res.Results, item)
	}
	return res
}

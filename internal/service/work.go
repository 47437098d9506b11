package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/steveyegge/taskgraph/internal/storage"
)

// ErrNoWorkspace is returned by SetupWorkspace when no manager is configured.
var ErrNoWorkspace = errors.New("workspaces not configured")

// ClaimNext claims the best ready task for caller. Finding nothing is a
// success with no task.
func (s *Service) ClaimNext(ctx context.Context, caller, project string) *Result {
	if caller == "" {
		caller = s.actor
	}
	t, err := s.claimer.ClaimNext(ctx, caller, project)
	if err != nil {
		return fail(err)
	}
	if t == nil {
		return ok("no claimable task")
	}
	s.event("task.claimed", t.ID, caller)
	return &Result{Success: true, Message: fmt.Sprintf("%s claimed by %s", t.ID, caller), Task: t}
}

// SetupWorkspace creates the working directory (or git worktree) for id.
func (s *Service) SetupWorkspace(ctx context.Context, id string) *Result {
	if s.workspace == nil {
		return fail(ErrNoWorkspace)
	}
	t, err := s.mustGet(ctx, id)
	if err != nil {
		return fail(err)
	}
	ws, err := s.workspace.Setup(ctx, t.ID)
	if err != nil {
		return fail(err)
	}
	if ws.Created {
		s.event("workspace.created", id, ws.Path)
	}
	return &Result{Success: true, Message: ws.Path, Task: t, Stats: ws}
}

// IsNotFound reports whether r failed because a task was missing.
func (r *Result) IsNotFound() bool {
	return r != nil && !r.Success && errors.Is(r.Err, storage.ErrNotFound)
}

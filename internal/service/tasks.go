package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/taskgraph/internal/claim"
	"github.com/steveyegge/taskgraph/internal/completion"
	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/types"
)

// Create builds and persists a new task.
func (s *Service) Create(ctx context.Context, p types.CreateParams) *Result {
	t, err := s.store.Create(ctx, p)
	if err != nil {
		return fail(err)
	}
	if _, err := s.store.Save(ctx, t); err != nil {
		return fail(err)
	}
	// Re-read for derived fields the save computed.
	saved, err := s.mustGet(ctx, t.ID)
	if err != nil {
		return fail(err)
	}
	s.event("task.created", saved.ID, saved.Title)
	return &Result{Success: true, Message: "created " + saved.ID, Task: saved}
}

// Get returns one task; a miss is Success=false wrapping ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) *Result {
	t, err := s.mustGet(ctx, id)
	if err != nil {
		return fail(err)
	}
	return &Result{Success: true, Task: t}
}

// List returns tasks matching filter in listing order.
func (s *Service) List(ctx context.Context, filter types.Filter) *Result {
	tasks, err := s.store.List(ctx, filter)
	if err != nil {
		return fail(err)
	}
	return tasksResult(tasks)
}

// UpdateParams names the fields to change; nil pointers are left alone.
type UpdateParams struct {
	Title         *string
	Type          *types.TaskType
	Status        *types.Status
	Project       *string
	Parent        *string
	DependsOn     *[]string
	SoftDependsOn *[]string
	Tags          *[]string
	Priority      *int
	Due           *time.Time
	ClearDue      bool
	Order         *int
	Body          *string
	Assignee      *string

	// Force skips the incomplete-marker gate when Status is done.
	Force bool
}

func (p UpdateParams) apply(t *types.Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Project != nil {
		t.Project = *p.Project
	}
	if p.Parent != nil {
		t.Parent = *p.Parent
	}
	if p.DependsOn != nil {
		t.DependsOn = *p.DependsOn
	}
	if p.SoftDependsOn != nil {
		t.SoftDependsOn = *p.SoftDependsOn
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDue {
		t.Due = nil
	} else if p.Due != nil {
		due := p.Due.UTC().Truncate(time.Second)
		t.Due = &due
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.Body != nil {
		t.Body = *p.Body
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
}

// Update edits a task. Moving to in_progress goes through the claim path
// and is rejected while another assignee holds the task. Moving to done
// goes through the completion gate and then propagates unblocking.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) *Result {
	if p.Parent != nil && *p.Parent == id {
		return fail(fmt.Errorf("%w: task %s cannot be its own parent", storage.ErrValidation, id))
	}
	if p.Status != nil {
		switch *p.Status {
		case types.StatusInProgress:
			return s.updateClaim(ctx, id, p)
		case types.StatusDone:
			return s.updateDone(ctx, id, p)
		}
	}

	t, err := s.mustGet(ctx, id)
	if err != nil {
		return fail(err)
	}
	// Reassigning work that stays in progress is a claim by the new assignee.
	if p.Assignee != nil && p.Status == nil {
		if err := claim.CheckClaim(t, *p.Assignee); err != nil {
			return fail(err)
		}
	}
	p.apply(t)
	if p.Status != nil {
		t.Status = *p.Status
	}
	if _, err := s.store.Save(ctx, t); err != nil {
		return fail(err)
	}
	s.event("task.updated", id, string(t.Status))
	return &Result{Success: true, Message: "updated " + id, Task: t}
}

func (s *Service) updateClaim(ctx context.Context, id string, p UpdateParams) *Result {
	assignee := s.actor
	if p.Assignee != nil && *p.Assignee != "" {
		assignee = *p.Assignee
	}
	p.Assignee = nil
	t, err := s.claimer.Claim(ctx, id, assignee, func(t *types.Task) error {
		p.apply(t)
		return nil
	})
	if err != nil {
		return fail(err)
	}
	s.event("task.claimed", id, assignee)
	return &Result{Success: true, Message: fmt.Sprintf("%s claimed by %s", id, assignee), Task: t}
}

func (s *Service) updateDone(ctx context.Context, id string, p UpdateParams) *Result {
	t, err := s.mustGet(ctx, id)
	if err != nil {
		return fail(err)
	}
	wasDone := t.Status == types.StatusDone
	p.apply(t)
	if !wasDone && !p.Force {
		if err := completion.Check(t); err != nil {
			return fail(err)
		}
	}
	t.Status = types.StatusDone
	if _, err := s.store.Save(ctx, t); err != nil {
		return fail(err)
	}
	unblocked, err := s.completer.Propagate(ctx, id)
	if err != nil {
		return fail(err)
	}
	s.event("task.completed", id, fmt.Sprintf("unblocked=%d", len(unblocked)))
	return &Result{Success: true, Message: completeMessage(id, wasDone, unblocked), Task: t, Tasks: unblocked}
}

// Delete removes a task file.
func (s *Service) Delete(ctx context.Context, id string) *Result {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return fail(err)
	}
	if !removed {
		return fail(fmt.Errorf("%w: task %s", storage.ErrNotFound, id))
	}
	s.event("task.deleted", id, "")
	return ok("deleted " + id)
}

// Complete marks id done behind the incomplete-marker gate and unblocks
// dependents. Completing a done task succeeds again.
func (s *Service) Complete(ctx context.Context, id string, force bool) *Result {
	out, err := s.completer.Complete(ctx, id, force)
	if err != nil {
		return fail(err)
	}
	s.event("task.completed", id, fmt.Sprintf("unblocked=%d forced=%t", len(out.Unblocked), force))
	return &Result{
		Success: true,
		Message: completeMessage(id, out.AlreadyDone, out.Unblocked),
		Task:    out.Task,
		Tasks:   out.Unblocked,
	}
}

func completeMessage(id string, already bool, unblocked []*types.Task) string {
	msg := "completed " + id
	if already {
		msg = id + " already done"
	}
	if len(unblocked) > 0 {
		ids := make([]string, len(unblocked))
		for i, t := range unblocked {
			ids[i] = t.ID
		}
		msg += "; unblocked " + strings.Join(ids, ", ")
	}
	return msg
}

// CompleteBulk completes every id independently. Success is false if any
// id failed; Stats carries the per-id results.
func (s *Service) CompleteBulk(ctx context.Context, ids []string, force bool) *Result {
	if len(ids) == 0 {
		return fail(fmt.Errorf("%w: no task ids given", storage.ErrValidation))
	}
	bulk := s.completer.CompleteAll(ctx, ids, force)
	for _, item := range bulk.Results {
		if item.Success {
			s.event("task.completed", item.ID, "bulk")
		}
	}
	n := len(ids) - bulk.Failed()
	res := &Result{
		Success: bulk.Success,
		Message: fmt.Sprintf("completed %d of %d", n, len(ids)),
		Stats:   bulk,
		Count:   &n,
	}
	if !bulk.Success {
		res.Err = fmt.Errorf("%d of %d tasks failed to complete", bulk.Failed(), len(ids))
	}
	return res
}

// Decompose creates children under parentID.
func (s *Service) Decompose(ctx context.Context, parentID string, specs []types.ChildSpec) *Result {
	children, err := s.store.Decompose(ctx, parentID, specs)
	if err != nil {
		return fail(err)
	}
	s.event("task.decomposed", parentID, fmt.Sprintf("children=%d", len(children)))
	res := tasksResult(children)
	res.Message = fmt.Sprintf("created %d children under %s", len(children), parentID)
	return res
}

// Children lists direct children in sibling order.
func (s *Service) Children(ctx context.Context, id string) *Result {
	return s.listOf(ctx, id, s.store.Children)
}

// Descendants lists every task below id.
func (s *Service) Descendants(ctx context.Context, id string) *Result {
	return s.listOf(ctx, id, s.store.Descendants)
}

// Ancestors lists the parent chain, nearest first.
func (s *Service) Ancestors(ctx context.Context, id string) *Result {
	return s.listOf(ctx, id, s.store.Ancestors)
}

func (s *Service) listOf(ctx context.Context, id string, fn func(context.Context, string) ([]*types.Task, error)) *Result {
	if _, err := s.mustGet(ctx, id); err != nil {
		return fail(err)
	}
	tasks, err := fn(ctx, id)
	if err != nil {
		return fail(err)
	}
	return tasksResult(tasks)
}

// Root returns the topmost ancestor of id.
func (s *Service) Root(ctx context.Context, id string) *Result {
	t, err := s.store.Root(ctx, id)
	if err != nil {
		return fail(err)
	}
	if t == nil {
		return fail(fmt.Errorf("%w: task %s", storage.ErrNotFound, id))
	}
	return &Result{Success: true, Task: t}
}

// Ready lists ready tasks, optionally limited to a project.
func (s *Service) Ready(ctx context.Context, project string) *Result {
	tasks, err := s.store.ReadyTasks(ctx, project)
	if err != nil {
		return fail(err)
	}
	return tasksResult(tasks)
}

// Blocked lists non-terminal tasks with unmet hard dependencies.
func (s *Service) Blocked(ctx context.Context) *Result {
	tasks, err := s.store.BlockedTasks(ctx)
	if err != nil {
		return fail(err)
	}
	return tasksResult(tasks)
}

// Tree returns id and everything below it, read fresh from storage.
func (s *Service) Tree(ctx context.Context, id string) *Result {
	all, err := s.store.List(ctx, types.Filter{})
	if err != nil {
		return fail(err)
	}
	tree := graph.New(all).Tree(id)
	if tree == nil {
		return fail(fmt.Errorf("%w: task %s", storage.ErrNotFound, id))
	}
	n := tree.Size()
	return &Result{Success: true, Tree: tree, Count: &n}
}

// Reorder sets sibling order under parentID.
func (s *Service) Reorder(ctx context.Context, parentID string, orderedIDs []string) *Result {
	tasks, err := s.store.Reorder(ctx, parentID, orderedIDs)
	if err != nil {
		return fail(err)
	}
	s.event("task.reordered", parentID, strings.Join(orderedIDs, ","))
	return tasksResult(tasks)
}

// Reparent moves id under newParent, or to the root when newParent is "".
func (s *Service) Reparent(ctx context.Context, id, newParent string) *Result {
	t, err := s.store.Reparent(ctx, id, newParent)
	if err != nil {
		return fail(err)
	}
	s.event("task.reparented", id, newParent)
	return &Result{Success: true, Message: "moved " + id, Task: t}
}

// Package index is a per-process, rebuild-only cache over task storage.
//
// Rebuild is the only way the index changes. Mutations made through
// storage (by this process or any other) are invisible until the caller
// rebuilds. There is no incremental maintenance and no cross-process
// synchronization.
package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/types"
)

// Source is the subset of storage the index reads from.
type Source interface {
	List(ctx context.Context, filter types.Filter) ([]*types.Task, error)
}

// Index serves lookups and topology queries from the last rebuild.
type Index struct {
	src Source
	now func() time.Time

	mu      sync.RWMutex
	g       *graph.Graph
	builtAt time.Time
}

// New returns an empty index over src. Call Rebuild before querying.
func New(src Source) *Index {
	return &Index{src: src, now: time.Now, g: graph.New(nil)}
}

// Rebuild rescans storage and atomically swaps in the new snapshot. On
// error the previous snapshot is kept.
func (ix *Index) Rebuild(ctx context.Context) error {
	tasks, err := ix.src.List(ctx, types.Filter{})
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	g := graph.New(tasks)

	ix.mu.Lock()
	ix.g = g
	ix.builtAt = ix.now()
	ix.mu.Unlock()
	return nil
}

// Snapshot returns the current graph. The graph is immutable; it stays
// valid after later rebuilds.
func (ix *Index) Snapshot() *graph.Graph {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.g
}

// BuiltAt is when the last successful rebuild finished (zero if never).
func (ix *Index) BuiltAt() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.builtAt
}

// Len returns the number of indexed tasks.
func (ix *Index) Len() int { return ix.Snapshot().Len() }

// Get returns a copy of the indexed task, or nil.
func (ix *Index) Get(id string) *types.Task {
	return ix.Snapshot().Get(id).Clone()
}

// All returns copies of every indexed task.
func (ix *Index) All() []*types.Task { return cloneAll(ix.Snapshot().All()) }

// Children returns direct children sorted by order.
func (ix *Index) Children(id string) []*types.Task {
	return cloneAll(ix.Snapshot().Children(id))
}

// Descendants returns every task under id, breadth first.
func (ix *Index) Descendants(id string) []*types.Task {
	return cloneAll(ix.Snapshot().Descendants(id))
}

// Ancestors returns the parent chain, nearest first.
func (ix *Index) Ancestors(id string) []*types.Task {
	return cloneAll(ix.Snapshot().Ancestors(id))
}

// Roots returns tasks without a parent.
func (ix *Index) Roots() []*types.Task { return cloneAll(ix.Snapshot().Roots()) }

// ByProject returns the tasks routed to project ("" for the inbox).
func (ix *Index) ByProject(project string) []*types.Task {
	var out []*types.Task
	for _, t := range ix.Snapshot().All() {
		if t.Project == project {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Dependents returns tasks that hard-depend on id.
func (ix *Index) Dependents(id string) []*types.Task {
	return cloneAll(ix.Snapshot().Dependents(id))
}

// SoftDependents returns tasks that soft-depend on id.
func (ix *Index) SoftDependents(id string) []*types.Task {
	return cloneAll(ix.Snapshot().SoftDependents(id))
}

// Ready applies the readiness law to the snapshot.
func (ix *Index) Ready(project string) []*types.Task {
	return cloneAll(ix.Snapshot().Ready(project))
}

// Blocked returns non-terminal tasks with unmet hard dependencies.
func (ix *Index) Blocked() []*types.Task { return cloneAll(ix.Snapshot().Blocked()) }

// Tree expands id into a nested tree of copies, or nil.
func (ix *Index) Tree(id string) *types.TreeNode {
	return cloneTree(ix.Snapshot().Tree(id))
}

func cloneAll(in []*types.Task) []*types.Task {
	out := make([]*types.Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

func cloneTree(n *types.TreeNode) *types.TreeNode {
	if n == nil {
		return nil
	}
	c := &types.TreeNode{Task: n.Task.Clone(), Children: make([]*types.TreeNode, 0, len(n.Children))}
	for _, ch := range n.Children {
		c.Children = append(c.Children, cloneTree(ch))
	}
	return c
}

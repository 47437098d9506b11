// Package graph holds an immutable snapshot of the task forest with
// parent/child and dependency adjacency precomputed. Storage builds one per
// query from a directory scan; the index keeps one between rebuilds.
package graph

import (
	"slices"

	"github.com/steveyegge/taskgraph/internal/types"
)

// Graph is safe for concurrent reads. Tasks are shared, not copied; callers
// that mutate a returned task must Clone it first.
type Graph struct {
	tasks          map[string]*types.Task
	order          []string // ids in insertion order
	children       map[string][]string
	dependents     map[string][]string
	softDependents map[string][]string
}

// New builds a graph. Later duplicates of an id replace earlier ones.
func New(tasks []*types.Task) *Graph {
	g := &Graph{
		tasks:          make(map[string]*types.Task, len(tasks)),
		children:       make(map[string][]string),
		dependents:     make(map[string][]string),
		softDependents: make(map[string][]string),
	}
	for _, t := range tasks {
		if _, dup := g.tasks[t.ID]; !dup {
			g.order = append(g.order, t.ID)
		}
		g.tasks[t.ID] = t
	}
	for _, id := range g.order {
		t := g.tasks[id]
		if t.Parent != "" {
			g.children[t.Parent] = append(g.children[t.Parent], id)
		}
		for _, dep := range t.DependsOn {
			g.dependents[dep] = append(g.dependents[dep], id)
		}
		for _, dep := range t.SoftDependsOn {
			g.softDependents[dep] = append(g.softDependents[dep], id)
		}
	}
	return g
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// Get returns the task or nil.
func (g *Graph) Get(id string) *types.Task { return g.tasks[id] }

// All returns every task in listing order.
func (g *Graph) All() []*types.Task {
	out := g.resolve(g.order)
	types.SortListing(out)
	return out
}

// Filter returns the tasks matching f in listing order.
func (g *Graph) Filter(f types.Filter) []*types.Task {
	var out []*types.Task
	for _, id := range g.order {
		if t := g.tasks[id]; f.Matches(t) {
			out = append(out, t)
		}
	}
	types.SortListing(out)
	return out
}

func (g *Graph) resolve(ids []string) []*types.Task {
	out := make([]*types.Task, 0, len(ids))
	for _, id := range ids {
		if t := g.tasks[id]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// ChildCount counts direct children.
func (g *Graph) ChildCount(id string) int { return len(g.children[id]) }

// IsLeaf reports whether id has no children in this snapshot.
func (g *Graph) IsLeaf(id string) bool { return len(g.children[id]) == 0 }

// Children returns direct children sorted by order, then title.
func (g *Graph) Children(id string) []*types.Task {
	out := g.resolve(g.children[id])
	types.SortSiblings(out)
	return out
}

// Descendants returns every task below id, breadth first.
func (g *Graph) Descendants(id string) []*types.Task {
	var out []*types.Task
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range g.Children(cur) {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}
	return out
}

// Ancestors walks the parent chain, nearest first. A missing parent ends
// the walk.
func (g *Graph) Ancestors(id string) []*types.Task {
	var out []*types.Task
	seen := map[string]bool{id: true}
	t := g.tasks[id]
	for t != nil && t.Parent != "" && !seen[t.Parent] {
		seen[t.Parent] = true
		t = g.tasks[t.Parent]
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Root returns the topmost ancestor of id, id itself for roots, or nil if
// id is unknown.
func (g *Graph) Root(id string) *types.Task {
	t := g.tasks[id]
	if t == nil {
		return nil
	}
	if anc := g.Ancestors(id); len(anc) > 0 {
		return anc[len(anc)-1]
	}
	return t
}

// Roots returns tasks without a parent.
func (g *Graph) Roots() []*types.Task {
	var out []*types.Task
	for _, id := range g.order {
		if t := g.tasks[id]; t.Parent == "" {
			out = append(out, t)
		}
	}
	types.SortSiblings(out)
	return out
}

// Tree expands id and its descendants. Returns nil for unknown ids.
func (g *Graph) Tree(id string) *types.TreeNode {
	t := g.tasks[id]
	if t == nil {
		return nil
	}
	return g.tree(t, map[string]bool{})
}

func (g *Graph) tree(t *types.Task, seen map[string]bool) *types.TreeNode {
	seen[t.ID] = true
	node := &types.TreeNode{Task: t, Children: []*types.TreeNode{}}
	for _, c := range g.Children(t.ID) {
		if !seen[c.ID] {
			node.Children = append(node.Children, g.tree(c, seen))
		}
	}
	return node
}

// Dependents returns tasks whose depends_on includes id.
func (g *Graph) Dependents(id string) []*types.Task {
	return g.resolve(g.dependents[id])
}

// SoftDependents returns tasks whose soft_depends_on includes id.
func (g *Graph) SoftDependents(id string) []*types.Task {
	return g.resolve(g.softDependents[id])
}

// BlockingCount is the number of tasks that hard-depend on id.
func (g *Graph) BlockingCount(id string) int { return len(g.dependents[id]) }

// UnmetDependencies lists entries of t.DependsOn that are not done.
// Unknown ids count as unmet.
func (g *Graph) UnmetDependencies(t *types.Task) []string {
	var unmet []string
	for _, dep := range t.DependsOn {
		if d := g.tasks[dep]; d == nil || d.Status != types.StatusDone {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// IsReady applies the readiness law: leaf, ready-eligible status, and every
// hard dependency done.
func (g *Graph) IsReady(t *types.Task) bool {
	return g.IsLeaf(t.ID) && t.Status.IsReadyEligible() && len(g.UnmetDependencies(t)) == 0
}

// Ready returns ready tasks, optionally limited to a project, ordered by
// priority, order, title.
func (g *Graph) Ready(project string) []*types.Task {
	var out []*types.Task
	for _, id := range g.order {
		t := g.tasks[id]
		if project != "" && t.Project != project {
			continue
		}
		if g.IsReady(t) {
			out = append(out, t)
		}
	}
	types.SortByReadiness(out)
	return out
}

// Blocked returns non-terminal tasks with at least one unmet hard
// dependency.
func (g *Graph) Blocked() []*types.Task {
	var out []*types.Task
	for _, id := range g.order {
		t := g.tasks[id]
		if t.Status.IsTerminal() {
			continue
		}
		if len(g.UnmetDependencies(t)) > 0 {
			out = append(out, t)
		}
	}
	types.SortByReadiness(out)
	return out
}

// IsAncestor reports whether anc appears on id's parent chain.
func (g *Graph) IsAncestor(anc, id string) bool {
	return slices.ContainsFunc(g.Ancestors(id), func(t *types.Task) bool { return t.ID == anc })
}

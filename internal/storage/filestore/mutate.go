package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/idgen"
	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/taskfile"
	"github.com/steveyegge/taskgraph/internal/types"
)

// Save implements storage.Storage.
func (s *Store) Save(ctx context.Context, t *types.Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return s.save(g, t)
}

// save writes t against snapshot g and repairs derived fields around it.
// Derived-only rewrites of other tasks do not bump their modified time.
func (s *Store) save(g *graph.Graph, t *types.Task) (string, error) {
	t.SetDefaults()
	t.Body = taskfile.NormalizeBody(t.Body)
	if err := ValidateProject(t.Project); err != nil {
		return "", err
	}
	if err := t.Validate(); err != nil {
		return "", err
	}

	old := g.Get(t.ID)
	// Created is stored at second precision.
	if old != nil && !t.Created.IsZero() && !old.Created.Equal(t.Created.Truncate(time.Second)) {
		return "", fmt.Errorf("%w: task id %s is already taken by %q (created %s)",
			storage.ErrValidation, t.ID, old.Title, old.Created.UTC().Format(time.RFC3339))
	}

	now := s.timestamp()
	if t.Created.IsZero() {
		t.Created = now
	}
	t.Modified = now

	parent := g.Get(t.Parent)
	if parent != nil {
		if g.IsAncestor(t.ID, parent.ID) {
			return "", fmt.Errorf("%w: moving %s under %s would create a cycle", storage.ErrValidation, t.ID, parent.ID)
		}
		t.Depth = parent.Depth + 1
	} else if t.Parent == "" {
		t.Depth = 0
	}
	t.Leaf = g.IsLeaf(t.ID)

	if err := s.writeTask(t); err != nil {
		return "", err
	}
	path := s.pathFor(t)

	if old != nil {
		if oldPath := s.pathFor(old); oldPath != path {
			if err := os.Remove(oldPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return path, fmt.Errorf("remove stale %s: %w", oldPath, err)
			}
		}
	}

	if parent != nil && parent.Leaf {
		p := parent.Clone()
		p.Leaf = false
		if err := s.writeTask(p); err != nil {
			return path, err
		}
	}

	if old != nil && old.Parent != t.Parent {
		if prev := g.Get(old.Parent); prev != nil && !prev.Leaf && g.ChildCount(prev.ID) == 1 {
			p := prev.Clone()
			p.Leaf = true
			if err := s.writeTask(p); err != nil {
				return path, err
			}
		}
	}

	if old != nil && old.Depth != t.Depth {
		if err := s.redepth(g, t); err != nil {
			return path, err
		}
	}
	return path, nil
}

// redepth rewrites the depth of every descendant of t.
func (s *Store) redepth(g *graph.Graph, t *types.Task) error {
	depths := map[string]int{t.ID: t.Depth}
	for _, d := range g.Descendants(t.ID) {
		want := depths[d.Parent] + 1
		depths[d.ID] = want
		if d.Depth == want {
			continue
		}
		c := d.Clone()
		c.Depth = want
		if err := s.writeTask(c); err != nil {
			return err
		}
	}
	return nil
}

// Reparent implements storage.Storage. An empty newParent makes id a root.
func (s *Store) Reparent(ctx context.Context, id, newParent string) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	cur := g.Get(id)
	if cur == nil {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	if newParent != "" && g.Get(newParent) == nil {
		return nil, fmt.Errorf("%w: parent task %s", storage.ErrNotFound, newParent)
	}
	if newParent == id {
		return nil, fmt.Errorf("%w: task %s cannot be its own parent", storage.ErrValidation, id)
	}
	t := cur.Clone()
	t.Parent = newParent
	if _, err := s.save(g, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Reorder implements storage.Storage. Listed children take orders 0..n-1;
// unlisted children follow in their existing relative order.
func (s *Store) Reorder(ctx context.Context, parentID string, orderedIDs []string) ([]*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if g.Get(parentID) == nil {
		return nil, fmt.Errorf("%w: parent task %s", storage.ErrNotFound, parentID)
	}
	children := g.Children(parentID)
	byID := make(map[string]*types.Task, len(children))
	for _, c := range children {
		byID[c.ID] = c
	}

	var sequence []*types.Task
	seen := map[string]bool{}
	for _, id := range orderedIDs {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a child of %s", storage.ErrValidation, id, parentID)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s listed twice", storage.ErrValidation, id)
		}
		seen[id] = true
		sequence = append(sequence, c)
	}
	for _, c := range children {
		if !seen[c.ID] {
			sequence = append(sequence, c)
		}
	}

	now := s.timestamp()
	out := make([]*types.Task, 0, len(sequence))
	for i, c := range sequence {
		if c.Order == i {
			out = append(out, c)
			continue
		}
		u := c.Clone()
		u.Order = i
		u.Modified = now
		if err := s.writeTask(u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// Decompose implements storage.Storage. The batch is validated in full
// before anything is written. A depends_on entry may be an existing task
// id or the title of another spec in the same batch.
func (s *Store) Decompose(ctx context.Context, parentID string, specs []types.ChildSpec) ([]*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	parent := g.Get(parentID)
	if parent == nil {
		return nil, fmt.Errorf("%w: parent task %s", storage.ErrNotFound, parentID)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: decomposition of %s needs at least one child", storage.ErrValidation, parentID)
	}

	now := s.timestamp()
	existing := g.ChildCount(parentID)
	batch := make([]*types.Task, 0, len(specs))
	byTitle := map[string]string{}
	taken := map[string]bool{}

	for i, spec := range specs {
		title := strings.TrimSpace(spec.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: child %d: title is required", storage.ErrValidation, i)
		}
		t := &types.Task{
			Title:         title,
			Type:          types.TypeAction,
			Status:        types.StatusInbox,
			Project:       parent.Project,
			Parent:        parent.ID,
			SoftDependsOn: spec.SoftDependsOn,
			Tags:          spec.Tags,
			Priority:      parent.Priority,
			Created:       now,
			Modified:      now,
			Depth:         parent.Depth + 1,
			Order:         existing + i,
			Leaf:          true,
			Body:          taskfile.NormalizeBody(spec.Body),
		}
		if spec.Type != "" {
			if t.Type, err = types.ParseType(string(spec.Type)); err != nil {
				return nil, fmt.Errorf("child %d (%s): %w", i, title, err)
			}
		}
		if spec.Project != "" {
			t.Project = spec.Project
		}
		if spec.Priority != nil {
			t.Priority = *spec.Priority
		}
		if spec.Order != nil {
			t.Order = *spec.Order
		}
		if err := ValidateProject(t.Project); err != nil {
			return nil, fmt.Errorf("child %d (%s): %w", i, title, err)
		}

		t.ID, err = idgen.Generate(title, t.Project, now, s.idLength, func(id string) bool {
			return taken[id] || g.Get(id) != nil
		})
		if err != nil {
			return nil, err
		}
		taken[t.ID] = true
		if _, dup := byTitle[title]; !dup {
			byTitle[title] = t.ID
		}
		batch = append(batch, t)
	}

	for i, spec := range specs {
		t := batch[i]
		for _, dep := range spec.DependsOn {
			dep = strings.TrimSpace(dep)
			switch {
			case dep == "":
				continue
			case taken[dep] || g.Get(dep) != nil:
			case byTitle[dep] != "":
				dep = byTitle[dep]
			default:
				return nil, fmt.Errorf("%w: child %d (%s): unknown dependency %q", storage.ErrValidation, i, t.Title, dep)
			}
			if dep == t.ID {
				return nil, fmt.Errorf("%w: child %d (%s) depends on itself", storage.ErrValidation, i, t.Title)
			}
			if !slices.Contains(t.DependsOn, dep) {
				t.DependsOn = append(t.DependsOn, dep)
			}
		}
		t.SetDefaults()
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
	}

	for _, t := range batch {
		if err := s.writeTask(t); err != nil {
			return nil, err
		}
	}
	if parent.Leaf {
		p := parent.Clone()
		p.Leaf = false
		p.Modified = now
		if err := s.writeTask(p); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

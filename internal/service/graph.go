package service

import (
	"context"
	"fmt"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/topology"
)

// RebuildIndex rescans storage into the per-process index. Topology
// queries read the index and see nothing newer than the last rebuild.
func (s *Service) RebuildIndex(ctx context.Context) *Result {
	if err := s.index.Rebuild(ctx); err != nil {
		return fail(err)
	}
	n := s.index.Len()
	s.event("index.rebuilt", "", fmt.Sprintf("tasks=%d", n))
	s.logger.Debug("index rebuilt", "tasks", n)
	return &Result{Success: true, Message: fmt.Sprintf("indexed %d tasks", n), Count: &n}
}

// snapshot returns the index graph, building it on first use. Later calls
// never refresh it implicitly.
func (s *Service) snapshot(ctx context.Context) (*graph.Graph, error) {
	if s.index.BuiltAt().IsZero() {
		if err := s.index.Rebuild(ctx); err != nil {
			return nil, err
		}
	}
	return s.index.Snapshot(), nil
}

// Topology returns per-task topology from the index.
func (s *Service) Topology(ctx context.Context, f topology.Filter) *Result {
	g, err := s.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	tops := s.analyzer.Topology(g, f)
	if tops == nil {
		tops = []topology.TaskTopology{}
	}
	n := len(tops)
	return &Result{Success: true, Stats: tops, Count: &n}
}

// Metrics aggregates the index over scope ("all", "project:<name>" or a
// task id).
func (s *Service) Metrics(ctx context.Context, scope string) *Result {
	sc, err := topology.ParseScope(scope)
	if err != nil {
		return fail(err)
	}
	g, err := s.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	if sc.Kind == topology.ScopeSubtree && g.Get(sc.ID) == nil {
		return fail(fmt.Errorf("%w: task %s", storage.ErrNotFound, sc.ID))
	}
	return &Result{Success: true, Stats: s.analyzer.Metrics(g, sc)}
}

// Snapshot produces a review snapshot over the last sinceDays days.
func (s *Service) Snapshot(ctx context.Context, sinceDays int) *Result {
	g, err := s.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	return &Result{Success: true, Stats: s.analyzer.Snapshot(g, sinceDays)}
}

// ScoringFactors returns raw prioritization inputs for candidate tasks.
func (s *Service) ScoringFactors(ctx context.Context, opts topology.ScoringOptions) *Result {
	g, err := s.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	fs := s.analyzer.ScoringFactors(g, opts)
	n := len(fs)
	return &Result{Success: true, Stats: fs, Count: &n}
}

// Neighborhood returns everything adjacent to id.
func (s *Service) Neighborhood(ctx context.Context, id string) *Result {
	g, err := s.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	n := s.analyzer.Neighborhood(g, id)
	if n == nil {
		return fail(fmt.Errorf("%w: task %s", storage.ErrNotFound, id))
	}
	return &Result{Success: true, Task: n.Task, Stats: n}
}

// DecompositionContext returns what a caller needs to split id.
func (s *Service) DecompositionContext(ctx context.Context, id string) *Result {
	g, err := s.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	dc := s.analyzer.DecompositionContext(g, id)
	if dc == nil {
		return fail(fmt.Errorf("%w: task %s", storage.ErrNotFound, id))
	}
	return &Result{Success: true, Task: dc.Task, Stats: dc}
}

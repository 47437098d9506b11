package topology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/types"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * day) }

type spec struct {
	id, parent, project string
	status              types.Status
	deps, soft          []string
	created, modified   int // days ago
}

func build(specs ...spec) *graph.Graph {
	var tasks []*types.Task
	for i, s := range specs {
		tasks = append(tasks, &types.Task{
			ID:            s.id,
			Title:         s.id,
			Type:          types.TypeTask,
			Status:        s.status,
			Parent:        s.parent,
			Project:       s.project,
			DependsOn:     s.deps,
			SoftDependsOn: s.soft,
			Created:       daysAgo(s.created),
			Modified:      daysAgo(s.modified),
			Order:         i,
		})
	}
	// Depth is normally maintained by storage.
	g := graph.New(tasks)
	for _, t := range tasks {
		t.Depth = len(g.Ancestors(t.ID))
	}
	return g
}

// fixture:
//
//	goal (active)
//	  ├─ a (done, 3d ago)
//	  ├─ b (inbox, deps a)       ready since a finished
//	  └─ c (blocked, deps b)
//	solo (inbox, no parent, no deps)
func fixture() *graph.Graph {
	return build(
		spec{id: "goal", project: "p", status: types.StatusActive, created: 20, modified: 20},
		spec{id: "a", parent: "goal", project: "p", status: types.StatusDone, created: 10, modified: 3},
		spec{id: "b", parent: "goal", project: "p", status: types.StatusInbox, deps: []string{"a"}, created: 10, modified: 10},
		spec{id: "c", parent: "goal", project: "p", status: types.StatusBlocked, deps: []string{"b"}, created: 9, modified: 9},
		spec{id: "solo", status: types.StatusInbox, created: 5, modified: 0},
	)
}

func newAnalyzer(opts ...Option) *Analyzer {
	return New(append([]Option{WithClock(func() time.Time { return now })}, opts...)...)
}

func find(tops []TaskTopology, id string) *TaskTopology {
	for i := range tops {
		if tops[i].ID == id {
			return &tops[i]
		}
	}
	return nil
}

func TestTopology(t *testing.T) {
	a := newAnalyzer()
	tops := a.Topology(fixture(), Filter{})
	require.Len(t, tops, 5)

	goal := find(tops, "goal")
	assert.Equal(t, 3, goal.ChildCount)
	assert.False(t, goal.IsLeaf)
	assert.Nil(t, goal.ReadyDays, "parents are never ready")

	b := find(tops, "b")
	assert.Equal(t, 1, b.Depth)
	assert.Equal(t, 1, b.BlockingCount)
	assert.Equal(t, 0, b.BlockedByCount)
	require.NotNil(t, b.ReadyDays)
	assert.Equal(t, 3, *b.ReadyDays, "ready since dependency completed")

	c := find(tops, "c")
	assert.Equal(t, 1, c.BlockedByCount)
	assert.Nil(t, c.ReadyDays)

	solo := find(tops, "solo")
	require.NotNil(t, solo.ReadyDays)
	assert.Equal(t, 5, *solo.ReadyDays, "no deps: ready since creation")
}

func TestTopologyFilter(t *testing.T) {
	a := newAnalyzer()
	g := fixture()

	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"project", Filter{Project: "p"}, []string{"goal", "a", "b", "c"}},
		{"status", Filter{Status: types.StatusInbox}, []string{"b", "solo"}},
		{"min depth", Filter{MinDepth: 1}, []string{"a", "b", "c"}},
		{"min blocking", Filter{MinBlockingCount: 1}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tp := range a.Topology(g, tt.f) {
				got = append(got, tp.ID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", Scope{Kind: ScopeAll}, false},
		{"all", Scope{Kind: ScopeAll}, false},
		{"project:compiler", Scope{Kind: ScopeProject, ID: "compiler"}, false},
		{"20260105-abc123", Scope{Kind: ScopeSubtree, ID: "20260105-abc123"}, false},
		{"project:", Scope{}, true},
		{"bad id!", Scope{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetrics(t *testing.T) {
	a := newAnalyzer()
	g := fixture()

	m := a.Metrics(g, Scope{Kind: ScopeAll})
	assert.Equal(t, 5, m.TotalTasks)
	assert.Equal(t, 2, m.TasksByStatus[types.StatusInbox])
	assert.Equal(t, 5, m.TasksByType[types.TypeTask])
	assert.Equal(t, 2, m.RootCount)
	assert.Equal(t, 2, m.OrphanCount)
	assert.Equal(t, 4, m.LeafCount)
	assert.Equal(t, 1, m.MaxDepth)
	assert.InDelta(t, 0.6, m.AvgDepth, 1e-9)

	assert.Equal(t, 2, m.Dependencies.TotalEdges)
	assert.Equal(t, 1, m.Dependencies.MaxInDegree)
	assert.Equal(t, 1, m.Dependencies.MaxOutDegree)
	assert.Len(t, m.Dependencies.HighOutDegree, 2)

	assert.Equal(t, ReadinessStats{Ready: 2, Blocked: 1}, m.Readiness)

	sub := a.Metrics(g, Scope{Kind: ScopeSubtree, ID: "goal"})
	assert.Equal(t, 4, sub.TotalTasks)
	proj := a.Metrics(g, Scope{Kind: ScopeProject, ID: "nope"})
	assert.Equal(t, 0, proj.TotalTasks)
	assert.NotNil(t, proj.Dependencies.HighOutDegree)
}

func TestMetricsOutDegreeThreshold(t *testing.T) {
	specs := []spec{{id: "hub", status: types.StatusActive}}
	for _, id := range []string{"x1", "x2", "x3"} {
		specs = append(specs, spec{id: id, status: types.StatusBlocked, deps: []string{"hub"}})
	}
	specs = append(specs, spec{id: "y", status: types.StatusBlocked, deps: []string{"x1"}})
	g := build(specs...)

	m := newAnalyzer(WithOutDegreeThreshold(1)).Metrics(g, Scope{Kind: ScopeAll})
	require.Len(t, m.Dependencies.HighOutDegree, 1)
	assert.Equal(t, DegreeEntry{ID: "hub", Title: "hub", OutDegree: 3}, m.Dependencies.HighOutDegree[0])

	m = newAnalyzer().Metrics(g, Scope{Kind: ScopeAll})
	require.Len(t, m.Dependencies.HighOutDegree, 2)
	assert.Equal(t, "hub", m.Dependencies.HighOutDegree[0].ID, "sorted by out-degree")
}

package topology

import (
	"cmp"
	"slices"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/types"
)

// Metrics aggregates a set of tasks.
type Metrics struct {
	Scope         Scope                  `json:"scope"`
	TotalTasks    int                    `json:"total_tasks"`
	TasksByStatus map[types.Status]int   `json:"tasks_by_status"`
	TasksByType   map[types.TaskType]int `json:"tasks_by_type"`
	OrphanCount   int                    `json:"orphan_count"`
	RootCount     int                    `json:"root_count"`
	LeafCount     int                    `json:"leaf_count"`
	MaxDepth      int                    `json:"max_depth"`
	AvgDepth      float64                `json:"avg_depth"`
	Dependencies  DependencyStats        `json:"dependency_stats"`
	Readiness     ReadinessStats         `json:"readiness_stats"`
}

// DependencyStats summarizes hard dependency edges. Out-degree counts the
// tasks that depend on a task; in-degree counts its own dependencies.
type DependencyStats struct {
	TotalEdges    int           `json:"total_edges"`
	MaxInDegree   int           `json:"max_in_degree"`
	MaxOutDegree  int           `json:"max_out_degree"`
	HighOutDegree []DegreeEntry `json:"tasks_with_high_out_degree"`
}

// DegreeEntry names a task with a notable out-degree.
type DegreeEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	OutDegree int    `json:"out_degree"`
}

// ReadinessStats counts work states.
type ReadinessStats struct {
	Ready      int `json:"ready_count"`
	Blocked    int `json:"blocked_count"`
	InProgress int `json:"in_progress_count"`
}

// Metrics aggregates the tasks selected by scope.
func (a *Analyzer) Metrics(g *graph.Graph, scope Scope) Metrics {
	tasks := scope.Select(g)
	m := Metrics{
		Scope:         scope,
		TotalTasks:    len(tasks),
		TasksByStatus: make(map[types.Status]int),
		TasksByType:   make(map[types.TaskType]int),
		Dependencies:  DependencyStats{HighOutDegree: []DegreeEntry{}},
	}

	totalDepth := 0
	var high []DegreeEntry
	for _, t := range tasks {
		m.TasksByStatus[t.Status]++
		m.TasksByType[t.Type]++
		if t.Parent == "" {
			m.RootCount++
			if len(t.DependsOn) == 0 {
				m.OrphanCount++
			}
		}
		if g.IsLeaf(t.ID) {
			m.LeafCount++
		}
		m.MaxDepth = max(m.MaxDepth, t.Depth)
		totalDepth += t.Depth

		out := g.BlockingCount(t.ID)
		m.Dependencies.TotalEdges += out
		m.Dependencies.MaxOutDegree = max(m.Dependencies.MaxOutDegree, out)
		m.Dependencies.MaxInDegree = max(m.Dependencies.MaxInDegree, len(t.DependsOn))
		if out > a.outDegreeThreshold {
			high = append(high, DegreeEntry{ID: t.ID, Title: t.Title, OutDegree: out})
		}

		switch {
		case t.Status == types.StatusInProgress:
			m.Readiness.InProgress++
		case g.IsReady(t):
			m.Readiness.Ready++
		case !t.Status.IsTerminal() && len(g.UnmetDependencies(t)) > 0:
			m.Readiness.Blocked++
		}
	}
	if len(tasks) > 0 {
		m.AvgDepth = float64(totalDepth) / float64(len(tasks))
	}

	slices.SortStableFunc(high, func(x, y DegreeEntry) int {
		return cmp.Or(cmp.Compare(y.OutDegree, x.OutDegree), cmp.Compare(x.ID, y.ID))
	})
	if len(high) > a.topN {
		high = high[:a.topN]
	}
	if high != nil {
		m.Dependencies.HighOutDegree = high
	}
	return m
}

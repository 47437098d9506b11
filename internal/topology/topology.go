// Package topology derives per-task topology, aggregate graph metrics,
// review snapshots and agent-facing context bundles from a graph snapshot.
// Nothing here touches storage; callers pass the index's current graph.
package topology

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/types"
)

const day = 24 * time.Hour

// DefaultTopN caps the high out-degree list.
const DefaultTopN = 10

// Analyzer computes topology views. The zero value is not usable; use New.
type Analyzer struct {
	now                func() time.Time
	outDegreeThreshold int
	topN               int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(a *Analyzer) { a.now = now } }

// WithOutDegreeThreshold lists tasks whose out-degree exceeds n.
func WithOutDegreeThreshold(n int) Option {
	return func(a *Analyzer) { a.outDegreeThreshold = n }
}

// New returns an Analyzer with a zero out-degree threshold.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{now: time.Now, topN: DefaultTopN}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TaskTopology is one task's position in the graph.
type TaskTopology struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Type           types.TaskType `json:"type"`
	Status         types.Status   `json:"status"`
	Project        string         `json:"project,omitempty"`
	Parent         string         `json:"parent,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Depth          int            `json:"depth"`
	IsLeaf         bool           `json:"is_leaf"`
	ChildCount     int            `json:"child_count"`
	BlockingCount  int            `json:"blocking_count"`
	BlockedByCount int            `json:"blocked_by_count"`
	Created        time.Time      `json:"created"`
	Modified       time.Time      `json:"modified"`

	// ReadyDays is whole days since the task became ready; nil unless ready.
	ReadyDays *int `json:"ready_days"`
}

// Filter narrows Topology results. Zero values match everything.
type Filter struct {
	Project          string
	Status           types.Status
	MinDepth         int
	MinBlockingCount int
}

// Topology computes TaskTopology for every task in g passing f.
func (a *Analyzer) Topology(g *graph.Graph, f Filter) []TaskTopology {
	var out []TaskTopology
	for _, t := range g.All() {
		if f.Project != "" && t.Project != f.Project {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if t.Depth < f.MinDepth || g.BlockingCount(t.ID) < f.MinBlockingCount {
			continue
		}
		out = append(out, a.Of(g, t))
	}
	return out
}

// Of computes topology for a single task.
func (a *Analyzer) Of(g *graph.Graph, t *types.Task) TaskTopology {
	tt := TaskTopology{
		ID:             t.ID,
		Title:          t.Title,
		Type:           t.Type,
		Status:         t.Status,
		Project:        t.Project,
		Parent:         t.Parent,
		Tags:           t.Tags,
		Depth:          t.Depth,
		IsLeaf:         g.IsLeaf(t.ID),
		ChildCount:     g.ChildCount(t.ID),
		BlockingCount:  g.BlockingCount(t.ID),
		BlockedByCount: len(g.UnmetDependencies(t)),
		Created:        t.Created,
		Modified:       t.Modified,
	}
	if since, ok := ReadySince(g, t); ok {
		d := daysBetween(since, a.now())
		tt.ReadyDays = &d
	}
	return tt
}

// ReadySince estimates when t became ready: the later of its creation and
// the last modification of any hard dependency. ok is false if t is not
// ready now.
func ReadySince(g *graph.Graph, t *types.Task) (time.Time, bool) {
	if !g.IsReady(t) {
		return time.Time{}, false
	}
	since := t.Created
	for _, id := range t.DependsOn {
		if d := g.Get(id); d != nil && d.Modified.After(since) {
			since = d.Modified
		}
	}
	return since, true
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / day)
}

// ScopeKind selects which tasks an aggregate covers.
type ScopeKind string

const (
	ScopeAll     ScopeKind = "all"
	ScopeProject ScopeKind = "project"
	ScopeSubtree ScopeKind = "subtree"
)

// Scope is a parsed metrics scope.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id,omitempty"` // project name or subtree root id
}

// ParseScope accepts "all" (or ""), "project:<name>", or a task id for
// that task's subtree.
func ParseScope(s string) (Scope, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == string(ScopeAll):
		return Scope{Kind: ScopeAll}, nil
	case strings.HasPrefix(s, "project:"):
		name := strings.TrimPrefix(s, "project:")
		if name == "" {
			return Scope{}, fmt.Errorf("%w: project scope needs a name", types.ErrValidation)
		}
		return Scope{Kind: ScopeProject, ID: name}, nil
	case types.ValidID(s):
		return Scope{Kind: ScopeSubtree, ID: s}, nil
	}
	return Scope{}, fmt.Errorf("%w: invalid scope %q", types.ErrValidation, s)
}

// Select returns the tasks in scope. A subtree scope includes its root.
func (sc Scope) Select(g *graph.Graph) []*types.Task {
	switch sc.Kind {
	case ScopeProject:
		return g.Filter(types.Filter{Project: sc.ID})
	case ScopeSubtree:
		root := g.Get(sc.ID)
		if root == nil {
			return nil
		}
		return append([]*types.Task{root}, g.Descendants(sc.ID)...)
	default:
		return g.All()
	}
}

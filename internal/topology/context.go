package topology

import (
	"strings"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/types"
)

// DefaultScoringLimit caps ScoringFactors output.
const DefaultScoringLimit = 50

// Factors are the raw signals an agent weighs when choosing work. No score
// is computed here.
type Factors struct {
	ID                    string         `json:"id"`
	Title                 string         `json:"title"`
	Type                  types.TaskType `json:"type"`
	Status                types.Status   `json:"status"`
	Priority              int            `json:"priority"`
	Project               string         `json:"project,omitempty"`
	Tags                  []string       `json:"tags,omitempty"`
	CreatedAgeDays        int            `json:"created_age_days"`
	ModifiedAgeDays       int            `json:"modified_age_days"`
	BlockingCount         int            `json:"blocking_count"`
	BlockedByCount        int            `json:"blocked_by_count"`
	SoftBlockingCount     int            `json:"soft_blocking_count"`
	ChildCount            int            `json:"child_count"`
	ParentChainLength     int            `json:"parent_chain_length"`
	BodyLength            int            `json:"body_length"`
	HasAcceptanceCriteria bool           `json:"has_acceptance_criteria"`
}

// ScoringOptions selects candidates for ScoringFactors.
type ScoringOptions struct {
	ReadyOnly   bool
	IncludeDone bool
	Limit       int
}

// DefaultScoringOptions returns ready-only, done-excluded, limit 50.
func DefaultScoringOptions() ScoringOptions {
	return ScoringOptions{ReadyOnly: true, Limit: DefaultScoringLimit}
}

// ScoringFactors returns Factors for candidate tasks in readiness order.
func (a *Analyzer) ScoringFactors(g *graph.Graph, opts ScoringOptions) []Factors {
	if opts.Limit <= 0 {
		opts.Limit = DefaultScoringLimit
	}
	var candidates []*types.Task
	for _, t := range g.All() {
		if opts.ReadyOnly && !g.IsReady(t) {
			continue
		}
		if !opts.IncludeDone && t.Status.IsTerminal() {
			continue
		}
		candidates = append(candidates, t)
	}
	types.SortByReadiness(candidates)
	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	now := a.now()
	out := make([]Factors, 0, len(candidates))
	for _, t := range candidates {
		out = append(out, Factors{
			ID:                    t.ID,
			Title:                 t.Title,
			Type:                  t.Type,
			Status:                t.Status,
			Priority:              t.Priority,
			Project:               t.Project,
			Tags:                  t.Tags,
			CreatedAgeDays:        daysBetween(t.Created, now),
			ModifiedAgeDays:       daysBetween(t.Modified, now),
			BlockingCount:         g.BlockingCount(t.ID),
			BlockedByCount:        len(g.UnmetDependencies(t)),
			SoftBlockingCount:     len(g.SoftDependents(t.ID)),
			ChildCount:            g.ChildCount(t.ID),
			ParentChainLength:     len(g.Ancestors(t.ID)),
			BodyLength:            len(t.Body),
			HasAcceptanceCriteria: hasAcceptanceCriteria(t.Body),
		})
	}
	return out
}

func hasAcceptanceCriteria(body string) bool {
	return strings.Contains(strings.ToLower(body), "acceptance") || strings.Contains(body, "[ ]")
}

// Neighborhood is everything adjacent to one task, for relationship
// discovery.
type Neighborhood struct {
	Task        *types.Task   `json:"task"`
	Parent      *types.Task   `json:"parent"`
	Children    []*types.Task `json:"children"`
	DependsOn   []*types.Task `json:"depends_on"`
	Blocks      []*types.Task `json:"blocks"`
	SoftBlocks  []*types.Task `json:"soft_blocks"`
	SameProject []*types.Task `json:"same_project_tasks"`
	Orphans     []*types.Task `json:"orphan_tasks"`
}

// Neighborhood returns the neighborhood of id, or nil if it is unknown.
// SameProject excludes the task and its direct relations; Orphans are
// other open roots with no dependencies.
func (a *Analyzer) Neighborhood(g *graph.Graph, id string) *Neighborhood {
	t := g.Get(id)
	if t == nil {
		return nil
	}
	n := &Neighborhood{
		Task:        t,
		Children:    g.Children(id),
		Blocks:      g.Dependents(id),
		SoftBlocks:  g.SoftDependents(id),
		DependsOn:   []*types.Task{},
		SameProject: []*types.Task{},
		Orphans:     []*types.Task{},
	}
	if t.Parent != "" {
		n.Parent = g.Get(t.Parent)
	}
	for _, dep := range t.DependsOn {
		if d := g.Get(dep); d != nil {
			n.DependsOn = append(n.DependsOn, d)
		}
	}

	related := map[string]bool{id: true, t.Parent: true}
	for _, group := range [][]*types.Task{n.Children, n.DependsOn, n.Blocks, n.SoftBlocks} {
		for _, r := range group {
			related[r.ID] = true
		}
	}
	for _, o := range g.All() {
		if related[o.ID] || o.Status.IsTerminal() {
			continue
		}
		if t.Project != "" && o.Project == t.Project {
			n.SameProject = append(n.SameProject, o)
		}
		if o.Parent == "" && len(o.DependsOn) == 0 && o.ID != id {
			n.Orphans = append(n.Orphans, o)
		}
	}
	return n
}

// DecompositionContext is what an agent needs to split a task into
// children without duplicating existing work.
type DecompositionContext struct {
	Task             *types.Task   `json:"task"`
	ExistingChildren []*types.Task `json:"existing_children"`
	Parent           *types.Task   `json:"parent"`
	Siblings         []*types.Task `json:"siblings"`
	Project          string        `json:"project,omitempty"`
	ProjectTasks     []*types.Task `json:"project_tasks"`
}

// DecompositionContext returns the context for id, or nil if unknown.
// ProjectTasks lists open tasks in the same project outside this subtree.
func (a *Analyzer) DecompositionContext(g *graph.Graph, id string) *DecompositionContext {
	t := g.Get(id)
	if t == nil {
		return nil
	}
	dc := &DecompositionContext{
		Task:             t,
		ExistingChildren: g.Children(id),
		Siblings:         []*types.Task{},
		Project:          t.Project,
		ProjectTasks:     []*types.Task{},
	}
	if t.Parent != "" {
		dc.Parent = g.Get(t.Parent)
		for _, s := range g.Children(t.Parent) {
			if s.ID != id {
				dc.Siblings = append(dc.Siblings, s)
			}
		}
	}
	if t.Project != "" {
		for _, o := range g.Filter(types.Filter{Project: t.Project}) {
			if o.ID == id || o.Status.IsTerminal() || g.IsAncestor(id, o.ID) {
				continue
			}
			dc.ProjectTasks = append(dc.ProjectTasks, o)
		}
	}
	return dc
}

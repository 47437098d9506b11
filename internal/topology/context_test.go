package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/types"
)

func idsOf(tasks []*types.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestScoringFactors(t *testing.T) {
	g := fixture()
	g.Get("b").Body = "## Acceptance\n\nParser handles nested blocks."
	g.Get("b").Priority = 1
	g.Get("solo").Priority = 3

	a := newAnalyzer()
	fs := a.ScoringFactors(g, DefaultScoringOptions())
	require.Len(t, fs, 2)
	assert.Equal(t, "b", fs[0].ID, "higher priority first")

	b := fs[0]
	assert.Equal(t, 10, b.CreatedAgeDays)
	assert.Equal(t, 1, b.BlockingCount)
	assert.Equal(t, 1, b.ParentChainLength)
	assert.True(t, b.HasAcceptanceCriteria)
	assert.Equal(t, len(g.Get("b").Body), b.BodyLength)
	assert.False(t, fs[1].HasAcceptanceCriteria)

	all := a.ScoringFactors(g, ScoringOptions{IncludeDone: true})
	assert.Len(t, all, 5)
	open := a.ScoringFactors(g, ScoringOptions{Limit: 2})
	assert.Len(t, open, 2)
}

func TestNeighborhood(t *testing.T) {
	g := build(
		spec{id: "goal", project: "p", status: types.StatusActive},
		spec{id: "a", parent: "goal", project: "p", status: types.StatusActive},
		spec{id: "b", parent: "goal", project: "p", status: types.StatusInbox, deps: []string{"a"}},
		spec{id: "peer", project: "p", status: types.StatusInbox, soft: []string{"a"}},
		spec{id: "loose", status: types.StatusInbox},
		spec{id: "gone", status: types.StatusDone},
	)

	n := newAnalyzer().Neighborhood(g, "a")
	require.NotNil(t, n)
	assert.Equal(t, "goal", n.Parent.ID)
	assert.Empty(t, n.Children)
	assert.Equal(t, []string{"b"}, idsOf(n.Blocks))
	assert.Equal(t, []string{"peer"}, idsOf(n.SoftBlocks))
	assert.Empty(t, n.SameProject, "relations are excluded")
	assert.ElementsMatch(t, []string{"loose"}, idsOf(n.Orphans))

	assert.Nil(t, newAnalyzer().Neighborhood(g, "missing"))
}

func TestDecompositionContext(t *testing.T) {
	g := build(
		spec{id: "goal", project: "p", status: types.StatusActive},
		spec{id: "c1", parent: "goal", project: "p", status: types.StatusActive},
		spec{id: "s1", parent: "c1", project: "p", status: types.StatusInbox},
		spec{id: "c2", parent: "goal", project: "p", status: types.StatusInbox},
		spec{id: "other", project: "p", status: types.StatusInbox},
		spec{id: "shipped", project: "p", status: types.StatusDone},
	)

	dc := newAnalyzer().DecompositionContext(g, "c1")
	require.NotNil(t, dc)
	assert.Equal(t, []string{"s1"}, idsOf(dc.ExistingChildren))
	assert.Equal(t, "goal", dc.Parent.ID)
	assert.Equal(t, []string{"c2"}, idsOf(dc.Siblings))
	assert.Equal(t, "p", dc.Project)
	assert.ElementsMatch(t, []string{"goal", "c2", "other"}, idsOf(dc.ProjectTasks))

	assert.Nil(t, newAnalyzer().DecompositionContext(g, "missing"))
}

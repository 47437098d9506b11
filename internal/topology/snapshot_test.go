package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/types"
)

func TestSnapshot(t *testing.T) {
	g := build(
		spec{id: "new", status: types.StatusInbox, created: 0, modified: 0},
		spec{id: "finished", status: types.StatusDone, created: 30, modified: 0},
		spec{id: "dropped", status: types.StatusCancelled, created: 30, modified: 5},
		spec{id: "touched", status: types.StatusBlocked, created: 30, modified: 0},
		spec{id: "working", status: types.StatusInProgress, created: 30, modified: 4},
		spec{id: "old", status: types.StatusInbox, created: 12, modified: 12},
	)

	s := newAnalyzer().Snapshot(g, 0)
	assert.Equal(t, DefaultSinceDays, s.SinceDays)
	assert.Equal(t, now, s.Timestamp)
	assert.Equal(t, 6, s.Metrics.TotalTasks)

	assert.Equal(t, []string{"new"}, s.ChangesSince.Created)
	assert.Equal(t, []string{"finished"}, s.ChangesSince.Completed)
	assert.ElementsMatch(t, []string{"new", "finished", "touched"}, s.ChangesSince.Modified)

	require.NotNil(t, s.Staleness.OldestReady)
	assert.Equal(t, "old", s.Staleness.OldestReady.ID)
	assert.Equal(t, 12, s.Staleness.OldestReady.Days)
	require.NotNil(t, s.Staleness.OldestInProgress)
	assert.Equal(t, StaleTask{ID: "working", Title: "working", Days: 4}, *s.Staleness.OldestInProgress)

	assert.Equal(t, Velocity{CompletedLast7Days: 2, CreatedLast7Days: 1}, s.Velocity)

	wide := newAnalyzer().Snapshot(g, 7)
	assert.ElementsMatch(t, []string{"finished", "dropped"}, wide.ChangesSince.Completed)
	assert.ElementsMatch(t, []string{"new", "finished", "dropped", "touched", "working"}, wide.ChangesSince.Modified)
}

func TestSnapshotListsOverlap(t *testing.T) {
	g := build(spec{id: "quick", status: types.StatusDone, created: 0, modified: 0})

	s := newAnalyzer().Snapshot(g, 1)
	assert.Equal(t, []string{"quick"}, s.ChangesSince.Created)
	assert.Equal(t, []string{"quick"}, s.ChangesSince.Completed)
	assert.Equal(t, []string{"quick"}, s.ChangesSince.Modified)
	assert.Equal(t, Velocity{CompletedLast7Days: 1, CreatedLast7Days: 1}, s.Velocity)
}

func TestSnapshotEmpty(t *testing.T) {
	s := newAnalyzer().Snapshot(build(), 3)
	assert.Empty(t, s.ChangesSince.Created)
	assert.NotNil(t, s.ChangesSince.Created)
	assert.Nil(t, s.Staleness.OldestReady)
	assert.Nil(t, s.Staleness.OldestInProgress)
}

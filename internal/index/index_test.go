package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/storage/filestore"
	"github.com/steveyegge/taskgraph/internal/types"
)

type failingSource struct{}

func (failingSource) List(context.Context, types.Filter) ([]*types.Task, error) {
	return nil, errors.New("disk on fire")
}

func TestIndexIsStaleUntilRebuilt(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	ix := New(store)
	assert.Equal(t, 0, ix.Len())
	assert.True(t, ix.BuiltAt().IsZero())

	task, err := store.Create(ctx, types.CreateParams{Title: "First"})
	require.NoError(t, err)
	_, err = store.Save(ctx, task)
	require.NoError(t, err)

	assert.Nil(t, ix.Get(task.ID), "index must not see writes before rebuild")

	require.NoError(t, ix.Rebuild(ctx))
	got := ix.Get(task.ID)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Title)
	assert.False(t, ix.BuiltAt().IsZero())

	task.Title = "Renamed"
	_, err = store.Save(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, "First", ix.Get(task.ID).Title)
	require.NoError(t, ix.Rebuild(ctx))
	assert.Equal(t, "Renamed", ix.Get(task.ID).Title)
}

func TestIndexReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	task, err := store.Create(ctx, types.CreateParams{Title: "Original"})
	require.NoError(t, err)
	_, err = store.Save(ctx, task)
	require.NoError(t, err)

	ix := New(store)
	require.NoError(t, ix.Rebuild(ctx))
	ix.Get(task.ID).Title = "mutated"
	ix.All()[0].Title = "mutated"
	assert.Equal(t, "Original", ix.Get(task.ID).Title)
}

func TestIndexTopology(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	goal, err := store.Create(ctx, types.CreateParams{Title: "Goal", Type: types.TypeGoal, Project: "site"})
	require.NoError(t, err)
	_, err = store.Save(ctx, goal)
	require.NoError(t, err)
	kids, err := store.Decompose(ctx, goal.ID, []types.ChildSpec{
		{Title: "One"},
		{Title: "Two", DependsOn: []string{"One"}},
		{Title: "Three", SoftDependsOn: nil},
	})
	require.NoError(t, err)
	inbox, err := store.Create(ctx, types.CreateParams{Title: "Loose", SoftDependsOn: []string{kids[0].ID}})
	require.NoError(t, err)
	_, err = store.Save(ctx, inbox)
	require.NoError(t, err)

	ix := New(store)
	require.NoError(t, ix.Rebuild(ctx))

	assert.Equal(t, 5, ix.Len())
	assert.Len(t, ix.Children(goal.ID), 3)
	assert.Len(t, ix.Descendants(goal.ID), 3)
	assert.Len(t, ix.Ancestors(kids[1].ID), 1)
	assert.Len(t, ix.Roots(), 2)
	assert.Len(t, ix.ByProject("site"), 4)
	assert.Len(t, ix.ByProject(""), 1)
	assert.Len(t, ix.Dependents(kids[0].ID), 1)
	assert.Len(t, ix.SoftDependents(kids[0].ID), 1)
	assert.Len(t, ix.Ready("site"), 2)
	assert.Len(t, ix.Blocked(), 1)

	tree := ix.Tree(goal.ID)
	require.NotNil(t, tree)
	assert.Len(t, tree.Children, 3)
}

func TestRebuildFailureKeepsSnapshot(t *testing.T) {
	ix := New(failingSource{})
	err := ix.Rebuild(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, ix.Len())
}

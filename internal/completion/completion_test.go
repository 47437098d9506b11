package completion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/storage/filestore"
	"github.com/steveyegge/taskgraph/internal/types"
)

func setup(t *testing.T) (*filestore.Store, *Completer) {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	return store, New(store, nil)
}

func save(t *testing.T, store *filestore.Store, p types.CreateParams, status types.Status) *types.Task {
	t.Helper()
	ctx := context.Background()
	task, err := store.Create(ctx, p)
	require.NoError(t, err)
	task.Status = status
	_, err = store.Save(ctx, task)
	require.NoError(t, err)
	return task
}

func status(t *testing.T, store *filestore.Store, id string) types.Status {
	t.Helper()
	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got.Status
}

func TestUnblockPropagation(t *testing.T) {
	store, c := setup(t)
	ctx := context.Background()

	a := save(t, store, types.CreateParams{Title: "A"}, types.StatusActive)
	b := save(t, store, types.CreateParams{Title: "B", DependsOn: []string{a.ID}}, types.StatusBlocked)
	cc := save(t, store, types.CreateParams{Title: "C", DependsOn: []string{a.ID, b.ID}}, types.StatusBlocked)

	out, err := c.Complete(ctx, a.ID, false)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, status(t, store, a.ID))
	assert.Equal(t, types.StatusActive, status(t, store, b.ID))
	assert.Equal(t, types.StatusBlocked, status(t, store, cc.ID), "C still waits on B")
	require.Len(t, out.Unblocked, 1)
	assert.Equal(t, b.ID, out.Unblocked[0].ID)

	_, err = c.Complete(ctx, b.ID, false)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, status(t, store, cc.ID))
}

func TestPropagationThroughEarlierCompletions(t *testing.T) {
	store, c := setup(t)
	ctx := context.Background()

	a := save(t, store, types.CreateParams{Title: "A"}, types.StatusActive)
	// B was forced done before A, so nothing ever released D.
	b := save(t, store, types.CreateParams{Title: "B", DependsOn: []string{a.ID}}, types.StatusDone)
	d := save(t, store, types.CreateParams{Title: "D", DependsOn: []string{b.ID}}, types.StatusBlocked)

	_, err := c.Complete(ctx, a.ID, false)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, status(t, store, d.ID))
}

func TestPropagationLeavesNonBlockedAlone(t *testing.T) {
	store, c := setup(t)
	ctx := context.Background()

	a := save(t, store, types.CreateParams{Title: "A"}, types.StatusActive)
	inbox := save(t, store, types.CreateParams{Title: "Inbox", DependsOn: []string{a.ID}}, types.StatusInbox)
	review := save(t, store, types.CreateParams{Title: "Review", DependsOn: []string{a.ID}}, types.StatusReview)

	_, err := c.Complete(ctx, a.ID, false)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInbox, status(t, store, inbox.ID))
	assert.Equal(t, types.StatusReview, status(t, store, review.ID))
}

func TestIncompleteMarkerGate(t *testing.T) {
	store, c := setup(t)
	ctx := context.Background()

	task := save(t, store, types.CreateParams{Title: "Gated", Body: "- [ ] X"}, types.StatusActive)

	_, err := c.Complete(ctx, task.ID, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrIncompleteWork))
	assert.Contains(t, err.Error(), "X")
	assert.Contains(t, err.Error(), storage.ForceFlag)
	var iwe *storage.IncompleteWorkError
	require.True(t, errors.As(err, &iwe))
	assert.Len(t, iwe.Markers, 1)
	assert.Equal(t, types.StatusActive, status(t, store, task.ID))

	_, err = c.Complete(ctx, task.ID, true)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, status(t, store, task.ID))
}

func TestMarkersJoinedWithSemicolon(t *testing.T) {
	store, c := setup(t)
	task := save(t, store, types.CreateParams{Title: "Messy", Body: "50% complete\n\n- [ ] finish"}, types.StatusActive)

	_, err := c.Complete(context.Background(), task.ID, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "50% complete; 1 unchecked TODO item: finish")
}

func TestCompleteIsIdempotent(t *testing.T) {
	store, c := setup(t)
	ctx := context.Background()

	task := save(t, store, types.CreateParams{Title: "Twice", Body: "WIP"}, types.StatusActive)
	_, err := c.Complete(ctx, task.ID, true)
	require.NoError(t, err)
	before, err := store.Get(ctx, task.ID)
	require.NoError(t, err)

	out, err := c.Complete(ctx, task.ID, false)
	require.NoError(t, err, "re-completing a done task is not gated")
	assert.True(t, out.AlreadyDone)
	after, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCompleteMissing(t *testing.T) {
	_, c := setup(t)
	_, err := c.Complete(context.Background(), "20260101-missing", false)
	assert.True(t, storage.IsNotFound(err))
}

func TestCompleteAll(t *testing.T) {
	store, c := setup(t)
	ctx := context.Background()

	ok1 := save(t, store, types.CreateParams{Title: "ok1"}, types.StatusActive)
	gated := save(t, store, types.CreateParams{Title: "gated", Body: "- [ ] nope"}, types.StatusActive)
	ok2 := save(t, store, types.CreateParams{Title: "ok2"}, types.StatusActive)

	res := c.CompleteAll(ctx, []string{ok1.ID, gated.ID, "20260101-missing", ok2.ID}, false)
	assert.False(t, res.Success)
	require.Len(t, res.Results, 4)
	assert.Equal(t, 2, res.Failed())
	assert.True(t, res.Results[0].Success)
	assert.False(t, res.Results[1].Success)
	assert.True(t, strings.Contains(res.Results[1].Message, "nope"))
	assert.False(t, res.Results[2].Success)
	assert.True(t, res.Results[3].Success, "later ids are still attempted")
	assert.Equal(t, types.StatusDone, status(t, store, ok2.ID))

	res = c.CompleteAll(ctx, []string{ok1.ID, ok2.ID}, false)
	assert.True(t, res.Success)
}

package workspace

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/lockfile"
	"github.com/steveyegge/taskgraph/internal/types"
)

func TestSetupCreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "workspaces")
	m := New(root)
	ctx := context.Background()

	ws, err := m.Setup(ctx, "20260105-abc123")
	require.NoError(t, err)
	assert.True(t, ws.Created)
	assert.Empty(t, ws.Branch)
	assert.DirExists(t, ws.Path)
	assert.Equal(t, filepath.Join(root, "20260105-abc123"), ws.Path)

	again, err := m.Setup(ctx, "20260105-abc123")
	require.NoError(t, err)
	assert.False(t, again.Created, "second setup reports the existing workspace")
}

func TestSetupRejectsBadIDs(t *testing.T) {
	m := New(t.TempDir())
	for _, id := range []string{"", "../escape", "a/b", "with space"} {
		_, err := m.Setup(context.Background(), id)
		assert.ErrorIs(t, err, types.ErrValidation, "id %q", id)
	}
}

func TestSetupTimesOutWhileLockHeld(t *testing.T) {
	root := t.TempDir()
	locker := lockfile.NewMemLocker()
	held, err := locker.TryLock(filepath.Join(root, LockName))
	require.NoError(t, err)
	defer held.Release()

	m := New(root, WithLocker(locker), WithTimeout(250*time.Millisecond))
	start := time.Now()
	_, err = m.Setup(context.Background(), "20260105-abc123")
	assert.ErrorIs(t, err, lockfile.ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.NoDirExists(t, filepath.Join(root, "20260105-abc123"))
}

func TestSetupSerializesConcurrentCallers(t *testing.T) {
	m := New(t.TempDir())
	var wg sync.WaitGroup
	created := make(chan bool, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := m.Setup(context.Background(), "20260105-same")
			if assert.NoError(t, err) {
				created <- ws.Created
			}
		}()
	}
	wg.Wait()
	close(created)

	n := 0
	for c := range created {
		if c {
			n++
		}
	}
	assert.Equal(t, 1, n, "exactly one caller creates the workspace")
}

func TestSetupGitWorktree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
		{"commit", "--allow-empty", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = repo
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	root := filepath.Join(t.TempDir(), "ws")
	m := New(root, WithRepo(repo))
	ws, err := m.Setup(context.Background(), "20260105-abc123")
	require.NoError(t, err)
	assert.True(t, ws.Created)
	assert.Equal(t, "task/20260105-abc123", ws.Branch)
	_, err = os.Stat(filepath.Join(ws.Path, ".git"))
	assert.NoError(t, err, "worktree has a .git file")
}

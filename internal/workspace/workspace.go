// Package workspace creates a working directory per task. Creation is a
// non-idempotent external side effect (git worktree add), so it is
// serialized across processes by a coarse lock with a bounded wait.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/taskgraph/internal/git"
	"github.com/steveyegge/taskgraph/internal/lockfile"
	"github.com/steveyegge/taskgraph/internal/types"
)

// LockName is the coarse creation lock inside the workspace root.
const LockName = ".workspace_creation.lock"

// BranchPrefix prefixes per-task branches.
const BranchPrefix = "task/"

// Workspace describes a created (or pre-existing) task workspace.
type Workspace struct {
	TaskID  string `json:"task_id"`
	Path    string `json:"path"`
	Branch  string `json:"branch,omitempty"`
	Created bool   `json:"created"`
}

// Manager creates task workspaces under a root directory.
type Manager struct {
	root    string
	repo    *git.WorktreeManager
	locker  lockfile.Locker
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRepo makes workspaces git worktrees of the repository at path.
func WithRepo(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.repo = git.NewWorktreeManager(path)
		}
	}
}

// WithLocker overrides the default file locker.
func WithLocker(l lockfile.Locker) Option { return func(m *Manager) { m.locker = l } }

// WithTimeout bounds the wait for the creation lock.
func WithTimeout(d time.Duration) Option { return func(m *Manager) { m.timeout = d } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// New returns a Manager rooted at root.
func New(root string, opts ...Option) *Manager {
	m := &Manager{
		root:    root,
		locker:  lockfile.NewFileLocker(false),
		timeout: lockfile.DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the workspace root directory.
func (m *Manager) Root() string { return m.root }

// PathFor returns where the workspace for taskID lives.
func (m *Manager) PathFor(taskID string) string {
	return filepath.Join(m.root, taskID)
}

// Setup creates the workspace for taskID, or reports the existing one.
// It fails with lockfile.ErrLockTimeout when another process holds the
// creation lock for longer than the configured timeout.
func (m *Manager) Setup(ctx context.Context, taskID string) (*Workspace, error) {
	if !types.ValidID(taskID) {
		return nil, fmt.Errorf("%w: invalid task id %q", types.ErrValidation, taskID)
	}
	if err := os.MkdirAll(m.root, 0o750); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}

	lock, err := m.locker.Lock(ctx, filepath.Join(m.root, LockName), m.timeout)
	if err != nil {
		return nil, fmt.Errorf("acquiring workspace creation lock: %w", err)
	}
	defer func() { _ = lock.Release() }()

	ws := &Workspace{TaskID: taskID, Path: m.PathFor(taskID)}
	if m.repo != nil {
		ws.Branch = BranchPrefix + taskID
	}

	if _, err := os.Stat(ws.Path); err == nil {
		m.logger.Debug("workspace exists", "task", taskID, "path", ws.Path)
		return ws, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking workspace: %w", err)
	}

	if m.repo != nil {
		if err := m.repo.AddWorktree(ctx, ws.Path, ws.Branch); err != nil {
			return nil, err
		}
	} else if err := os.MkdirAll(ws.Path, 0o750); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	ws.Created = true
	m.logger.Info("workspace created", "task", taskID, "path", ws.Path, "branch", ws.Branch)
	return ws, nil
}

// Package git wraps the handful of git commands used to give each task its
// own working tree.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// WorktreeManager creates worktrees of one repository.
type WorktreeManager struct {
	repoPath string
}

func NewWorktreeManager(repoPath string) *WorktreeManager {
	return &WorktreeManager{repoPath: repoPath}
}

// RepoPath returns the repository the manager operates on.
func (wm *WorktreeManager) RepoPath() string { return wm.repoPath }

// IsRepo reports whether the repository path is inside a git work tree.
func (wm *WorktreeManager) IsRepo(ctx context.Context) bool {
	out, err := wm.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// BranchExists reports whether a local branch exists.
func (wm *WorktreeManager) BranchExists(ctx context.Context, branch string) bool {
	_, err := wm.run(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// AddWorktree checks out branch at path, creating the branch from HEAD when
// it does not exist yet.
func (wm *WorktreeManager) AddWorktree(ctx context.Context, path, branch string) error {
	args := []string{"worktree", "add"}
	if wm.BranchExists(ctx, branch) {
		args = append(args, path, branch)
	} else {
		args = append(args, "-b", branch, path)
	}
	if _, err := wm.run(ctx, args...); err != nil {
		return fmt.Errorf("git worktree add %s: %w", path, err)
	}
	return nil
}

// RemoveWorktree force-removes the worktree at path.
func (wm *WorktreeManager) RemoveWorktree(ctx context.Context, path string) error {
	if _, err := wm.run(ctx, "worktree", "remove", "--force", path); err != nil {
		return fmt.Errorf("git worktree remove %s: %w", path, err)
	}
	return nil
}

func (wm *WorktreeManager) run(ctx context.Context, args ...string) (string, error) {
	// #nosec G204 - args are fixed subcommands plus validated task paths
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = wm.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

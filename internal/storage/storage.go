// Package storage defines the task storage contract and its error taxonomy.
//
// The authoritative implementation lives in the filestore sub-package.
// Lookups fail soft: a missing task is (nil, nil) or false, never an error.
// Structural violations and filesystem failures are returned as errors.
package storage

import (
	"context"

	"github.com/steveyegge/taskgraph/internal/types"
)

// Storage is the interface satisfied by *filestore.Store.
// Consumers depend on this interface so that decorators (telemetry) and
// alternative backends can be substituted.
type Storage interface {
	// Create builds a new task with a fresh id and default status. It does
	// not write anything to disk.
	Create(ctx context.Context, p types.CreateParams) (*types.Task, error)

	// Save persists t and keeps derived fields (leaf, depth) of t and its
	// parent consistent. Returns the file path written.
	Save(ctx context.Context, t *types.Task) (string, error)

	Get(ctx context.Context, id string) (*types.Task, error)
	List(ctx context.Context, filter types.Filter) ([]*types.Task, error)
	Delete(ctx context.Context, id string) (bool, error)

	// Hierarchy
	Children(ctx context.Context, parentID string) ([]*types.Task, error)
	Descendants(ctx context.Context, id string) ([]*types.Task, error)
	Ancestors(ctx context.Context, id string) ([]*types.Task, error)
	Root(ctx context.Context, id string) (*types.Task, error)
	Reparent(ctx context.Context, id, newParent string) (*types.Task, error)
	Reorder(ctx context.Context, parentID string, orderedIDs []string) ([]*types.Task, error)

	// Work queries
	ReadyTasks(ctx context.Context, project string) ([]*types.Task, error)
	BlockedTasks(ctx context.Context) ([]*types.Task, error)

	// Decompose batch-creates children under parentID.
	Decompose(ctx context.Context, parentID string, specs []types.ChildSpec) ([]*types.Task, error)

	// LockPath is the advisory lock file guarding claims on t.
	LockPath(t *types.Task) string

	// DataRoot is the directory all task paths are resolved against.
	DataRoot() string
}

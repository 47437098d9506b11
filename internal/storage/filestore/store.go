// Package filestore is the authoritative file-backed task storage. Each
// task is one markdown file:
//
//	<root>/tasks/inbox/<id>.md          (no project)
//	<root>/<project>/tasks/<id>.md
//
// Claim lock files sit next to the task as <id>.lock.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/steveyegge/taskgraph/internal/idgen"
	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/taskfile"
	"github.com/steveyegge/taskgraph/internal/types"
)

const (
	tasksDir = "tasks"
	inboxDir = "inbox"
	lockExt  = ".lock"
)

// Store implements storage.Storage over a directory tree.
type Store struct {
	root     string
	now      func() time.Time
	idLength int
	workers  int

	// mu serializes structural mutations within this process. Other
	// processes coordinate through per-task lock files.
	mu sync.Mutex
}

var _ storage.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDLength sets the hash length of generated ids.
func WithIDLength(n int) Option {
	return func(s *Store) { s.idLength = n }
}

// WithScanWorkers bounds concurrent file parsing during scans.
func WithScanWorkers(n int) Option {
	return func(s *Store) { s.workers = n }
}

// New opens (creating if needed) a store rooted at root.
func New(root string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: data root is required", storage.ErrValidation)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data root: %w", err)
	}
	s := &Store{
		root:     abs,
		now:      time.Now,
		idLength: idgen.DefaultLength,
		workers:  8,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(s.inboxPath(), 0o755); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}
	return s, nil
}

// DataRoot implements storage.Storage.
func (s *Store) DataRoot() string { return s.root }

func (s *Store) inboxPath() string {
	return filepath.Join(s.root, tasksDir, inboxDir)
}

func (s *Store) projectPath(project string) string {
	return filepath.Join(s.root, project, tasksDir)
}

// dirFor returns the directory a task is routed to.
func (s *Store) dirFor(t *types.Task) string {
	if t.Project == "" {
		return s.inboxPath()
	}
	return s.projectPath(t.Project)
}

func (s *Store) pathFor(t *types.Task) string {
	return filepath.Join(s.dirFor(t), t.ID+taskfile.Ext)
}

// LockPath implements storage.Storage.
func (s *Store) LockPath(t *types.Task) string {
	return filepath.Join(s.dirFor(t), t.ID+lockExt)
}

var projectPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateProject rejects project names that cannot be a single directory
// segment under the data root.
func ValidateProject(name string) error {
	if name == "" {
		return nil
	}
	if name == tasksDir || !projectPattern.MatchString(name) || len(name) > 100 {
		return fmt.Errorf("%w: invalid project name %q", storage.ErrValidation, name)
	}
	return nil
}

// taskDirs lists the inbox plus every <project>/tasks directory.
func (s *Store) taskDirs() ([]string, error) {
	dirs := []string{s.inboxPath()}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read data root: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == tasksDir || strings.HasPrefix(name, ".") {
			continue
		}
		p := s.projectPath(name)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs, nil
}

// findPath locates the file for id. Returns "" when absent.
func (s *Store) findPath(id string) (string, error) {
	if !types.ValidID(id) {
		return "", nil
	}
	dirs, err := s.taskDirs()
	if err != nil {
		return "", err
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, id+taskfile.Ext)
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return "", nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// Create implements storage.Storage.
func (s *Store) Create(ctx context.Context, p types.CreateParams) (*types.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateProject(p.Project); err != nil {
		return nil, err
	}
	now := s.timestamp()
	t := &types.Task{
		Title:         strings.TrimSpace(p.Title),
		Type:          p.Type,
		Status:        types.StatusInbox,
		Project:       p.Project,
		Parent:        p.Parent,
		DependsOn:     p.DependsOn,
		SoftDependsOn: p.SoftDependsOn,
		Tags:          p.Tags,
		Priority:      p.Priority,
		Created:       now,
		Modified:      now,
		Order:         p.Order,
		Leaf:          true,
		Body:          taskfile.NormalizeBody(p.Body),
	}
	if p.Due != nil {
		due := p.Due.UTC().Truncate(time.Second)
		t.Due = &due
	}
	t.SetDefaults()

	if t.Parent != "" {
		parent, err := s.Get(ctx, t.Parent)
		if err != nil {
			return nil, err
		}
		// An unknown parent is tolerated; depth stays 0 until it appears.
		if parent != nil {
			t.Depth = parent.Depth + 1
		}
	}

	id, err := idgen.Generate(t.Title, t.Project, now, s.idLength, func(candidate string) bool {
		p, _ := s.findPath(candidate)
		return p != ""
	})
	if err != nil {
		return nil, err
	}
	t.ID = id

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Get implements storage.Storage.
func (s *Store) Get(ctx context.Context, id string) (*types.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.findPath(id)
	if err != nil || path == "" {
		return nil, err
	}
	t, err := readTask(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return t, err
}

// List implements storage.Storage.
func (s *Store) List(ctx context.Context, filter types.Filter) ([]*types.Task, error) {
	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.Filter(filter), nil
}

// Delete implements storage.Storage.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.snapshot(ctx)
	if err != nil {
		return false, err
	}
	t := g.Get(id)
	if t == nil {
		return false, nil
	}
	if err := os.Remove(s.pathFor(t)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s: %w", id, err)
	}

	if parent := g.Get(t.Parent); parent != nil && !parent.Leaf && g.ChildCount(parent.ID) == 1 {
		p := parent.Clone()
		p.Leaf = true
		if err := s.writeTask(p); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Children implements storage.Storage.
func (s *Store) Children(ctx context.Context, parentID string) ([]*types.Task, error) {
	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.Children(parentID), nil
}

// Descendants implements storage.Storage.
func (s *Store) Descendants(ctx context.Context, id string) ([]*types.Task, error) {
	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.Descendants(id), nil
}

// Ancestors implements storage.Storage.
func (s *Store) Ancestors(ctx context.Context, id string) ([]*types.Task, error) {
	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.Ancestors(id), nil
}

// Root implements storage.Storage.
func (s *Store) Root(ctx context.Context, id string) (*types.Task, error) {
	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.Root(id), nil
}

// ReadyTasks implements storage.Storage.
func (s *Store) ReadyTasks(ctx context.Context, project string) ([]*types.Task, error) {
	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.Ready(project), nil
}

// BlockedTasks implements storage.Storage.
func (s *Store) BlockedTasks(ctx context.Context) ([]*types.Task, error) {
	g, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.Blocked(), nil
}

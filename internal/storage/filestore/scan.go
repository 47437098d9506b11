package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/taskfile"
	"github.com/steveyegge/taskgraph/internal/types"
)

// Scan reads every task under the data root. Files that fail to parse are
// skipped; I/O errors are returned.
func (s *Store) Scan(ctx context.Context) ([]*types.Task, error) {
	dirs, err := s.taskDirs()
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != taskfile.Ext {
				continue
			}
			paths = append(paths, filepath.Join(dir, name))
		}
	}

	results := make([]*types.Task, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.workers, 1))
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := readTask(p)
			switch {
			case err == nil:
				results[i] = t
			case errors.Is(err, os.ErrNotExist):
				// deleted mid-scan
			case errors.Is(err, types.ErrValidation):
				debug.Logf("skipping %s: %v\n", p, err)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tasks := results[:0]
	for _, t := range results {
		if t != nil {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (s *Store) snapshot(ctx context.Context) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return graph.New(tasks), nil
}

func readTask(path string) (*types.Task, error) {
	// #nosec G304 - paths come from directory listings under the data root
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := taskfile.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if want := strings.TrimSuffix(filepath.Base(path), taskfile.Ext); t.ID != want {
		return nil, fmt.Errorf("%w: %s: frontmatter id %q does not match file name", types.ErrValidation, path, t.ID)
	}
	return t, nil
}

// writeTask atomically replaces the task's file.
func (s *Store) writeTask(t *types.Task) error {
	data, err := taskfile.Encode(t)
	if err != nil {
		return err
	}
	dir := s.dirFor(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := s.pathFor(t)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

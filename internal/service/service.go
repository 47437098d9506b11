// Package service is the single entry point callers use to drive the task
// engine. A Service is constructed once and passed explicitly; it owns the
// storage handle, the per-process index and the claim/completion helpers.
//
// Every operation returns a *Result envelope. Failures never escape as
// panics or bare errors: they become Success=false with a readable message,
// and the underlying error is kept on Result.Err for programmatic checks.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/taskgraph/internal/claim"
	"github.com/steveyegge/taskgraph/internal/completion"
	"github.com/steveyegge/taskgraph/internal/config"
	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/index"
	"github.com/steveyegge/taskgraph/internal/lockfile"
	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/storage/filestore"
	"github.com/steveyegge/taskgraph/internal/telemetry"
	"github.com/steveyegge/taskgraph/internal/topology"
	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/workspace"
)

// Result is the uniform response envelope.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Task    *types.Task     `json:"task,omitempty"`
	Tasks   []*types.Task   `json:"tasks,omitempty"`
	Stats   any             `json:"stats,omitempty"`
	Tree    *types.TreeNode `json:"tree,omitempty"`
	Count   *int            `json:"count,omitempty"`

	// Err is the failure behind Success=false.
	Err error `json:"-"`
}

func ok(msg string) *Result { return &Result{Success: true, Message: msg} }

func fail(err error) *Result {
	return &Result{Success: false, Message: err.Error(), Err: err}
}

func tasksResult(tasks []*types.Task) *Result {
	if tasks == nil {
		tasks = []*types.Task{}
	}
	n := len(tasks)
	return &Result{Success: true, Tasks: tasks, Count: &n}
}

// Service wires storage, index, completion and claims together.
type Service struct {
	store     storage.Storage
	index     *index.Index
	completer *completion.Completer
	claimer   *claim.Claimer
	workspace *workspace.Manager
	analyzer  *topology.Analyzer
	logger    *slog.Logger
	now       func() time.Time
	actor     string
}

// Option configures a Service.
type Option func(*options)

type options struct {
	locker           lockfile.Locker
	logger           *slog.Logger
	now              func() time.Time
	claimLockTimeout time.Duration
	workspace        *workspace.Manager
	outDegree        int
	actor            string
}

// WithLocker sets the per-task lock implementation. The default is a
// FileLocker that removes lock files on release.
func WithLocker(l lockfile.Locker) Option { return func(o *options) { o.locker = l } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock overrides time.Now for topology and snapshots.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithClaimLockTimeout bounds the wait for a busy task lock during update.
func WithClaimLockTimeout(d time.Duration) Option {
	return func(o *options) { o.claimLockTimeout = d }
}

// WithWorkspace enables SetupWorkspace.
func WithWorkspace(m *workspace.Manager) Option { return func(o *options) { o.workspace = m } }

// WithOutDegreeThreshold sets the metrics high out-degree cut-off.
func WithOutDegreeThreshold(n int) Option { return func(o *options) { o.outDegree = n } }

// WithActor is the assignee used when a claim does not name one.
func WithActor(actor string) Option { return func(o *options) { o.actor = actor } }

// New builds a Service over store.
func New(store storage.Storage, opts ...Option) *Service {
	o := options{
		locker:           lockfile.NewFileLocker(true),
		logger:           slog.New(slog.DiscardHandler),
		now:              time.Now,
		claimLockTimeout: claim.DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:     store,
		index:     index.New(store),
		completer: completion.New(store, o.logger),
		claimer:   claim.New(store, o.locker, claim.WithLockTimeout(o.claimLockTimeout), claim.WithLogger(o.logger)),
		workspace: o.workspace,
		analyzer:  topology.New(topology.WithClock(o.now), topology.WithOutDegreeThreshold(o.outDegree)),
		logger:    o.logger,
		now:       o.now,
		actor:     o.actor,
	}
}

// Open builds a file-backed Service from resolved configuration. Storage
// is wrapped with telemetry when TG_OTEL_ENABLED is set.
func Open(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	fs, err := filestore.New(cfg.DataRoot, filestore.WithIDLength(cfg.ID.HashLength))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ws := workspace.New(cfg.Workspace.Root,
		workspace.WithRepo(cfg.Workspace.Repo),
		workspace.WithTimeout(cfg.LockTimeout),
		workspace.WithLogger(logger),
	)
	return New(telemetry.WrapStorage(fs),
		WithLogger(logger),
		WithClaimLockTimeout(cfg.ClaimLockTimeout),
		WithWorkspace(ws),
		WithOutDegreeThreshold(cfg.Metrics.OutDegreeThreshold),
		WithActor(cfg.Actor),
	), nil
}

// Store exposes the underlying storage.
func (s *Service) Store() storage.Storage { return s.store }

// Index exposes the per-process index.
func (s *Service) Index() *index.Index { return s.index }

func (s *Service) event(code, taskID, details string) {
	debug.LogEvent(s.store.DataRoot(), code, taskID, details)
}

// mustGet loads id, turning a miss into ErrNotFound.
func (s *Service) mustGet(ctx context.Context, id string) (*types.Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	return t, nil
}

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/types"
)

const storageScopeName = "github.com/steveyegge/taskgraph/storage"

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in tg.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	return newInstrumented(s)
}

func newInstrumented(s storage.Storage) *InstrumentedStorage {
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("tg.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("tg.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("tg.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("tg.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedStorage) Create(ctx context.Context, p types.CreateParams) (*types.Task, error) {
	attrs := []attribute.KeyValue{
		attribute.String("tg.task.type", string(p.Type)),
		attribute.String("tg.project", p.Project),
	}
	ctx, span, start := s.op(ctx, "Create", attrs...)
	v, err := s.inner.Create(ctx, p)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Save(ctx context.Context, t *types.Task) (string, error) {
	attrs := []attribute.KeyValue{
		attribute.String("tg.task.id", t.ID),
		attribute.String("tg.task.status", string(t.Status)),
	}
	ctx, span, start := s.op(ctx, "Save", attrs...)
	v, err := s.inner.Save(ctx, t)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Get(ctx context.Context, id string) (*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.task.id", id)}
	ctx, span, start := s.op(ctx, "Get", attrs...)
	v, err := s.inner.Get(ctx, id)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) List(ctx context.Context, filter types.Filter) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.project", filter.Project)}
	ctx, span, start := s.op(ctx, "List", attrs...)
	v, err := s.inner.List(ctx, filter)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Delete(ctx context.Context, id string) (bool, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.task.id", id)}
	ctx, span, start := s.op(ctx, "Delete", attrs...)
	v, err := s.inner.Delete(ctx, id)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Children(ctx context.Context, parentID string) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.task.id", parentID)}
	ctx, span, start := s.op(ctx, "Children", attrs...)
	v, err := s.inner.Children(ctx, parentID)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Descendants(ctx context.Context, id string) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.task.id", id)}
	ctx, span, start := s.op(ctx, "Descendants", attrs...)
	v, err := s.inner.Descendants(ctx, id)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Ancestors(ctx context.Context, id string) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.task.id", id)}
	ctx, span, start := s.op(ctx, "Ancestors", attrs...)
	v, err := s.inner.Ancestors(ctx, id)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Root(ctx context.Context, id string) (*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.task.id", id)}
	ctx, span, start := s.op(ctx, "Root", attrs...)
	v, err := s.inner.Root(ctx, id)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Reparent(ctx context.Context, id, newParent string) (*types.Task, error) {
	attrs := []attribute.KeyValue{
		attribute.String("tg.task.id", id),
		attribute.String("tg.task.parent", newParent),
	}
	ctx, span, start := s.op(ctx, "Reparent", attrs...)
	v, err := s.inner.Reparent(ctx, id, newParent)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) Reorder(ctx context.Context, parentID string, orderedIDs []string) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{
		attribute.String("tg.task.id", parentID),
		attribute.Int("tg.task.count", len(orderedIDs)),
	}
	ctx, span, start := s.op(ctx, "Reorder", attrs...)
	v, err := s.inner.Reorder(ctx, parentID, orderedIDs)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ReadyTasks(ctx context.Context, project string) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("tg.project", project)}
	ctx, span, start := s.op(ctx, "ReadyTasks", attrs...)
	v, err := s.inner.ReadyTasks(ctx, project)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) BlockedTasks(ctx context.Context) ([]*types.Task, error) {
	ctx, span, start := s.op(ctx, "BlockedTasks")
	v, err := s.inner.BlockedTasks(ctx)
	s.done(ctx, span, start, err)
	return v, err
}

func (s *InstrumentedStorage) Decompose(ctx context.Context, parentID string, specs []types.ChildSpec) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{
		attribute.String("tg.task.id", parentID),
		attribute.Int("tg.task.count", len(specs)),
	}
	ctx, span, start := s.op(ctx, "Decompose", attrs...)
	v, err := s.inner.Decompose(ctx, parentID, specs)
	s.done(ctx, span, start, err, attrs...)
	return v, err
}

// LockPath and DataRoot are pure path computations and are not traced.
func (s *InstrumentedStorage) LockPath(t *types.Task) string { return s.inner.LockPath(t) }

func (s *InstrumentedStorage) DataRoot() string { return s.inner.DataRoot() }

// Unwrap returns the underlying storage.
func (s *InstrumentedStorage) Unwrap() storage.Storage { return s.inner }

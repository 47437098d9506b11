package lockfile

import (
	"context"
	"sync"
	"time"
)

// MemLocker is an in-process Locker. Locks are keyed by path but no file
// is touched.
type MemLocker struct {
	PollInterval time.Duration

	mu   sync.Mutex
	held map[string]struct{}
}

var _ Locker = (*MemLocker)(nil)

// NewMemLocker returns an empty MemLocker.
func NewMemLocker() *MemLocker {
	return &MemLocker{held: make(map[string]struct{})}
}

// TryLock implements Locker.
func (m *MemLocker) TryLock(path string) (Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = make(map[string]struct{})
	}
	if _, busy := m.held[path]; busy {
		return nil, ErrLockBusy
	}
	m.held[path] = struct{}{}
	return &memLock{owner: m, path: path}, nil
}

// Lock implements Locker.
func (m *MemLocker) Lock(ctx context.Context, path string, timeout time.Duration) (Lock, error) {
	return acquire(ctx, path, timeout, m.PollInterval, m.TryLock)
}

type memLock struct {
	once  sync.Once
	owner *MemLocker
	path  string
}

func (l *memLock) Release() error {
	l.once.Do(func() {
		l.owner.mu.Lock()
		delete(l.owner.held, l.path)
		l.owner.mu.Unlock()
	})
	return nil
}

package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileLocker takes OS advisory locks on lock files.
type FileLocker struct {
	// RemoveOnRelease deletes the lock file (best effort) after unlocking.
	RemoveOnRelease bool

	// PollInterval overrides DefaultPollInterval for Lock.
	PollInterval time.Duration
}

var _ Locker = (*FileLocker)(nil)

// NewFileLocker returns a FileLocker with default polling.
func NewFileLocker(removeOnRelease bool) *FileLocker {
	return &FileLocker{RemoveOnRelease: removeOnRelease}
}

// TryLock implements Locker.
func (l *FileLocker) TryLock(path string) (Lock, error) {
	// #nosec G304 - lock paths are derived from validated task ids
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}
	if err := flockExclusiveNonBlock(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLockBusy) {
			return nil, ErrLockBusy
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	// A previous holder may have unlinked the path after we opened it; the
	// lock would then guard an orphaned inode.
	if l.RemoveOnRelease {
		onDisk, statErr := os.Stat(path)
		held, fstatErr := f.Stat()
		if statErr != nil || fstatErr != nil || !os.SameFile(onDisk, held) {
			_ = flockUnlock(f)
			_ = f.Close()
			return nil, ErrLockBusy
		}
	}

	return &fileLock{file: f, path: path, remove: l.RemoveOnRelease}, nil
}

// Lock implements Locker.
func (l *FileLocker) Lock(ctx context.Context, path string, timeout time.Duration) (Lock, error) {
	return acquire(ctx, path, timeout, l.PollInterval, l.TryLock)
}

type fileLock struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	remove bool
}

// Release unlocks and closes the lock file. Safe to call multiple times.
func (h *fileLock) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	// Unlink before unlocking; TryLock rejects locks on unlinked inodes.
	if h.remove {
		_ = os.Remove(h.path)
	}
	err := flockUnlock(h.file)
	if cerr := h.file.Close(); err == nil {
		err = cerr
	}
	h.file = nil
	return err
}

//go:build unix || windows

package lockfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lockers() map[string]Locker {
	return map[string]Locker{
		"file": &FileLocker{PollInterval: 10 * time.Millisecond},
		"mem":  &MemLocker{PollInterval: 10 * time.Millisecond},
	}
}

func TestTryLockExclusive(t *testing.T) {
	for name, locker := range lockers() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "task.lock")

			first, err := locker.TryLock(path)
			if err != nil {
				t.Fatalf("first TryLock: %v", err)
			}
			if _, err := locker.TryLock(path); !errors.Is(err, ErrLockBusy) {
				t.Fatalf("second TryLock: got %v, want ErrLockBusy", err)
			}
			if err := first.Release(); err != nil {
				t.Fatalf("Release: %v", err)
			}
			if err := first.Release(); err != nil {
				t.Fatalf("second Release should be a no-op, got %v", err)
			}

			again, err := locker.TryLock(path)
			if err != nil {
				t.Fatalf("TryLock after release: %v", err)
			}
			_ = again.Release()
		})
	}
}

func TestLockTimesOut(t *testing.T) {
	for name, locker := range lockers() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "coarse.lock")
			held, err := locker.TryLock(path)
			if err != nil {
				t.Fatalf("TryLock: %v", err)
			}
			defer held.Release()

			start := time.Now()
			_, err = locker.Lock(context.Background(), path, 150*time.Millisecond)
			if !errors.Is(err, ErrLockTimeout) {
				t.Fatalf("Lock: got %v, want ErrLockTimeout", err)
			}
			if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
				t.Errorf("Lock returned after %v, expected to wait for the timeout", elapsed)
			}
		})
	}
}

func TestLockWaitsForRelease(t *testing.T) {
	for name, locker := range lockers() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "coarse.lock")
			held, err := locker.TryLock(path)
			if err != nil {
				t.Fatalf("TryLock: %v", err)
			}
			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = held.Release()
			}()

			got, err := locker.Lock(context.Background(), path, 2*time.Second)
			if err != nil {
				t.Fatalf("Lock: %v", err)
			}
			_ = got.Release()
		})
	}
}

func TestLockHonorsCancel(t *testing.T) {
	locker := &MemLocker{PollInterval: 10 * time.Millisecond}
	path := "x.lock"
	held, _ := locker.TryLock(path)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := locker.Lock(ctx, path, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestFileLockerRemoveOnRelease(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20260101-abc.lock")

	keep := &FileLocker{}
	l, err := keep.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	_ = l.Release()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file should remain without RemoveOnRelease: %v", err)
	}

	remove := NewFileLocker(true)
	l, err = remove.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	_ = l.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed, stat err = %v", err)
	}
}

func TestFileLockerMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "x.lock")
	_, err := (&FileLocker{}).TryLock(path)
	if err == nil || errors.Is(err, ErrLockBusy) {
		t.Fatalf("expected an I/O error, got %v", err)
	}
	_, err = (&FileLocker{}).Lock(context.Background(), path, time.Second)
	if err == nil || errors.Is(err, ErrLockTimeout) {
		t.Fatalf("non-busy errors should not be retried until timeout, got %v", err)
	}
}

//go:build wasm

package lockfile

import "os"

// flockExclusiveNonBlock is a no-op in WASM (single-process environment).
// Use MemLocker when several goroutines share a data root.
func flockExclusiveNonBlock(f *os.File) error {
	return nil
}

// flockUnlock is a no-op in WASM (single-process environment).
func flockUnlock(f *os.File) error {
	return nil
}

// Package filelock coordinates access to conversion output directories
// across processes and provides atomic output-file writes.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName is created inside each locked output directory.
const lockFileName = ".nc2csv.lock"

// DirLock is an advisory exclusive lock over an output directory,
// preventing two conversion batches from interleaving writes in the
// same output tree.
type DirLock struct {
	flock *flock.Flock
	path  string
}

// LockOutputDir creates dir if necessary and acquires a non-blocking
// exclusive lock on it. It fails immediately if another process holds
// the lock.
func LockOutputDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, lockFileName)
	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !acquired {
		return nil, fmt.Errorf("output directory %s is in use by another conversion run", dir)
	}
	return &DirLock{flock: fl, path: path}, nil
}

// Unlock releases the lock and removes the lock file.
func (l *DirLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("releasing lock on %s: %w", l.path, err)
	}
	os.Remove(l.path)
	return nil
}

// AtomicWrite writes data to path using a temp file and rename so that
// readers never observe a partially written output file. The parent
// directory is created if it does not exist.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// The temp file lives in the target directory so the rename stays
	// on one filesystem and is therefore atomic.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}

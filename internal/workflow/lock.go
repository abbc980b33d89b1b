package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"chaptersplit/internal/services"
)

// LockFileName is the advisory lock held in a video output directory while a
// run writes into it.
const LockFileName = ".chaptersplit.lock"

// ErrLocked reports that another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

type outputLock struct {
	lock *flock.Flock
	path string
}

// lockOutputDir creates dir and takes its lock without waiting.
func lockOutputDir(dir string) (*outputLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "workflow", "lock", path, ErrLocked)
	}
	return &outputLock{lock: lock, path: path}, nil
}

// Release unlocks and removes the lock file.
func (l *outputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

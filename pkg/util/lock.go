package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockPrefix = "mysql-db-dump"

// ErrLocked is returned by AcquireLock when another process holds the lock for the same id.
var ErrLocked = errors.New("lock already held")

// ProgramLock is a single-instance lock, keyed by a flavor id, so that several
// differently configured runs can coexist while two identical ones cannot.
type ProgramLock struct {
	ID   string
	lock *flock.Flock
}

// LockPath returns the lock file used for the given id inside dir. An empty dir means os.TempDir().
func LockPath(dir, id string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("%s%s.lock", lockPrefix, id))
}

// AcquireLock takes the lock without blocking. It returns ErrLocked if it is already held.
func AcquireLock(dir, id string) (*ProgramLock, error) {
	fl := flock.New(LockPath(dir, id))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("unable to acquire lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return &ProgramLock{ID: id, lock: fl}, nil
}

// Release frees the lock. It is safe to call on a nil lock.
func (p *ProgramLock) Release() error {
	if p == nil || p.lock == nil {
		return nil
	}
	return p.lock.Unlock()
}

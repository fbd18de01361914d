package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/utils"
)

// LockSuffix is appended to the canonical store path to name the lock marker.
const LockSuffix = ".lock"

// Lock is a held store lock.
type Lock struct {
	path  string
	owner string

	once sync.Once
	err  error
}

// LockPath returns the marker path for the store at canonical.
func LockPath(canonical string) string {
	return canonical + LockSuffix
}

// LockOwner identifies the current process as "<user>@<host>.<pid>".
func LockOwner() string {
	user, err := utils.GetUsername()
	if err != nil {
		user = "unknown"
	}
	host, err := utils.GetHostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s@%s.%d", user, host, os.Getpid())
}

// AcquireLock claims the lock for the store at canonical on behalf of owner.
// If another process holds it the error wraps ErrLocked and names the
// holder.
func AcquireLock(canonical, owner string) (*Lock, error) {
	path := LockPath(canonical)
	if err := os.Symlink(owner, path); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating lock %s: %w", path, err)
		}
		holder, rerr := ReadLockOwner(canonical)
		if rerr != nil {
			holder = "(unreadable)"
		}
		return nil, fmt.Errorf("%w: %s is locked by %s (remove %s if that process is gone)",
			kerrors.ErrLocked, canonical, holder, path)
	}
	return &Lock{path: path, owner: owner}, nil
}

// ReadLockOwner returns the owner recorded in the store's lock marker.
func ReadLockOwner(canonical string) (string, error) {
	return os.Readlink(LockPath(canonical))
}

// Path returns the marker path.
func (l *Lock) Path() string { return l.path }

// Owner returns the owner string this lock was acquired with.
func (l *Lock) Owner() string { return l.owner }

// Release removes the marker. It is safe to call more than once and from a
// signal handler racing normal shutdown; only the first call acts.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.err = fmt.Errorf("removing lock %s: %w", l.path, err)
		}
	})
	return l.err
}

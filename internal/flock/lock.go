package flock

import (
	"os"
	"path/filepath"

	"github.com/mrz1836/bootlink/internal/constants"
	"github.com/mrz1836/bootlink/internal/errors"
)

// Lock is a held output-directory lock.
type Lock struct {
	f *os.File
}

// Acquire creates dir if needed and takes the run lock inside it.
// It fails with errors.ErrOutputLocked if another process holds the lock.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}
	path := filepath.Join(dir, constants.LockFileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) //#nosec G304 -- path is inside the configured output directory
	if err != nil {
		return nil, errors.Wrap(err, "open lock file")
	}
	if err := Exclusive(f.Fd()); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(errors.ErrOutputLocked, "%s is in use by another run", dir)
	}
	return &Lock{f: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.f.Name()
}

// Release drops the lock. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := Unlock(l.f.Fd())
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

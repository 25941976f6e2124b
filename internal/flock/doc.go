// Package flock serializes bootlink runs that share an output directory.
//
// Locks are exclusive and non-blocking: a second run against the same
// directory fails immediately instead of waiting. On Unix the lock is a
// flock(2) on a lock file, on Windows LockFileEx on the first byte.
//
// Usage:
//
//	lock, err := flock.Acquire(outDir)
//	if err != nil {
//	    // errors.Is(err, errors.ErrOutputLocked) when another run holds it
//	}
//	defer lock.Release()
package flock

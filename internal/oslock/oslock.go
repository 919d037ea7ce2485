// Package oslock applies advisory locks directly to open file handles.
//
// Locks are scoped to the handle: closing the handle releases the lock. The
// lock is acquired as a separate step after open so that its release is
// always under the owner's control. Advisory locks exclude other processes
// only; goroutines of the same process sharing a handle must coordinate
// separately.
package oslock

import "os"

// Exclusive acquires an exclusive advisory lock on f, blocking until the
// lock becomes available.
func Exclusive(f *os.File) error {
	return lockExclusive(f)
}

// TryExclusive attempts to acquire an exclusive advisory lock on f without
// blocking. It returns false when a conflicting lock is held elsewhere.
func TryExclusive(f *os.File) (bool, error) {
	return tryLockExclusive(f)
}

// Release drops the advisory lock held on f without closing it.
func Release(f *os.File) error {
	return release(f)
}

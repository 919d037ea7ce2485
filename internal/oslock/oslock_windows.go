//go:build windows

package oslock

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// locks cover the first byte only, which is all that is needed for whole-file
// advisory exclusion via LockFileEx.
const lockLen = 1

func lockExclusive(f *os.File) error {
	ol := new(windows.Overlapped)

	if err := windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, lockLen, 0, ol); err != nil {
		return errors.Wrap(err, "LockFileEx")
	}

	return nil
}

func tryLockExclusive(f *os.File) (bool, error) {
	ol := new(windows.Overlapped)

	err := windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, lockLen, 0, ol)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, windows.ERROR_LOCK_VIOLATION):
		return false, nil
	default:
		return false, errors.Wrap(err, "LockFileEx")
	}
}

func release(f *os.File) error {
	ol := new(windows.Overlapped)

	if err := windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockLen, 0, ol); err != nil {
		return errors.Wrap(err, "UnlockFileEx")
	}

	return nil
}

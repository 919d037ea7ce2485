//go:build !windows

package oslock

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func lockExclusive(f *os.File) error {
	if err := flockRetryingEINTR(int(f.Fd()), unix.LOCK_EX); err != nil {
		return errors.Wrap(err, "flock")
	}

	return nil
}

func tryLockExclusive(f *os.File) (bool, error) {
	err := flockRetryingEINTR(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, unix.EWOULDBLOCK):
		return false, nil
	default:
		return false, errors.Wrap(err, "flock")
	}
}

func release(f *os.File) error {
	if err := flockRetryingEINTR(int(f.Fd()), unix.LOCK_UN); err != nil {
		return errors.Wrap(err, "flock unlock")
	}

	return nil
}

func flockRetryingEINTR(fd, how int) error {
	for {
		err := unix.Flock(fd, how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

//go:build !windows

package restore

import (
	"errors"
	"syscall"
)

func isLockError(err error) bool {
	return errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY)
}

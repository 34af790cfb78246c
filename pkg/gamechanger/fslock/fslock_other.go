//go:build !unix && !windows

package fslock

import "os"

func tryLock(*os.File) error { return ErrUnsupported }

func lock(*os.File) error { return ErrUnsupported }

func unlock(*os.File) error { return nil }

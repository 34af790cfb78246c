package main

import (
	"errors"
	"io/fs"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitConfig     = 2
	exitPermission = 3
	exitPath       = 4
)

// exitCode maps an error returned by a command to the process exit code.
// A partial failure exits 1 whatever its item causes were.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var pathErr *fs.PathError
	switch {
	case errors.Is(err, types.ErrConfig):
		return exitConfig
	case errors.Is(err, types.ErrPartialFailure):
		return exitFailure
	case types.IsPermission(err):
		return exitPermission
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrIntegrityViolation),
		errors.As(err, &pathErr):
		return exitPath
	}
	return exitFailure
}

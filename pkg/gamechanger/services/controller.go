package services

import (
	"context"
	"errors"
)

var (
	// ErrServiceNotFound is returned when a service is not installed.
	ErrServiceNotFound = errors.New("service not installed")

	// ErrUnsupportedPlatform is returned by the system controller outside Windows.
	ErrUnsupportedPlatform = errors.New("service control is only supported on windows")

	// ErrNoSafetySnapshot is returned when a mutating apply has no snapshotter to record prior state.
	ErrNoSafetySnapshot = errors.New("refusing to change services without a safety snapshot")
)

// Status is the live state of one service as reported by the OS.
type Status struct {
	DisplayName string
	StartupType StartupType
	RunState    RunState
}

// Controller reads and changes service state. Implementations must be safe
// for concurrent use.
type Controller interface {
	Query(ctx context.Context, name string) (Status, error)
	SetStartupType(ctx context.Context, name string, t StartupType) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
}

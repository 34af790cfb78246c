//go:build windows

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

const stopPollInterval = 250 * time.Millisecond

// StopTimeout bounds how long Stop waits for a service to reach the stopped state.
var StopTimeout = 30 * time.Second

type systemController struct{}

// NewSystemController returns a Controller backed by the Windows service manager.
func NewSystemController() (Controller, error) {
	return systemController{}, nil
}

// open connects to the service manager with the least access that still
// allows opening services, so queries work without elevation.
func (systemController) open(name string, access uint32) (*mgr.Service, func(), error) {
	scm, err := windows.OpenSCManager(nil, nil, windows.SC_MANAGER_CONNECT)
	if err != nil {
		return nil, nil, mapErr("connect to service manager", err)
	}
	m := &mgr.Mgr{Handle: scm}

	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		_ = m.Disconnect()
		return nil, nil, err
	}
	h, err := windows.OpenService(m.Handle, namePtr, access)
	if err != nil {
		_ = m.Disconnect()
		return nil, nil, mapErr("open "+name, err)
	}
	s := &mgr.Service{Name: name, Handle: h}
	return s, func() {
		_ = s.Close()
		_ = m.Disconnect()
	}, nil
}

func (c systemController) Query(_ context.Context, name string) (Status, error) {
	s, closeFn, err := c.open(name, windows.SERVICE_QUERY_CONFIG|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return Status{}, err
	}
	defer closeFn()

	cfg, err := s.Config()
	if err != nil {
		return Status{}, mapErr("query config of "+name, err)
	}
	st, err := s.Query()
	if err != nil {
		return Status{}, mapErr("query status of "+name, err)
	}
	return Status{
		DisplayName: cfg.DisplayName,
		StartupType: startupFromWindows(cfg.StartType),
		RunState:    runStateFromWindows(st.State),
	}, nil
}

func (c systemController) SetStartupType(_ context.Context, name string, t StartupType) error {
	start, err := startupToWindows(t)
	if err != nil {
		return err
	}
	s, closeFn, err := c.open(name, windows.SERVICE_CHANGE_CONFIG|windows.SERVICE_QUERY_CONFIG)
	if err != nil {
		return err
	}
	defer closeFn()

	err = windows.ChangeServiceConfig(s.Handle, windows.SERVICE_NO_CHANGE, start, windows.SERVICE_NO_CHANGE,
		nil, nil, nil, nil, nil, nil, nil)
	if err != nil {
		return mapErr("set startup type of "+name, err)
	}
	return nil
}

func (c systemController) Start(_ context.Context, name string) error {
	s, closeFn, err := c.open(name, windows.SERVICE_START)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := s.Start(); err != nil && !errors.Is(err, windows.ERROR_SERVICE_ALREADY_RUNNING) {
		return mapErr("start "+name, err)
	}
	return nil
}

func (c systemController) Stop(ctx context.Context, name string) error {
	s, closeFn, err := c.open(name, windows.SERVICE_STOP|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return err
	}
	defer closeFn()

	st, err := s.Control(svc.Stop)
	if errors.Is(err, windows.ERROR_SERVICE_NOT_ACTIVE) {
		return nil
	}
	if err != nil {
		return mapErr("stop "+name, err)
	}

	deadline := time.Now().Add(StopTimeout)
	for st.State != svc.Stopped {
		if time.Now().After(deadline) {
			return fmt.Errorf("stop %s: timed out waiting for service to stop", name)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stopPollInterval):
		}
		if st, err = s.Query(); err != nil {
			return mapErr("query status of "+name, err)
		}
	}
	return nil
}

func mapErr(op string, err error) error {
	switch {
	case errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST):
		return fmt.Errorf("%s: %w", op, ErrServiceNotFound)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("%s: %w: %w", op, types.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func startupFromWindows(t uint32) StartupType {
	switch t {
	case windows.SERVICE_AUTO_START, windows.SERVICE_BOOT_START, windows.SERVICE_SYSTEM_START:
		return Automatic
	case windows.SERVICE_DISABLED:
		return Disabled
	default:
		return Manual
	}
}

func startupToWindows(t StartupType) (uint32, error) {
	switch t {
	case Automatic:
		return windows.SERVICE_AUTO_START, nil
	case Manual:
		return windows.SERVICE_DEMAND_START, nil
	case Disabled:
		return windows.SERVICE_DISABLED, nil
	}
	return 0, fmt.Errorf("unsupported startup type %q", t)
}

func runStateFromWindows(s svc.State) RunState {
	switch s {
	case svc.Stopped, svc.StopPending:
		return Stopped
	default:
		return Running
	}
}

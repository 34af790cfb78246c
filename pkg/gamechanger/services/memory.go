package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Op names a controller operation in MemoryController's call log and failure table.
type Op string

const (
	OpQuery      Op = "query"
	OpSetStartup Op = "set-startup"
	OpStart      Op = "start"
	OpStop       Op = "stop"
)

// Call is one recorded controller invocation.
type Call struct {
	Op    Op
	Name  string
	Value string
}

// MemoryController is an in-memory Controller for tests and dry experiments.
type MemoryController struct {
	mu       sync.Mutex
	services map[string]*memoryService
	failures map[string]error
	calls    []Call
}

type memoryService struct {
	name   string
	status Status
}

// NewMemoryController creates a controller holding the given records' state.
func NewMemoryController(recs ...Record) *MemoryController {
	m := &MemoryController{
		services: make(map[string]*memoryService),
		failures: make(map[string]error),
	}
	for _, r := range recs {
		m.Set(r.Name, Status{DisplayName: r.DisplayName, StartupType: r.StartupType, RunState: r.RunState})
	}
	return m
}

// Set installs or replaces a service.
func (m *MemoryController) Set(name string, st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[strings.ToLower(name)] = &memoryService{name: name, status: st}
}

// Remove uninstalls a service.
func (m *MemoryController) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.services, strings.ToLower(name))
}

// FailOn makes every future op on name return err. A nil err clears the failure.
func (m *MemoryController) FailOn(op Op, name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := failureKey(op, name)
	if err == nil {
		delete(m.failures, key)
		return
	}
	m.failures[key] = err
}

// Calls returns the call log.
func (m *MemoryController) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Mutations returns the call log without queries.
func (m *MemoryController) Mutations() []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op != OpQuery {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (m *MemoryController) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Query implements Controller.
func (m *MemoryController) Query(ctx context.Context, name string) (Status, error) {
	svc, err := m.begin(ctx, OpQuery, name, "")
	if err != nil {
		return Status{}, err
	}
	defer m.mu.Unlock()
	return svc.status, nil
}

// SetStartupType implements Controller.
func (m *MemoryController) SetStartupType(ctx context.Context, name string, t StartupType) error {
	svc, err := m.begin(ctx, OpSetStartup, name, string(t))
	if err != nil {
		return err
	}
	defer m.mu.Unlock()
	if _, err := ParseStartupType(string(t)); err != nil {
		return err
	}
	svc.status.StartupType = t
	return nil
}

// Start implements Controller. Disabled services refuse to start.
func (m *MemoryController) Start(ctx context.Context, name string) error {
	svc, err := m.begin(ctx, OpStart, name, "")
	if err != nil {
		return err
	}
	defer m.mu.Unlock()
	if svc.status.StartupType == Disabled {
		return fmt.Errorf("start %s: service is disabled", name)
	}
	svc.status.RunState = Running
	return nil
}

// Stop implements Controller.
func (m *MemoryController) Stop(ctx context.Context, name string) error {
	svc, err := m.begin(ctx, OpStop, name, "")
	if err != nil {
		return err
	}
	defer m.mu.Unlock()
	svc.status.RunState = Stopped
	return nil
}

// begin logs the call and returns the service with m.mu held on success.
func (m *MemoryController) begin(ctx context.Context, op Op, name, value string) (*memoryService, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: op, Name: name, Value: value})
	if err, ok := m.failures[failureKey(op, name)]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%s %s: %w", op, name, err)
	}
	svc, ok := m.services[strings.ToLower(name)]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%s %s: %w", op, name, ErrServiceNotFound)
	}
	return svc, nil
}

func failureKey(op Op, name string) string {
	return string(op) + "\x00" + strings.ToLower(name)
}

var _ Controller = (*MemoryController)(nil)

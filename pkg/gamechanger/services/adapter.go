package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("services")

// Snapshotter records the current service state before Apply mutates anything.
// It returns an identifier for the saved state.
type Snapshotter interface {
	SnapshotServices(ctx context.Context, doc *Document) (string, error)
}

// SnapshotterFunc adapts a function to Snapshotter.
type SnapshotterFunc func(ctx context.Context, doc *Document) (string, error)

// SnapshotServices implements Snapshotter.
func (f SnapshotterFunc) SnapshotServices(ctx context.Context, doc *Document) (string, error) {
	return f(ctx, doc)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCatalog replaces the built-in catalog.
func WithCatalog(c *Catalog) Option {
	return func(a *Adapter) { a.catalog = c }
}

// WithClock overrides the clock used for CapturedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithSnapshotter sets the safety snapshotter Apply calls before mutating.
func WithSnapshotter(s Snapshotter) Option {
	return func(a *Adapter) { a.snapshotter = s }
}

// Adapter scans and applies service state for the services in its catalog.
type Adapter struct {
	ctrl        Controller
	catalog     *Catalog
	now         func() time.Time
	snapshotter Snapshotter
}

// NewAdapter creates an Adapter over ctrl.
func NewAdapter(ctrl Controller, opts ...Option) *Adapter {
	a := &Adapter{
		ctrl:    ctrl,
		catalog: DefaultCatalog(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the adapter's catalog.
func (a *Adapter) Catalog() *Catalog {
	return a.catalog
}

// Scan queries every catalog service. Services that are not installed or
// cannot be queried are listed in Missing.
func (a *Adapter) Scan(ctx context.Context) (*Document, error) {
	doc := &Document{CapturedAt: a.now().UTC()}

	for _, def := range a.catalog.All() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: service scan interrupted: %w", types.ErrIncomplete, err)
		}
		st, err := a.ctrl.Query(ctx, def.Name)
		if err != nil {
			if !errors.Is(err, ErrServiceNotFound) {
				logger.Warn("service query failed", "service", def.Name, "error", err)
			}
			doc.Missing = append(doc.Missing, def.Name)
			continue
		}
		display := st.DisplayName
		if display == "" {
			display = def.DisplayName
		}
		doc.Services = append(doc.Services, Record{
			Name:        def.Name,
			DisplayName: display,
			Category:    def.Category,
			Group:       def.Group,
			StartupType: st.StartupType,
			RunState:    st.RunState,
		})
	}
	doc.Sort()

	logger.Info("services scanned", "found", len(doc.Services), "missing", len(doc.Missing))
	return doc, nil
}

// Action is one planned controller call.
type Action string

const (
	ActionStop       Action = "stop"
	ActionSetStartup Action = "set-startup"
	ActionStart      Action = "start"
)

// Change is the plan for one service.
type Change struct {
	Name        string      `json:"serviceName" yaml:"serviceName"`
	Category    Category    `json:"category" yaml:"category"`
	FromStartup StartupType `json:"fromStartupType" yaml:"fromStartupType"`
	ToStartup   StartupType `json:"toStartupType" yaml:"toStartupType"`
	FromRun     RunState    `json:"fromRunState" yaml:"fromRunState"`
	ToRun       RunState    `json:"toRunState" yaml:"toRunState"`
	Actions     []Action    `json:"actions" yaml:"actions"`
}

// ApplyResult describes what Apply did, or would do in a dry run.
type ApplyResult struct {
	DryRun         bool              `json:"dryRun" yaml:"dryRun"`
	SafetySnapshot string            `json:"safetySnapshot,omitempty" yaml:"safetySnapshot,omitempty"`
	Changes        []Change          `json:"changes" yaml:"changes"`
	Applied        []Record          `json:"applied" yaml:"applied"`
	Unchanged      []string          `json:"unchanged" yaml:"unchanged"`
	Failed         []types.ItemError `json:"failed" yaml:"failed"`
	Incomplete     bool              `json:"incomplete" yaml:"incomplete"`
}

// Apply moves each service in target to its startup type and run state.
//
// Records are processed by category rank, then name. A real run first scans
// the current state and hands it to the Snapshotter; without one it refuses
// with ErrNoSafetySnapshot. Per service a stop precedes a startup change,
// which precedes a start. Failures are collected per service and returned as
// a *types.PartialFailureError together with the full result.
func (a *Adapter) Apply(ctx context.Context, target *Document, dryRun bool) (*ApplyResult, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: no target service state", types.ErrNotFound)
	}
	if !dryRun && a.snapshotter == nil {
		return nil, ErrNoSafetySnapshot
	}

	start := time.Now()
	logger.Info("service apply started", "services", len(target.Services), "dry_run", dryRun)

	current, err := a.Scan(ctx)
	if err != nil {
		return nil, err
	}

	wanted := target.Clone()
	wanted.Sort()

	res := &ApplyResult{DryRun: dryRun}
	var plans []Change
	for _, rec := range wanted.Services {
		cur, ok := current.Lookup(rec.Name)
		if !ok {
			res.Failed = append(res.Failed, types.NewItemError(rec.Name, ErrServiceNotFound))
			continue
		}
		plan := planChange(cur, rec)
		if len(plan.Actions) == 0 {
			res.Unchanged = append(res.Unchanged, rec.Name)
			continue
		}
		plans = append(plans, plan)
	}
	res.Changes = plans

	if dryRun || len(plans) == 0 {
		logger.Info("service apply finished",
			"planned", len(plans), "unchanged", len(res.Unchanged), "failed", len(res.Failed),
			"dry_run", dryRun, "elapsed", time.Since(start).Round(time.Millisecond))
		return res, types.NewPartialFailure("apply services", 0, res.Failed)
	}

	id, err := a.snapshotter.SnapshotServices(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("safety snapshot before applying services: %w", err)
	}
	res.SafetySnapshot = id
	logger.Info("safety snapshot captured", "backup", id)

	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			res.Incomplete = true
			logger.Warn("service apply interrupted", "applied", len(res.Applied))
			return res, fmt.Errorf("%w: service apply interrupted: %w", types.ErrIncomplete, err)
		}
		if err := a.execute(ctx, plan); err != nil {
			logger.Warn("service change failed", "service", plan.Name, "error", err)
			res.Failed = append(res.Failed, types.NewItemError(plan.Name, err))
			continue
		}
		rec, _ := wanted.Lookup(plan.Name)
		res.Applied = append(res.Applied, rec)
	}

	logger.Info("service apply finished",
		"applied", len(res.Applied), "unchanged", len(res.Unchanged), "failed", len(res.Failed),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, types.NewPartialFailure("apply services", len(res.Applied), res.Failed)
}

func planChange(cur, want Record) Change {
	c := Change{
		Name:        cur.Name,
		Category:    cur.Category,
		FromStartup: cur.StartupType,
		ToStartup:   cur.StartupType,
		FromRun:     cur.RunState,
		ToRun:       cur.RunState,
	}
	if want.RunState == Stopped && cur.RunState == Running {
		c.Actions = append(c.Actions, ActionStop)
		c.ToRun = Stopped
	}
	if want.StartupType != "" && !strings.EqualFold(string(want.StartupType), string(cur.StartupType)) {
		c.Actions = append(c.Actions, ActionSetStartup)
		c.ToStartup = want.StartupType
	}
	if want.RunState == Running && cur.RunState == Stopped {
		c.Actions = append(c.Actions, ActionStart)
		c.ToRun = Running
	}
	return c
}

func (a *Adapter) execute(ctx context.Context, c Change) error {
	for _, act := range c.Actions {
		var err error
		switch act {
		case ActionStop:
			err = a.ctrl.Stop(ctx, c.Name)
		case ActionSetStartup:
			err = a.ctrl.SetStartupType(ctx, c.Name, c.ToStartup)
		case ActionStart:
			err = a.ctrl.Start(ctx, c.Name)
		}
		if err != nil {
			return types.Classify(err)
		}
		logger.Debug("service action applied", "service", c.Name, "action", act)
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var errInjected = errors.New("injected failure")

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Definition{
		{Name: "DiagTrack", DisplayName: "Telemetry", Category: SafeToDisable, Group: "Telemetry"},
		{Name: "Fax", DisplayName: "Fax", Category: SafeToDisable, Group: "Legacy"},
		{Name: "WSearch", DisplayName: "Windows Search", Category: GamingOptimized, Group: "Search"},
		{Name: "Spooler", DisplayName: "Print Spooler", Category: GamingOptimized, Group: "Print"},
		{Name: "OVRService", DisplayName: "Oculus", Category: VRSpecific, Group: "VR Runtime"},
		{Name: "AudioSrv", DisplayName: "Windows Audio", Category: KeepRunning, Group: "Audio"},
		{Name: "NotInstalled", DisplayName: "Ghost", Category: SafeToDisable, Group: "Other"},
	})
	require.NoError(t, err)
	return c
}

func testController() *MemoryController {
	return NewMemoryController(
		Record{Name: "DiagTrack", StartupType: Automatic, RunState: Running},
		Record{Name: "Fax", StartupType: Manual, RunState: Stopped},
		Record{Name: "WSearch", StartupType: Automatic, RunState: Running},
		Record{Name: "Spooler", StartupType: Automatic, RunState: Stopped},
		Record{Name: "OVRService", StartupType: Automatic, RunState: Running},
		Record{Name: "AudioSrv", StartupType: Automatic, RunState: Running},
	)
}

type recordingSnapshotter struct {
	docs []*Document
	err  error
}

func (r *recordingSnapshotter) SnapshotServices(_ context.Context, doc *Document) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.docs = append(r.docs, doc)
	return "safety-1", nil
}

func newTestAdapter(t *testing.T, ctrl Controller, snap Snapshotter) *Adapter {
	t.Helper()
	opts := []Option{
		WithCatalog(testCatalog(t)),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }),
	}
	if snap != nil {
		opts = append(opts, WithSnapshotter(snap))
	}
	return NewAdapter(ctrl, opts...)
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	require.Greater(t, c.Len(), 50)

	for _, name := range []string{"TobiiVRService", "PiServiceLauncher", "OVRService", "OVRLibraryService"} {
		def, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, VRSpecific, def.Category, name)
	}

	def, ok := c.Lookup("diagtrack")
	require.True(t, ok, "lookup ignores case")
	assert.Equal(t, SafeToDisable, def.Category)

	all := c.All()
	all[0].Name = "mutated"
	assert.NotEqual(t, "mutated", c.All()[0].Name, "All returns a copy")

	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Category.Rank(), all[i].Category.Rank())
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog([]Definition{{Name: "Fax"}, {Name: "FAX"}})
	assert.Error(t, err)

	_, err = NewCatalog([]Definition{{Name: ""}})
	assert.Error(t, err)
}

func TestParseCategoryAndStartupType(t *testing.T) {
	t.Parallel()

	c, err := ParseCategory("OptionalToDisable")
	require.NoError(t, err)
	assert.Equal(t, GamingOptimized, c)

	c, err = ParseCategory("donotdisable")
	require.NoError(t, err)
	assert.Equal(t, KeepRunning, c)

	_, err = ParseCategory("whatever")
	assert.Error(t, err)

	st, err := ParseStartupType("auto")
	require.NoError(t, err)
	assert.Equal(t, Automatic, st)

	_, err = ParseStartupType("boot")
	assert.Error(t, err)
}

func TestScanReportsMissingServices(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	ctrl.FailOn(OpQuery, "Spooler", errInjected)
	a := newTestAdapter(t, ctrl, nil)

	doc, err := a.Scan(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"NotInstalled", "Spooler"}, doc.Missing)
	assert.Len(t, doc.Services, 5)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), doc.CapturedAt)

	names := make([]string, 0, len(doc.Services))
	for _, r := range doc.Services {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"DiagTrack", "Fax", "WSearch", "OVRService", "AudioSrv"}, names,
		"ordered by category rank then name")

	rec, ok := doc.Lookup("wsearch")
	require.True(t, ok)
	assert.Equal(t, "Windows Search", rec.DisplayName, "catalog display name fills in")
	assert.Equal(t, "Search", rec.Group)
}

func TestComputeOptimizedTarget(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, testController(), nil)
	current, err := a.Scan(context.Background())
	require.NoError(t, err)
	before := current.Clone()

	target := ComputeOptimizedTarget(current)

	assert.Equal(t, before, current, "current must not be modified")

	want := map[string]Record{
		"DiagTrack":  {StartupType: Disabled, RunState: Stopped},
		"Fax":        {StartupType: Disabled, RunState: Stopped},
		"WSearch":    {StartupType: Manual, RunState: Running},
		"Spooler":    {StartupType: Manual, RunState: Stopped},
		"OVRService": {StartupType: Automatic, RunState: Running},
		"AudioSrv":   {StartupType: Automatic, RunState: Running},
	}
	for name, w := range want {
		got, ok := target.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, w.StartupType, got.StartupType, name)
		assert.Equal(t, w.RunState, got.RunState, name)
	}
}

func TestComputeTargetPolicy(t *testing.T) {
	t.Parallel()

	policy, err := ParsePolicy([]string{"SafeToDisable"}, map[string]string{
		"fax":      "Skip",
		"Spooler":  "disabled",
		"AudioSrv": "Disabled",
	})
	require.NoError(t, err)

	a := newTestAdapter(t, testController(), nil)
	current, err := a.Scan(context.Background())
	require.NoError(t, err)

	target := ComputeTarget(current, policy)

	fax, _ := target.Lookup("Fax")
	assert.Equal(t, Manual, fax.StartupType, "skipped by override")

	spooler, _ := target.Lookup("Spooler")
	assert.Equal(t, Disabled, spooler.StartupType, "override applies outside enabled categories")
	assert.Equal(t, Stopped, spooler.RunState)

	search, _ := target.Lookup("WSearch")
	assert.Equal(t, Automatic, search.StartupType, "category not enabled")

	audio, _ := target.Lookup("AudioSrv")
	assert.Equal(t, Automatic, audio.StartupType, "KeepRunning is never changed")

	_, err = ParsePolicy(nil, map[string]string{"x": "sometimes"})
	assert.Error(t, err)
}

func TestApplyRequiresSnapshotter(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	a := newTestAdapter(t, ctrl, nil)
	current, err := a.Scan(context.Background())
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), ComputeOptimizedTarget(current), false)
	require.ErrorIs(t, err, ErrNoSafetySnapshot)

	_, err = a.Apply(context.Background(), ComputeOptimizedTarget(current), true)
	require.NoError(t, err, "dry run needs no snapshot")
	assert.Empty(t, ctrl.Mutations())
}

func TestApplyDryRunDoesNotMutate(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	a := newTestAdapter(t, ctrl, &recordingSnapshotter{})
	before, err := a.Scan(context.Background())
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), ComputeOptimizedTarget(before), true)
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.NotEmpty(t, res.Changes)
	assert.Empty(t, res.Applied)
	assert.Empty(t, res.SafetySnapshot)

	after, err := a.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.Services, after.Services)
	assert.Empty(t, ctrl.Mutations())
}

func TestApplyOrdersActions(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	snap := &recordingSnapshotter{}
	a := newTestAdapter(t, ctrl, snap)

	target := &Document{Services: []Record{
		{Name: "DiagTrack", Category: SafeToDisable, StartupType: Disabled, RunState: Stopped},
		{Name: "Spooler", Category: GamingOptimized, StartupType: Manual, RunState: Running},
	}}

	res, err := a.Apply(context.Background(), target, false)
	require.NoError(t, err)
	assert.Equal(t, "safety-1", res.SafetySnapshot)
	require.Len(t, snap.docs, 1)
	rec, _ := snap.docs[0].Lookup("DiagTrack")
	assert.Equal(t, Automatic, rec.StartupType, "snapshot holds the pre-apply state")

	assert.Equal(t, []Call{
		{Op: OpStop, Name: "DiagTrack"},
		{Op: OpSetStartup, Name: "DiagTrack", Value: "Disabled"},
		{Op: OpSetStartup, Name: "Spooler", Value: "Manual"},
		{Op: OpStart, Name: "Spooler"},
	}, ctrl.Mutations())
	assert.Len(t, res.Applied, 2)
}

func TestApplyCollectsFailures(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	ctrl.FailOn(OpSetStartup, "DiagTrack", errInjected)
	a := newTestAdapter(t, ctrl, &recordingSnapshotter{})

	current, err := a.Scan(context.Background())
	require.NoError(t, err)

	res, err := a.Apply(context.Background(), ComputeOptimizedTarget(current), false)
	require.ErrorIs(t, err, types.ErrPartialFailure)

	var pf *types.PartialFailureError
	require.ErrorAs(t, err, &pf)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "DiagTrack", res.Failed[0].Item)
	assert.Equal(t, len(res.Applied), pf.Succeeded)

	fax, err := ctrl.Query(context.Background(), "Fax")
	require.NoError(t, err)
	assert.Equal(t, Disabled, fax.StartupType, "later services are still attempted")
}

func TestApplySnapshotFailureAborts(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	a := newTestAdapter(t, ctrl, &recordingSnapshotter{err: errInjected})
	current, err := a.Scan(context.Background())
	require.NoError(t, err)

	_, err = a.Apply(context.Background(), ComputeOptimizedTarget(current), false)
	require.ErrorIs(t, err, errInjected)
	assert.Empty(t, ctrl.Mutations())
}

func TestOptimizeIsIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	snap := &recordingSnapshotter{}
	a := newTestAdapter(t, ctrl, snap)
	ctx := context.Background()

	first, err := a.Scan(ctx)
	require.NoError(t, err)
	_, err = a.Apply(ctx, ComputeOptimizedTarget(first), false)
	require.NoError(t, err)

	second, err := a.Scan(ctx)
	require.NoError(t, err)
	ctrl.ResetCalls()

	res, err := a.Apply(ctx, ComputeOptimizedTarget(second), false)
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
	assert.Empty(t, ctrl.Mutations())
	assert.Len(t, snap.docs, 1, "no snapshot when nothing changes")

	third, err := a.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Services, third.Services)
}

func TestApplyCancelled(t *testing.T) {
	t.Parallel()

	ctrl := testController()
	a := newTestAdapter(t, ctrl, &recordingSnapshotter{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Apply(ctx, &Document{Services: []Record{{Name: "Fax", StartupType: Disabled}}}, false)
	require.ErrorIs(t, err, types.ErrIncomplete)
	assert.Empty(t, ctrl.Mutations())
}

func TestMemoryControllerRefusesDisabledStart(t *testing.T) {
	t.Parallel()

	ctrl := NewMemoryController(Record{Name: "Fax", StartupType: Disabled, RunState: Stopped})
	assert.Error(t, ctrl.Start(context.Background(), "Fax"))
	assert.ErrorIs(t, ctrl.Stop(context.Background(), "Nope"), ErrServiceNotFound)
}

package restore

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var sampleFiles = map[string]string{
	"Config/options.lua":              `options = { graphics = { vsync = false } }`,
	"Config/Input/F-16C/joystick.lua": "bindings",
	"Config/autoexec.cfg":             "fps=on",
}

// captured writes sampleFiles, captures them and returns the backup and source root.
func captured(t *testing.T) (*snapshot.Backup, string) {
	t.Helper()
	src := t.TempDir()
	mod := time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC)
	for rel, content := range sampleFiles {
		p := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	m, err := manifest.NewBuilder(manifest.Options{Roots: []string{src}}).Build(context.Background())
	require.NoError(t, err)

	store, err := snapshot.Open(filepath.Join(t.TempDir(), "backups"))
	require.NoError(t, err)
	b, err := store.CaptureFiles(context.Background(), m, "")
	require.NoError(t, err)
	return b, src
}

func TestRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	b, src := captured(t)
	require.NoError(t, os.RemoveAll(src))

	res, err := NewEngine(nil).Restore(context.Background(), b, Options{Verify: true})
	require.NoError(t, err)
	assert.Equal(t, len(sampleFiles), res.Restored)
	assert.False(t, res.Incomplete)

	for _, e := range b.Manifest.Entries {
		data, err := os.ReadFile(e.SourcePath)
		require.NoError(t, err)
		assert.Equal(t, sampleFiles[e.RelativePath], string(data))

		info, err := os.Stat(e.SourcePath)
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(e.ModTime), "mtime restored for %s", e.RelativePath)
	}

	leftovers, err := filepath.Glob(filepath.Join(src, "Config", ".*.restore-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary files cleaned up")
}

func TestRestoreIsAdditiveAndIdempotent(t *testing.T) {
	t.Parallel()

	b, src := captured(t)
	extra := filepath.Join(src, "Config", "new-mod.lua")
	require.NoError(t, os.WriteFile(extra, []byte("keep me"), 0o644))
	options := filepath.Join(src, "Config", "options.lua")
	require.NoError(t, os.WriteFile(options, []byte("broken"), 0o644))

	engine := NewEngine(nil)
	res, err := engine.Restore(context.Background(), b, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Restored)
	assert.Equal(t, 2, res.Unchanged)
	assert.FileExists(t, extra, "files absent from the manifest are never deleted")

	res, err = engine.Restore(context.Background(), b, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Restored)
	assert.Equal(t, len(sampleFiles), res.Unchanged)
}

func TestRestoreDryRun(t *testing.T) {
	t.Parallel()

	b, src := captured(t)
	require.NoError(t, os.RemoveAll(filepath.Join(src, "Config", "Input")))

	res, err := NewEngine(nil).Restore(context.Background(), b, Options{DryRun: true, Verify: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	require.Len(t, res.Files, len(sampleFiles))
	assert.Equal(t, 1, res.Restored, "planned")
	assert.Equal(t, 2, res.Unchanged)
	assert.NoDirExists(t, filepath.Join(src, "Config", "Input"))

	for _, f := range res.Files {
		if f.RelativePath == "Config/Input/F-16C/joystick.lua" {
			assert.Equal(t, ActionRestore, f.Action)
		}
	}
}

func TestRestoreVerifyDetectsCorruption(t *testing.T) {
	t.Parallel()

	b, src := captured(t)
	require.NoError(t, os.WriteFile(b.DataPath("Config/autoexec.cfg"), []byte("tampered"), 0o644))
	target := filepath.Join(src, "Config", "autoexec.cfg")
	require.NoError(t, os.Remove(target))

	engine := NewEngine(nil)
	res, err := engine.Restore(context.Background(), b, Options{Verify: true})
	require.ErrorIs(t, err, types.ErrPartialFailure)
	require.ErrorIs(t, err, types.ErrIntegrityViolation)
	assert.Equal(t, 1, res.Failed)
	assert.NoFileExists(t, target, "corrupt copies are skipped")

	res, err = engine.Restore(context.Background(), b, Options{Verify: true, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Restored)
	assert.NotEmpty(t, res.Warnings)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "tampered", string(data))
}

func TestRestoreReadOnlyDestination(t *testing.T) {
	t.Parallel()

	b, src := captured(t)
	target := filepath.Join(src, "Config", "options.lua")
	require.NoError(t, os.WriteFile(target, []byte("changed"), 0o644))
	require.NoError(t, os.Chmod(target, 0o444))

	_, err := NewEngine(nil).Restore(context.Background(), b, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, sampleFiles["Config/options.lua"], string(data))
}

func TestRestorePermissionDenied(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}

	b, src := captured(t)
	dir := filepath.Join(src, "Config", "Input", "F-16C")
	require.NoError(t, os.Remove(filepath.Join(dir, "joystick.lua")))
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	engine := NewEngine(nil)
	res, err := engine.Restore(context.Background(), b, Options{})
	require.ErrorIs(t, err, types.ErrPartialFailure)
	require.ErrorIs(t, err, types.ErrPermissionDenied)
	assert.Equal(t, 1, res.Failed)

	var pf *types.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "Config/Input/F-16C/joystick.lua", pf.Failed[0].Item)
	assert.Equal(t, 2, pf.Succeeded)

	res, err = engine.Restore(context.Background(), b, Options{Force: true})
	require.NoError(t, err, "force downgrades permission errors")
	assert.Equal(t, 1, res.Skipped)
	assert.NotEmpty(t, res.Warnings)
}

func TestRestoreCancelled(t *testing.T) {
	t.Parallel()

	b, src := captured(t)
	require.NoError(t, os.RemoveAll(src))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewEngine(nil).Restore(ctx, b, Options{})
	require.ErrorIs(t, err, types.ErrIncomplete)
	assert.True(t, res.Incomplete)
	for _, f := range res.Files {
		assert.Equal(t, ActionNotAttempted, f.Action)
	}
}

func TestRestoreSkipsUnreadableEntries(t *testing.T) {
	t.Parallel()

	b, _ := captured(t)
	b.Manifest.Entries = append(b.Manifest.Entries, manifest.FileEntry{
		RelativePath: "zz/locked.lua",
		SourcePath:   filepath.Join(t.TempDir(), "locked.lua"),
		Status:       manifest.StatusUnreadable,
		Error:        "sharing violation",
	})

	res, err := NewEngine(nil).Restore(context.Background(), b, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.NoFileExists(t, b.Manifest.Entries[len(b.Manifest.Entries)-1].SourcePath)
}

func TestRestoreServices(t *testing.T) {
	t.Parallel()

	catalog, err := services.NewCatalog([]services.Definition{
		{Name: "DiagTrack", Category: services.SafeToDisable},
		{Name: "WSearch", Category: services.GamingOptimized},
	})
	require.NoError(t, err)
	ctrl := services.NewMemoryController(
		services.Record{Name: "DiagTrack", StartupType: services.Automatic, RunState: services.Running},
		services.Record{Name: "WSearch", StartupType: services.Automatic, RunState: services.Running},
	)
	clock := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	store, err := snapshot.Open(filepath.Join(t.TempDir(), "backups"), snapshot.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	require.NoError(t, err)
	adapter := services.NewAdapter(ctrl, services.WithCatalog(catalog), services.WithSnapshotter(store))
	ctx := context.Background()

	before, err := adapter.Scan(ctx)
	require.NoError(t, err)
	b, err := store.CaptureServices(ctx, before, "baseline")
	require.NoError(t, err)

	_, err = adapter.Apply(ctx, services.ComputeOptimizedTarget(before), false)
	require.NoError(t, err)

	engine := NewEngine(adapter)
	dry, err := engine.Restore(ctx, b, Options{DryRun: true})
	require.NoError(t, err)
	require.NotNil(t, dry.Services)
	assert.Len(t, dry.Services.Changes, 2)
	st, err := ctrl.Query(ctx, "DiagTrack")
	require.NoError(t, err)
	assert.Equal(t, services.Disabled, st.StartupType, "dry run changes nothing")

	res, err := engine.Restore(ctx, b, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Restored)
	assert.NotEmpty(t, res.Services.SafetySnapshot)

	after, err := adapter.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Services, after.Services)

	_, err = NewEngine(nil).Restore(ctx, b, Options{})
	assert.Error(t, err, "service restore needs an adapter")
}

package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zsmart-installer/internal/detect"
	"zsmart-installer/internal/installer"
	"zsmart-installer/internal/migrate"
	"zsmart-installer/internal/release"
	"zsmart-installer/internal/state"
)

const appName = "z-smart-server"

type fakeResolver struct {
	info  release.Info
	err   error
	calls int
}

func (f *fakeResolver) ResolveLatest(_ context.Context, repo string) (release.Info, error) {
	f.calls++
	return f.info, f.err
}

// fakeInstaller writes files into the target and then returns err.
type fakeInstaller struct {
	files map[string]string
	err   error
	calls int
}

func (f *fakeInstaller) Install(_ context.Context, _ string, dir string) (installer.Result, error) {
	f.calls++
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return installer.Result{}, err
	}
	for name, body := range f.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return installer.Result{}, err
		}
	}
	return installer.Result{Entries: len(f.files)}, f.err
}

type fakeMigrator struct {
	invs []migrate.Invocation
	err  error
}

func (f *fakeMigrator) Migrate(_ context.Context, inv migrate.Invocation) error {
	f.invs = append(f.invs, inv)
	return f.err
}

type answer struct {
	yes   bool
	asked []string
}

func (a *answer) Confirm(q string) bool {
	a.asked = append(a.asked, q)
	return a.yes
}

func manifest(v string) string {
	return fmt.Sprintf(`{"name": %q, "version": %q}`, appName, v)
}

func installedDir(t *testing.T, v string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest(v)), 0o644))
	return dir
}

func newOrchestrator(res *fakeResolver, inst *fakeInstaller, mig migrate.Runner) *Orchestrator {
	return &Orchestrator{
		Repo:          "acme/z-smart-server",
		MigrationsDir: "migrations",
		Detector:      detect.Detector{AppName: appName, Manifest: "package.json"},
		Resolver:      res,
		Installer:     inst,
		Migrator:      mig,
		now:           func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) },
	}
}

func latest(tag string) *fakeResolver {
	return &fakeResolver{info: release.Info{Tag: tag, AssetURL: "https://dl/" + tag + "/z-smart-server.zip"}}
}

func lastEntry(t *testing.T, dir string) state.Entry {
	t.Helper()
	e, ok := state.LoadState(state.Path(dir)).Last()
	require.True(t, ok, "journal entry expected")
	return e
}

func TestInstall_FreshDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	inst := &fakeInstaller{files: map[string]string{"package.json": manifest("0.0.0"), "index.js": "//"}}
	mig := &fakeMigrator{}

	out, err := newOrchestrator(latest("v2.1.0"), inst, mig).Install(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, Committed, out.Result)
	assert.Equal(t, ActionInstall, out.Plan.Action)
	assert.False(t, out.Before.Present)
	assert.Empty(t, mig.invs, "fresh installs have nothing to migrate")
	assert.Equal(t, detect.State{Dir: dir, Present: true, Version: "2.1.0"}, detect.Detector{AppName: appName, Manifest: "package.json"}.Detect(dir))

	e := lastEntry(t, dir)
	assert.Equal(t, "committed", e.Result)
	assert.Equal(t, "install", e.Operation)
}

func TestUpdate_RunsMigrationsInOrder(t *testing.T) {
	dir := installedDir(t, "1.3.0")
	mig := &fakeMigrator{}

	out, err := newOrchestrator(latest("v2.1.0"), &fakeInstaller{}, mig).Update(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, Committed, out.Result)
	assert.Empty(t, out.Warning)
	require.Len(t, mig.invs, 1)
	assert.Equal(t, migrate.Invocation{
		Dir:           dir,
		MigrationsDir: filepath.Join(dir, "migrations"),
		From:          "1.3.0",
		To:            "2.1.0",
	}, mig.invs[0])
}

func TestUpdate_Noop(t *testing.T) {
	dir := installedDir(t, "2.1.0")
	inst := &fakeInstaller{}

	out, err := newOrchestrator(latest("v2.1.0"), inst, &fakeMigrator{}).Update(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, Noop, out.Result)
	assert.Equal(t, ActionNoop, out.Plan.Action)
	assert.Zero(t, inst.calls)
	assert.Equal(t, "noop", lastEntry(t, dir).Result)
}

func TestUpdate_ForceReinstallSkipsMigration(t *testing.T) {
	dir := installedDir(t, "2.1.0")
	inst := &fakeInstaller{}
	mig := &fakeMigrator{}

	out, err := newOrchestrator(latest("v2.1.0"), inst, mig).Update(context.Background(), dir, true)
	require.NoError(t, err)

	assert.Equal(t, Committed, out.Result)
	assert.Equal(t, ActionInstall, out.Plan.Action)
	assert.False(t, out.Plan.RequiresMigration)
	assert.Equal(t, 1, inst.calls)
	assert.Empty(t, mig.invs)
}

func TestUpdate_UnknownVersionUpdatesWithoutMigration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "z-smart-server"}`), 0o644))
	mig := &fakeMigrator{}

	out, err := newOrchestrator(latest("v2.1.0"), &fakeInstaller{}, mig).Update(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, out.Plan.Action)
	assert.Empty(t, mig.invs)
	assert.Equal(t, "2.1.0", detect.Detector{AppName: appName, Manifest: "package.json"}.Detect(dir).Version)
}

func TestUpdate_MigrationProblemsAreWarnings(t *testing.T) {
	tests := []struct {
		name string
		mig  migrate.Runner
	}{
		{name: "no runner", mig: nil},
		{name: "runner missing", mig: &fakeMigrator{err: fmt.Errorf("%w: migrate.js", migrate.ErrRunnerMissing)}},
		{name: "runner fails", mig: &fakeMigrator{err: errors.New("exit status 2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := installedDir(t, "1.0.0")

			out, err := newOrchestrator(latest("v1.1.0"), &fakeInstaller{}, tt.mig).Update(context.Background(), dir, false)
			require.NoError(t, err)
			assert.Equal(t, Committed, out.Result)
			assert.NotEmpty(t, out.Warning)
			assert.Equal(t, "1.1.0", detect.Detector{AppName: appName, Manifest: "package.json"}.Detect(dir).Version)
			assert.Equal(t, out.Warning, lastEntry(t, dir).Warning)
		})
	}
}

func TestUpdate_InstallFailureDoesNotCommit(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		stage Stage
	}{
		{name: "download", err: fmt.Errorf("%w: HTTP 500", installer.ErrDownload), stage: StageDownload},
		{name: "mid extract", err: fmt.Errorf("%w: unexpected EOF", installer.ErrExtract), stage: StageExtract},
		{name: "dependencies", err: fmt.Errorf("%w: npm failed", installer.ErrDependencyInstall), stage: StageDependencies},
		{name: "filesystem", err: fmt.Errorf("%w: disk full", installer.ErrIO), stage: StageFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := installedDir(t, "1.3.0")
			inst := &fakeInstaller{files: map[string]string{"half-written.js": "partial"}, err: tt.err}
			mig := &fakeMigrator{}

			out, err := newOrchestrator(latest("v2.1.0"), inst, mig).Update(context.Background(), dir, false)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.err)

			assert.Equal(t, Failed, out.Result)
			assert.Equal(t, tt.stage, FailedStage(err))
			assert.NotEmpty(t, RecoveryHint(tt.stage))
			assert.Empty(t, mig.invs)

			// Next detection still reports the pre-update version
			st := detect.Detector{AppName: appName, Manifest: "package.json"}.Detect(dir)
			assert.Equal(t, "1.3.0", st.Version)
			assert.FileExists(t, filepath.Join(dir, "half-written.js"), "no rollback is performed")

			e := lastEntry(t, dir)
			assert.Equal(t, "failed", e.Result)
			assert.Equal(t, string(tt.stage), e.Stage)
		})
	}
}

func TestResolutionFailureTouchesNothing(t *testing.T) {
	tests := []struct {
		name  string
		res   *fakeResolver
		cause error
	}{
		{name: "network", res: &fakeResolver{err: fmt.Errorf("%w: connection refused", release.ErrNetwork)}, cause: release.ErrNetwork},
		{name: "timeout", res: &fakeResolver{err: &release.TimeoutError{Err: context.DeadlineExceeded}}, cause: release.ErrNetwork},
		{name: "not found", res: &fakeResolver{err: release.ErrNotFound}, cause: release.ErrNotFound},
		{name: "no asset", res: &fakeResolver{info: release.Info{Tag: "v2.1.0"}}, cause: ErrResolutionFailed},
		{name: "bad tag", res: &fakeResolver{info: release.Info{Tag: "latest", AssetURL: "https://dl/a.zip"}}, cause: ErrResolutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			inst := &fakeInstaller{}

			out, err := newOrchestrator(tt.res, inst, nil).Install(context.Background(), dir, false)
			require.ErrorIs(t, err, ErrResolutionFailed)
			require.ErrorIs(t, err, tt.cause)

			assert.Equal(t, Failed, out.Result)
			assert.Zero(t, inst.calls)
			entries, readErr := os.ReadDir(dir)
			require.NoError(t, readErr)
			assert.Empty(t, entries)
		})
	}
}

func TestUpdate_NotInstalled(t *testing.T) {
	res := latest("v2.1.0")

	_, err := newOrchestrator(res, &fakeInstaller{}, nil).Update(context.Background(), t.TempDir(), false)
	require.ErrorIs(t, err, ErrNotInstalled)
	assert.Equal(t, StageDetect, FailedStage(err))
	assert.Zero(t, res.calls)
}

func TestCheck(t *testing.T) {
	dir := installedDir(t, "1.0.0")
	inst := &fakeInstaller{}

	st, p, err := newOrchestrator(latest("v1.2.0"), inst, nil).Check(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", st.Version)
	assert.Equal(t, ActionUpdate, p.Action)
	assert.Zero(t, inst.calls)
}

func TestUninstall(t *testing.T) {
	o := newOrchestrator(latest("v1.0.0"), &fakeInstaller{}, nil)

	t.Run("requires confirmation", func(t *testing.T) {
		dir := installedDir(t, "1.0.0")
		no := &answer{}

		st, err := o.Uninstall(dir, no)
		require.ErrorIs(t, err, ErrNotConfirmed)
		assert.True(t, st.Present)
		assert.Len(t, no.asked, 1)
		assert.FileExists(t, filepath.Join(dir, "package.json"))

		_, err = o.Uninstall(dir, nil)
		require.ErrorIs(t, err, ErrNotConfirmed)
	})

	t.Run("confirmed wipes directory", func(t *testing.T) {
		dir := installedDir(t, "1.0.0")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local"), []byte("x"), 0o644))

		st, err := o.Uninstall(dir, &answer{yes: true})
		require.NoError(t, err)
		assert.Equal(t, detect.State{Dir: dir}, st)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("absent is not wiped", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))
		yes := &answer{yes: true}

		_, err := o.Uninstall(dir, yes)
		require.ErrorIs(t, err, ErrNotInstalled)
		assert.Contains(t, err.Error(), "run install again")
		assert.Empty(t, yes.asked)
		assert.FileExists(t, filepath.Join(dir, "unrelated.txt"))
	})
}

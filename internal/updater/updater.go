package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"zsmart-installer/internal/detect"
	"zsmart-installer/internal/installer"
	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/migrate"
	"zsmart-installer/internal/release"
	"zsmart-installer/internal/state"
)

// Result is the terminal state of a cycle.
type Result string

const (
	Committed Result = "committed"
	Failed    Result = "failed"
	Noop      Result = "noop"
)

// Resolver finds the latest release of a repository.
type Resolver interface {
	ResolveLatest(ctx context.Context, repo string) (release.Info, error)
}

// ArchiveInstaller lays a release archive over an install directory.
type ArchiveInstaller interface {
	Install(ctx context.Context, assetURL, targetDir string) (installer.Result, error)
}

// Confirmer asks the user for an explicit yes.
type Confirmer interface {
	Confirm(question string) bool
}

// Outcome summarises a finished cycle.
type Outcome struct {
	Result  Result
	Before  detect.State
	Plan    Plan
	Warning string // Set when migrations were skipped or failed
}

// Orchestrator runs cycles against install directories. It keeps no
// install state between calls; every cycle re-reads the filesystem.
type Orchestrator struct {
	Repo          string
	MigrationsDir string // Relative to the install directory
	Detector      detect.Detector
	Resolver      Resolver
	Installer     ArchiveInstaller
	Migrator      migrate.Runner // nil means the release ships no migrations

	now func() time.Time
}

// Install installs the latest release into dir. An existing installation
// is treated like Update; force reinstalls an up-to-date one.
func (o *Orchestrator) Install(ctx context.Context, dir string, force bool) (Outcome, error) {
	return o.run(ctx, "install", dir, force, false)
}

// Update brings an existing installation in dir to the latest release.
func (o *Orchestrator) Update(ctx context.Context, dir string, force bool) (Outcome, error) {
	return o.run(ctx, "update", dir, force, true)
}

// Check detects and resolves without changing anything, returning the plan
// an Install would execute.
func (o *Orchestrator) Check(ctx context.Context, dir string) (detect.State, Plan, error) {
	st := o.Detector.Detect(dir)
	p, err := o.resolve(ctx, st, false)
	return st, p, err
}

func (o *Orchestrator) run(ctx context.Context, op, dir string, force, requirePresent bool) (Outcome, error) {
	out := Outcome{Result: Failed}

	// DETECTED
	out.Before = o.Detector.Detect(dir)
	logger.Info("[INFO] Current state: %s\n", out.Before)
	if requirePresent && !out.Before.Present {
		return out, &StageError{Stage: StageDetect, Err: fmt.Errorf("%w in %s", ErrNotInstalled, dir)}
	}

	// RESOLVED and PLANNED. Nothing on disk has changed if this fails.
	p, err := o.resolve(ctx, out.Before, force)
	if err != nil {
		if out.Before.Present {
			o.journal(op, dir, out, FailedStage(err), err)
		}
		return out, err
	}
	out.Plan = p
	logger.Info("[INFO] Plan: %s\n", p)

	if p.Action == ActionNoop {
		out.Result = Noop
		o.journal(op, dir, out, StagePlan, nil)
		return out, nil
	}

	// EXECUTING
	if _, err := o.Installer.Install(ctx, p.AssetURL, dir); err != nil {
		serr := &StageError{Stage: installStage(err), Err: err}
		logger.Error("[ERROR] %v\n", serr)
		o.journal(op, dir, out, serr.Stage, serr)
		return out, serr
	}

	if p.RequiresMigration {
		out.Warning = o.runMigrations(ctx, dir, p)
	}

	// COMMITTED
	if err := o.Detector.CommitVersion(dir, p.To); err != nil {
		serr := &StageError{Stage: StageCommit, Err: fmt.Errorf("%w: %w", installer.ErrIO, err)}
		logger.Error("[ERROR] %v\n", serr)
		o.journal(op, dir, out, StageCommit, serr)
		return out, serr
	}
	out.Result = Committed
	o.journal(op, dir, out, StageCommit, nil)
	logger.Info("[INFO] %s %s committed in %s\n", o.Detector.AppName, p.To, dir)
	return out, nil
}

// resolve queries the release index and plans against st.
func (o *Orchestrator) resolve(ctx context.Context, st detect.State, force bool) (Plan, error) {
	info, err := o.Resolver.ResolveLatest(ctx, o.Repo)
	if err != nil {
		return Plan{}, &StageError{Stage: StageResolve, Err: fmt.Errorf("%w: %w", ErrResolutionFailed, err)}
	}
	if info.AssetURL == "" {
		return Plan{}, &StageError{Stage: StageResolve, Err: fmt.Errorf("%w: release %s has no installable asset", ErrResolutionFailed, info.Tag)}
	}
	logger.Debug("[DEBUG] Latest release %s at %s\n", info.Tag, info.AssetURL)

	p, err := Decide(st, info, force)
	if err != nil {
		return Plan{}, &StageError{Stage: StagePlan, Err: fmt.Errorf("%w: %w", ErrResolutionFailed, err)}
	}
	return p, nil
}

// runMigrations runs the migration collaborator. Any problem is downgraded to a
// warning so the version bump still commits.
func (o *Orchestrator) runMigrations(ctx context.Context, dir string, p Plan) string {
	if o.Migrator == nil {
		w := "no migration runner configured, skipping migrations"
		logger.Warn("[WARN] %s\n", w)
		return w
	}

	inv := migrate.Invocation{
		Dir:           dir,
		MigrationsDir: filepath.Join(dir, o.MigrationsDir),
		From:          p.From,
		To:            p.To,
	}
	err := o.Migrator.Migrate(ctx, inv)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, migrate.ErrRunnerMissing):
		w := fmt.Sprintf("migrations skipped: %v", err)
		logger.Warn("[WARN] %s\n", w)
		return w
	default:
		w := fmt.Sprintf("migrations failed, data may need manual migration: %v", err)
		logger.Warn("[WARN] %s\n", w)
		return w
	}
}

// Uninstall removes everything in dir after an explicit confirmation.
func (o *Orchestrator) Uninstall(dir string, confirm Confirmer) (detect.State, error) {
	st := o.Detector.Detect(dir)
	if !st.Present {
		// An interrupted first install may not have written the manifest yet
		err := fmt.Errorf("%w in %s (no %s naming %s); if an earlier install was interrupted, run install again to complete it before uninstalling",
			ErrNotInstalled, dir, o.Detector.Manifest, o.Detector.AppName)
		return st, &StageError{Stage: StageDetect, Err: err}
	}

	question := fmt.Sprintf("Delete everything in %s (%s)?", dir, st)
	if confirm == nil || !confirm.Confirm(question) {
		return st, ErrNotConfirmed
	}

	if err := installer.Wipe(dir); err != nil {
		return o.Detector.Detect(dir), &StageError{Stage: StageUninstall, Err: err}
	}
	logger.Info("[INFO] Removed %s from %s\n", o.Detector.AppName, dir)
	return detect.State{Dir: dir}, nil
}

// journal records the cycle in dir when dir exists. It never creates the
// directory just to log.
func (o *Orchestrator) journal(op, dir string, out Outcome, stage Stage, err error) {
	if _, statErr := os.Stat(dir); statErr != nil {
		return
	}
	now := time.Now
	if o.now != nil {
		now = o.now
	}

	e := state.Entry{
		Operation: op,
		Action:    string(out.Plan.Action),
		From:      out.Before.Version,
		To:        out.Plan.To,
		Stage:     string(stage),
		Result:    string(out.Result),
		Warning:   out.Warning,
		At:        now().UTC(),
	}
	if err != nil {
		e.Result = string(Failed)
		e.Error = err.Error()
	}

	path := state.Path(dir)
	st := state.LoadState(path)
	st.Record(e)
	state.SaveState(path, st)
}

// installStage maps an installer error to the stage it came from.
func installStage(err error) Stage {
	switch {
	case errors.Is(err, installer.ErrDownload):
		return StageDownload
	case errors.Is(err, installer.ErrExtract):
		return StageExtract
	case errors.Is(err, installer.ErrDependencyInstall):
		return StageDependencies
	}
	return StageFiles
}

package updater

import (
	"errors"
	"fmt"
)

var (
	// ErrResolutionFailed aborts a cycle before anything on disk changed.
	ErrResolutionFailed = errors.New("release resolution failed")
	// ErrNotInstalled is returned by Update and Uninstall on a directory without the application.
	ErrNotInstalled = errors.New("application is not installed")
	// ErrNotConfirmed is returned when uninstall was not explicitly confirmed.
	ErrNotConfirmed = errors.New("uninstall not confirmed")
)

// Stage names a step of the cycle.
type Stage string

const (
	StageDetect       Stage = "detect"
	StageResolve      Stage = "resolve"
	StagePlan         Stage = "plan"
	StageDownload     Stage = "download"
	StageExtract      Stage = "extract"
	StageFiles        Stage = "files"
	StageDependencies Stage = "dependencies"
	StageCommit       Stage = "commit"
	StageUninstall    Stage = "uninstall"
)

// StageError reports which stage of a cycle failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage carried by err, or "" when err has none.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// RecoveryHint suggests what a user can do after a failed stage.
func RecoveryHint(stage Stage) string {
	switch stage {
	case StageResolve:
		return "nothing was changed; check network access or set GITHUB_TOKEN and retry"
	case StageDownload:
		return "the download did not complete; retry the update"
	case StageExtract, StageFiles:
		return "files may be partially replaced; retry the update or reinstall with --force"
	case StageDependencies:
		return "files are in place but dependencies are incomplete; run the dependency command manually or retry"
	case StageCommit:
		return "files are current but the manifest version was not recorded; rerun the update"
	}
	return ""
}

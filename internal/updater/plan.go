// Package updater drives install, update and uninstall cycles for one
// install directory: detect, resolve, plan, execute, commit.
package updater

import (
	"fmt"

	"zsmart-installer/internal/detect"
	"zsmart-installer/internal/release"
	"zsmart-installer/internal/version"
)

// Action is what a cycle decided to do.
type Action string

const (
	ActionNoop    Action = "noop"
	ActionInstall Action = "install"
	ActionUpdate  Action = "update"
)

// Plan is derived from the detected state and the resolved release.
type Plan struct {
	Action            Action
	From              string // Installed version, empty when absent or unknown
	To                string // Release version without the leading "v"
	AssetURL          string
	RequiresMigration bool
}

func (p Plan) String() string {
	switch p.Action {
	case ActionNoop:
		return fmt.Sprintf("%s is up to date", p.To)
	case ActionInstall:
		return fmt.Sprintf("install %s", p.To)
	}
	from := p.From
	if from == "" {
		from = "unknown version"
	}
	return fmt.Sprintf("update %s -> %s", from, p.To)
}

// Decide turns the current state and latest release into a Plan.
// force turns an up-to-date installation into a reinstall without migration.
func Decide(st detect.State, info release.Info, force bool) (Plan, error) {
	p := Plan{To: info.Version(), AssetURL: info.AssetURL}
	if !version.Valid(p.To) {
		return Plan{}, fmt.Errorf("release tag %q: %w", info.Tag, version.ErrInvalidVersion)
	}

	switch {
	case !st.Present:
		p.Action = ActionInstall
		return p, nil
	case !st.Known():
		// Installed but version unreadable: always update, nothing to migrate from
		p.Action = ActionUpdate
		return p, nil
	}

	p.From = st.Version
	cmp, err := version.Compare(st.Version, p.To)
	if err != nil {
		return Plan{}, err
	}
	if cmp == version.Equal {
		if force {
			p.Action = ActionInstall
			return p, nil
		}
		p.Action = ActionNoop
		return p, nil
	}

	// Anything else, including a local version newer than the release, is
	// brought in line with the latest release.
	p.Action = ActionUpdate
	p.RequiresMigration = true
	return p, nil
}

// Package detect inspects a directory for an installed copy of the
// application by reading its manifest.
package detect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/version"
)

// State is what the filesystem says about dir right now.
// Present is false whenever Version is empty and nothing was found;
// Present with an empty Version means an installation of unknown version.
type State struct {
	Dir     string
	Present bool
	Version string
}

// Known reports whether an installed version could be read.
func (s State) Known() bool {
	return s.Present && s.Version != ""
}

func (s State) String() string {
	switch {
	case !s.Present:
		return fmt.Sprintf("not installed in %s", s.Dir)
	case s.Version == "":
		return fmt.Sprintf("installed in %s (unknown version)", s.Dir)
	}
	return fmt.Sprintf("version %s installed in %s", s.Version, s.Dir)
}

// Detector recognises the application by the name in its manifest.
type Detector struct {
	AppName  string // Expected manifest "name"
	Manifest string // Manifest filename, e.g. package.json
}

// manifestFields is the part of the manifest the detector reads. Version is
// raw so a non-string value degrades to "unknown" instead of failing.
type manifestFields struct {
	Name    *string         `json:"name"`
	Version json.RawMessage `json:"version"`
}

// Detect reads the manifest in dir. It never fails: unreadable or foreign
// manifests mean "not installed", an unusable version means "unknown".
func (d Detector) Detect(dir string) State {
	st := State{Dir: dir}
	path := filepath.Join(dir, d.Manifest)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("[WARN] Cannot read %s: %v\n", path, err)
		}
		return st
	}

	var m manifestFields
	if err := json.Unmarshal(raw, &m); err != nil {
		logger.Debug("[DEBUG] %s is not valid JSON: %v\n", path, err)
		return st
	}
	if m.Name == nil || *m.Name != d.AppName {
		logger.Debug("[DEBUG] %s belongs to another package, ignoring\n", path)
		return st
	}
	st.Present = true

	var v string
	if len(m.Version) == 0 || json.Unmarshal(m.Version, &v) != nil {
		logger.Warn("[WARN] %s has no readable version field\n", path)
		return st
	}
	v = version.Normalize(v)
	if !version.Valid(v) {
		logger.Warn("[WARN] %s declares unparsable version %q\n", path, v)
		return st
	}
	st.Version = v
	return st
}

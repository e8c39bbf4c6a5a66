// Package toolchain checks for the language runtime the application needs
// and can hand off to an installer command when it is missing.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/shell"
	"zsmart-installer/internal/version"
)

// ErrMissing is returned when the runtime binary is not on PATH.
var ErrMissing = errors.New("runtime not installed")

// Info describes a detected runtime.
type Info struct {
	Path    string
	Version string // Normalized, e.g. 20.11.1; empty when unparsable
}

// Checker looks up and installs the runtime.
type Checker struct {
	Runner         shell.Runner
	Command        string   // e.g. node
	InstallCommand []string // Opaque installer, pass/fail

	lookPath func(string) (string, error)
}

// Check reports where the runtime lives and which version it is.
func (c *Checker) Check(ctx context.Context) (Info, error) {
	look := c.lookPath
	if look == nil {
		look = shell.LookPath
	}
	path, err := look(c.Command)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s", ErrMissing, c.Command)
	}

	info := Info{Path: path}
	out, err := c.runner().Run(ctx, "", path, "--version")
	if err != nil {
		logger.Warn("[WARN] %s --version failed: %v\n", c.Command, err)
		return info, nil
	}
	if v := version.Normalize(strings.TrimSpace(string(out))); version.Valid(v) {
		info.Version = v
	}
	return info, nil
}

// Install runs the configured install command.
func (c *Checker) Install(ctx context.Context) error {
	if len(c.InstallCommand) == 0 {
		return fmt.Errorf("no install command configured for %s", c.Command)
	}
	logger.Info("[INFO] Installing %s: %s\n", c.Command, strings.Join(c.InstallCommand, " "))
	output, err := c.runner().Run(ctx, "", c.InstallCommand[0], c.InstallCommand[1:]...)
	if err != nil {
		return fmt.Errorf("installing %s: %w\nOutput: %s", c.Command, err, output)
	}
	logger.Debug("[DEBUG] Runtime install output:\n%s\n", output)
	return nil
}

func (c *Checker) runner() shell.Runner {
	if c.Runner == nil {
		return shell.Exec{}
	}
	return c.Runner
}

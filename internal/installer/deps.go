package installer

import (
	"context"
	"errors"
	"fmt"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/shell"
)

// DependencyInstaller installs the application's production dependencies
// inside the install directory.
type DependencyInstaller interface {
	InstallDependencies(ctx context.Context, dir string) error
}

// CommandDependencies runs a package manager command such as
// `npm install --production` in the install directory.
type CommandDependencies struct {
	Runner  shell.Runner
	Command []string
}

// InstallDependencies implements DependencyInstaller.
func (c CommandDependencies) InstallDependencies(ctx context.Context, dir string) error {
	if len(c.Command) == 0 {
		logger.Debug("[DEBUG] No dependency command configured, skipping\n")
		return nil
	}
	runner := c.Runner
	if runner == nil {
		runner = shell.Exec{}
	}

	logger.Info("[INFO] Installing dependencies: %v\n", c.Command)
	output, err := runner.Run(ctx, dir, c.Command[0], c.Command[1:]...)
	if err != nil {
		if errors.Is(err, shell.ErrNotFound) {
			return fmt.Errorf("%s is not installed: %w", c.Command[0], err)
		}
		return fmt.Errorf("%w\nOutput: %s", err, output)
	}
	logger.Debug("[DEBUG] Dependency install output:\n%s\n", output)
	return nil
}

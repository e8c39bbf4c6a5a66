// Package shell runs the external programs the installer delegates to
// (npm, node, systemctl, the runtime installer).
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"zsmart-installer/internal/logger"
)

// ErrNotFound is returned when the program is not on PATH.
var ErrNotFound = errors.New("command not found")

// Runner executes a program in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// Exec runs programs with os/exec.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	logger.Debug("[DEBUG] Running command in %s: %s %s\n", dir, name, strings.Join(args, " "))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}

// LookPath reports the absolute path of name, or ErrNotFound.
func LookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

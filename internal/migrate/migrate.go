// Package migrate hands version-to-version migrations to the script the
// application ships. What a migration does is up to the application.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/shell"
)

// ErrRunnerMissing is returned when the install has no migration script.
var ErrRunnerMissing = errors.New("migration runner not found")

// Invocation is the contract passed to the migration script.
type Invocation struct {
	Dir           string // Install directory the script runs in
	MigrationsDir string
	From          string
	To            string
}

// Runner applies pending migrations between two versions.
type Runner interface {
	Migrate(ctx context.Context, inv Invocation) error
}

// ScriptRunner executes `<interpreter> <script> <migrationsDir> <from> <to>`
// inside the install directory.
type ScriptRunner struct {
	Runner      shell.Runner
	Interpreter string // e.g. node
	Script      string // Relative to the install directory
}

// Migrate implements Runner.
func (s ScriptRunner) Migrate(ctx context.Context, inv Invocation) error {
	script := filepath.Join(inv.Dir, s.Script)
	if _, err := os.Stat(script); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrRunnerMissing, script)
		}
		return fmt.Errorf("checking %s: %w", script, err)
	}

	runner := s.Runner
	if runner == nil {
		runner = shell.Exec{}
	}

	logger.Info("[INFO] Running migrations %s -> %s\n", inv.From, inv.To)
	output, err := runner.Run(ctx, inv.Dir, s.Interpreter, script, inv.MigrationsDir, inv.From, inv.To)
	if err != nil {
		if errors.Is(err, shell.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrRunnerMissing, err)
		}
		return fmt.Errorf("migration %s -> %s failed: %w\nOutput: %s", inv.From, inv.To, err, output)
	}
	logger.Debug("[DEBUG] Migration output:\n%s\n", output)
	return nil
}

package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"zsmart-installer/internal/logger"
)

// Wipe deletes everything inside dir but keeps dir itself. It is the only
// operation that removes files the release did not ship.
func Wipe(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	// Keep going past failures so as much as possible is removed
	var failed []error
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		logger.Debug("[DEBUG] Removing %s\n", path)
		if err := os.RemoveAll(path); err != nil {
			logger.Error("[ERROR] Failed to remove %s: %v\n", path, err)
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d entries could not be removed: %w", ErrIO, len(failed), errors.Join(failed...))
	}
	return nil
}

package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/shell"
	"zsmart-installer/internal/toolchain"
)

// runtimeCmd exits non-zero when the runtime is still missing afterwards.
var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Check for the Node.js runtime and offer to install it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ensureRuntime(cmd.Context(), newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())) {
			return nil
		}
		return toolchain.ErrMissing
	},
}

// newChecker builds a runtime Checker from the loaded configuration.
func newChecker() *toolchain.Checker {
	return &toolchain.Checker{
		Runner:         shell.Exec{},
		Command:        cfg.Runtime.Command,
		InstallCommand: cfg.Runtime.InstallCommand,
	}
}

// ensureRuntime reports whether the runtime is available, asking through p
// whether to install it when it is not. The application cannot run without
// it, but files can still be installed, so callers only warn on false.
func ensureRuntime(ctx context.Context, p *prompter) bool {
	checker := newChecker()
	info, err := checker.Check(ctx)
	if err == nil {
		logger.Info("[INFO] %s found at %s (version %s)\n", cfg.Runtime.Command, info.Path, orUnknown(info.Version))
		return true
	}
	if !errors.Is(err, toolchain.ErrMissing) {
		logger.Warn("[WARN] %v\n", err)
		return false
	}

	// Installing a runtime changes the system, so it always needs a yes
	logger.Warn("[WARN] %s is not installed\n", cfg.Runtime.Command)
	if !p.Confirm("Install " + cfg.Runtime.Command + " now?") {
		logger.Warn("[WARN] Continuing without %s; the application will not start until it is installed\n", cfg.Runtime.Command)
		return false
	}
	if err := checker.Install(ctx); err != nil {
		logger.Error("[ERROR] %v\n", err)
		return false
	}
	// The installer may succeed without putting the binary on our PATH
	if _, err := checker.Check(ctx); err != nil {
		logger.Error("[ERROR] %s still not found after install: %v\n", cfg.Runtime.Command, err)
		return false
	}
	logger.Info("[INFO] %s installed\n", cfg.Runtime.Command)
	return true
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func init() {
	rootCmd.AddCommand(runtimeCmd)
}

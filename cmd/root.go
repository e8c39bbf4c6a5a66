package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"zsmart-installer/internal/config"
	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/shell"
	"zsmart-installer/internal/updater"
)

var (
	debug      bool   // --debug enables verbose logging
	noColor    bool   // --no-color disables ANSI colors
	configPath string // --config points at the YAML settings file
	installDir string // --dir is the directory the application lives in

	cfg config.Config
)

// errNotInteractive is returned when the menu would be opened without a terminal.
var errNotInteractive = errors.New(`standard input is not a terminal; pass a subcommand, or use "menu" to read choices from it`)

// rootCmd is the base command. Without a subcommand it opens the interactive menu.
var rootCmd = &cobra.Command{
	Use:           "zsmart-installer",
	Short:         "Install, update and manage z-smart-server",
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRunE sets up logging and loads configuration before any subcommand.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(debug)
		if noColor {
			logger.DisableColor()
		}

		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debug("[DEBUG] Using repo %s, install dir %s\n", cfg.Repo, installDir)
		return nil
	},
	// RunE opens the menu only for a person at a terminal; piped input
	// without a subcommand gets the help text instead.
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(cmd.InOrStdin()) {
			_ = cmd.Help()
			return errNotInteractive
		}
		return runMenu(cmd)
	},
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&installDir, "dir", "d", ".", "Installation directory")

	if err := rootCmd.Execute(); err != nil {
		report(err)
		return 1
	}
	return 0
}

// report prints err with the recovery hint for the failed stage, if any.
func report(err error) {
	if errors.Is(err, updater.ErrNotConfirmed) {
		logger.Warn("[WARN] %v\n", err)
		return
	}
	logger.Error("[ERROR] %v\n", err)
	if hint := updater.RecoveryHint(updater.FailedStage(err)); hint != "" {
		logger.Warn("[WARN] %s\n", hint)
	}
}

func newOrchestrator() *updater.Orchestrator {
	return updater.New(cfg, shell.Exec{})
}

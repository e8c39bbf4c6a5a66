package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"zsmart-installer/internal/detect"
	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/service"
	"zsmart-installer/internal/shell"
)

// serviceCmd groups the start-at-boot subcommands. It does nothing on its own.
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage start-at-boot registration (systemd)",
}

// serviceEnableCmd writes the unit file and enables it, refusing when the
// application is not installed in --dir.
var serviceEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Register and start the application as a systemd service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := detector().Detect(installDir)
		if !st.Present {
			return fmt.Errorf("%s is not installed in %s", cfg.AppName, installDir)
		}
		return skipUnsupported(newServiceManager().Enable(cmd.Context(), installDir))
	},
}

// serviceDisableCmd stops the unit and deletes its file.
var serviceDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop the service and remove its registration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return skipUnsupported(newServiceManager().Disable(cmd.Context()))
	},
}

// serviceStatusCmd asks systemd whether the unit is enabled.
var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the service starts at boot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := newServiceManager().Enabled(cmd.Context())
		if err != nil {
			return skipUnsupported(err)
		}
		logger.Info("[INFO] Start at boot: %t\n", on)
		return nil
	},
}

// detector builds a Detector from the loaded configuration.
func detector() detect.Detector {
	return detect.Detector{AppName: cfg.AppName, Manifest: cfg.Manifest}
}

// newServiceManager configures systemd registration for the runtime found on PATH.
func newServiceManager() *service.Manager {
	// Units need an absolute ExecStart; fall back to the bare name if lookup fails
	interpreter, err := shell.LookPath(cfg.Runtime.Command)
	if err != nil {
		interpreter = cfg.Runtime.Command
	}
	return &service.Manager{
		Runner:      shell.Exec{},
		Name:        cfg.Service.Name,
		UnitDir:     cfg.Service.UnitDir,
		EntryPoint:  cfg.Service.EntryPoint,
		Interpreter: interpreter,
		User:        cfg.Service.User,
	}
}

// skipUnsupported turns an unsupported-platform error into a warning.
func skipUnsupported(err error) error {
	if errors.Is(err, service.ErrUnsupported) {
		logger.Warn("[WARN] Skipping service registration: %v\n", err)
		return nil
	}
	return err
}

// init registers the service command tree under root.
func init() {
	serviceCmd.AddCommand(serviceEnableCmd)
	serviceCmd.AddCommand(serviceDisableCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
	rootCmd.AddCommand(serviceCmd)
}

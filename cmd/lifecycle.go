package cmd

import (
	"github.com/spf13/cobra"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/updater"
)

// force reinstalls even when the installed version is current.
var force bool

// installCmd installs into --dir, behaving like update if the app is already there.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the latest release into the installation directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// A missing runtime is only a warning; the files can still be laid down
		ensureRuntime(cmd.Context(), newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
		out, err := newOrchestrator().Install(cmd.Context(), installDir, force)
		return summarize(out, err)
	},
}

// updateCmd refuses directories without an installation.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update an existing installation to the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := newOrchestrator().Update(cmd.Context(), installDir, force)
		return summarize(out, err)
	},
}

// uninstallCmd wipes --dir after an explicit yes.
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Delete everything in the installation directory (asks for confirmation)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := newOrchestrator().Uninstall(installDir, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
		return err
	},
}

// summarize logs the terminal state of a cycle.
func summarize(out updater.Outcome, err error) error {
	if err != nil {
		return err
	}
	switch out.Result {
	case updater.Noop:
		logger.Info("[INFO] Already up to date (%s)\n", out.Plan.To)
	case updater.Committed:
		logger.Info("[INFO] Done: %s\n", out.Plan)
		if out.Warning != "" {
			logger.Warn("[WARN] Completed with warning: %s\n", out.Warning)
		}
	}
	return nil
}

// init wires flags and registers the lifecycle commands.
func init() {
	installCmd.Flags().BoolVarP(&force, "force", "f", false, "Reinstall even if already up to date")
	updateCmd.Flags().BoolVarP(&force, "force", "f", false, "Reinstall even if already up to date")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(uninstallCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/state"
)

// offline skips the release lookup in status.
var offline bool

// statusCmd prints the detected installation and the last journal entry.
// Unless --offline is set it also resolves the latest release.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed version, the latest release and the last operation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := detector().Detect(installDir)
		logger.Info("[INFO] %s: %s\n", cfg.AppName, st)

		// The journal is informational only; a missing file just prints nothing
		if last, ok := state.LoadState(state.Path(installDir)).Last(); ok {
			logger.Info("[INFO] Last operation: %s (%s) %s at stage %s on %s\n",
				last.Operation, last.Action, last.Result, last.Stage, last.At.Local().Format("2006-01-02 15:04"))
			if last.Error != "" {
				logger.Warn("[WARN] Last error: %s\n", last.Error)
			}
			if last.Warning != "" {
				logger.Warn("[WARN] Last warning: %s\n", last.Warning)
			}
		}

		if offline {
			return nil
		}
		_, p, err := newOrchestrator().Check(cmd.Context(), installDir)
		if err != nil {
			return err
		}
		logger.Info("[INFO] Latest release: %s (%s)\n", p.To, p)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&offline, "offline", false, "Do not query the release index")
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	goruntime "runtime"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zsmart-installer/internal/detect"
	"zsmart-installer/internal/logger"
)

// menuCommand is one entry of the interactive menu. The number a user
// types is only an index into the options shown for the current state.
type menuCommand int

const (
	menuInstall menuCommand = iota
	menuUpdate
	menuReinstall
	menuUninstall
	menuServiceEnable
	menuServiceDisable
	menuRuntime
	menuStatus
	menuQuit
)

var menuLabels = map[menuCommand]string{
	menuInstall:        "Install",
	menuUpdate:         "Update to the latest release",
	menuReinstall:      "Reinstall the latest release",
	menuUninstall:      "Uninstall",
	menuServiceEnable:  "Start at boot (systemd)",
	menuServiceDisable: "Do not start at boot",
	menuRuntime:        "Check Node.js runtime",
	menuStatus:         "Status",
	menuQuit:           "Quit",
}

func (c menuCommand) String() string {
	if l, ok := menuLabels[c]; ok {
		return l
	}
	return fmt.Sprintf("menuCommand(%d)", int(c))
}

// menuOptions lists the commands that make sense for st on goos.
func menuOptions(st detect.State, goos string) []menuCommand {
	if !st.Present {
		return []menuCommand{menuInstall, menuRuntime, menuQuit}
	}
	opts := []menuCommand{menuUpdate, menuReinstall, menuUninstall}
	if goos == "linux" {
		opts = append(opts, menuServiceEnable, menuServiceDisable)
	}
	return append(opts, menuRuntime, menuStatus, menuQuit)
}

// parseChoice maps a typed number onto opts.
func parseChoice(input string, opts []menuCommand) (menuCommand, error) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(opts) {
		return 0, fmt.Errorf("please enter a number between 1 and %d", len(opts))
	}
	return opts[n-1], nil
}

var header = color.New(color.FgHiCyan, color.Bold).SprintFunc()

// menuCmd runs the interactive menu on whatever stdin is, so a session can
// be scripted through a pipe.
var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Open the interactive menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd)
	},
}

// runMenu loops until the user quits or input ends. The installation is
// re-detected before every prompt. One prompter serves the menu and every
// question asked by the commands it dispatches, so buffered answers are
// never lost between them.
func runMenu(cmd *cobra.Command) error {
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	for {
		st := detector().Detect(installDir)
		opts := menuOptions(st, goruntime.GOOS)

		p.println()
		p.println(header(cfg.AppName + " installer"))
		p.println("  " + st.String())
		for i, o := range opts {
			p.println(fmt.Sprintf("  %d) %s", i+1, o))
		}
		logger.Prompt("Choose an option: ")

		line, err := p.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		choice, err := parseChoice(line, opts)
		if err != nil {
			logger.Warn("[WARN] %v\n", err)
			continue
		}
		if choice == menuQuit {
			return nil
		}
		if err := dispatch(cmd, p, choice); err != nil {
			report(err)
		}
	}
}

// dispatch runs one menu command.
func dispatch(cmd *cobra.Command, p *prompter, c menuCommand) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	o := newOrchestrator()

	switch c {
	case menuInstall:
		ensureRuntime(ctx, p)
		return summarize(o.Install(ctx, installDir, false))
	case menuUpdate:
		return summarize(o.Update(ctx, installDir, false))
	case menuReinstall:
		return summarize(o.Install(ctx, installDir, true))
	case menuUninstall:
		_, err := o.Uninstall(installDir, p)
		return err
	case menuServiceEnable:
		return skipUnsupported(newServiceManager().Enable(ctx, installDir))
	case menuServiceDisable:
		return skipUnsupported(newServiceManager().Disable(ctx))
	case menuRuntime:
		ensureRuntime(ctx, p)
		return nil
	case menuStatus:
		return statusCmd.RunE(cmd, nil)
	}
	return fmt.Errorf("unknown menu command %v", c)
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

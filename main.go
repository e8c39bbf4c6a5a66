package main

import (
	"os"

	"zsmart-installer/cmd" // CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which parses arguments and runs the chosen command.
//
// zsmart-installer manages a z-smart-server installation in a directory:
//   - Detects whether the application is installed by reading its package.json
//   - Resolves the newest stable GitHub release and its archive asset
//   - Installs or updates in place, keeping local files the release does not ship
//   - Runs the application's migration script between versions
//   - Uninstalls by wiping the directory after explicit confirmation
//   - Registers a systemd unit so the application starts at boot
//
// Exit status is 0 when a cycle committed or had nothing to do, 1 otherwise.
func main() {
	os.Exit(cmd.Execute())
}

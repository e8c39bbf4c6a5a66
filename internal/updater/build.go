package updater

import (
	"net/http"

	"zsmart-installer/internal/config"
	"zsmart-installer/internal/detect"
	"zsmart-installer/internal/installer"
	"zsmart-installer/internal/migrate"
	"zsmart-installer/internal/release"
	"zsmart-installer/internal/shell"
)

// New wires an Orchestrator from cfg with the real GitHub resolver,
// archive installer, dependency command and migration script.
func New(cfg config.Config, runner shell.Runner) *Orchestrator {
	client := &http.Client{Timeout: cfg.Timeout} // Bounds each release index request

	resolver := release.NewResolver(
		release.WithHTTPClient(client),
		release.WithBaseURL(cfg.APIBaseURL),
		release.WithArchiveExt(cfg.ArchiveExt),
		release.WithToken(cfg.GitHubToken),
	)

	// Downloads get their own client: the bound applies to the whole body transfer
	downloads := &http.Client{Timeout: 10 * cfg.Timeout}
	inst := installer.New(cfg.AppName,
		installer.WithHTTPClient(downloads),
		installer.WithDependencies(installer.CommandDependencies{Runner: runner, Command: cfg.DependencyCommand}),
	)

	// Without a script the orchestrator warns and skips migrations
	var migrator migrate.Runner
	if cfg.MigrationScript != "" {
		migrator = migrate.ScriptRunner{Runner: runner, Interpreter: cfg.Runtime.Command, Script: cfg.MigrationScript}
	}

	return &Orchestrator{
		Repo:          cfg.Repo,
		MigrationsDir: cfg.MigrationsDir,
		Detector:      detect.Detector{AppName: cfg.AppName, Manifest: cfg.Manifest},
		Resolver:      resolver,
		Installer:     inst,
		Migrator:      migrator,
	}
}

package config

import "time"

// Config is the top-level structure loaded from the installer's YAML file.
// Every field has a default, so an absent file yields a working setup.
type Config struct {
	AppName           string        `yaml:"app_name"`           // Canonical name expected in the manifest (e.g. z-smart-server)
	Repo              string        `yaml:"repo"`               // GitHub repository as owner/name
	ArchiveExt        string        `yaml:"archive_ext"`        // Release asset suffix the installer expects
	APIBaseURL        string        `yaml:"api_base_url"`       // GitHub API root, overridable for mirrors and tests
	GitHubToken       string        `yaml:"github_token"`       // Optional token; falls back to $GITHUB_TOKEN
	Timeout           time.Duration `yaml:"timeout"`            // Upper bound for each network request
	Manifest          string        `yaml:"manifest"`           // Manifest filename at the install root
	DependencyCommand []string      `yaml:"dependency_command"` // Run inside the install dir after extraction
	MigrationScript   string        `yaml:"migration_script"`   // Relative to the install dir
	MigrationsDir     string        `yaml:"migrations_dir"`     // Relative to the install dir
	Runtime           Runtime       `yaml:"runtime"`
	Service           Service       `yaml:"service"`
}

// Runtime describes the language runtime the application needs.
type Runtime struct {
	Command        string   `yaml:"command"`         // Binary looked up on PATH (e.g. node)
	InstallCommand []string `yaml:"install_command"` // Executed when the user accepts installing the runtime
}

// Service describes the systemd unit registered for start-at-boot.
type Service struct {
	Name       string `yaml:"name"`        // Unit name without the .service suffix
	EntryPoint string `yaml:"entry_point"` // Script started by the unit, relative to the install dir
	UnitDir    string `yaml:"unit_dir"`    // Directory the unit file is written to
	User       string `yaml:"user"`        // Optional User= for the unit
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "zsmart-installer.yaml"

// Default returns the built-in configuration for z-smart-server.
func Default() Config {
	return Config{
		AppName:           "z-smart-server",
		Repo:              "z-smart/z-smart-server",
		ArchiveExt:        ".zip",
		APIBaseURL:        "https://api.github.com",
		Timeout:           60 * time.Second,
		Manifest:          "package.json",
		DependencyCommand: []string{"npm", "install", "--production"},
		MigrationScript:   "migrations/migrate.js",
		MigrationsDir:     "migrations",
		Runtime: Runtime{
			Command:        "node",
			InstallCommand: []string{"sh", "-c", "curl -fsSL https://deb.nodesource.com/setup_lts.x | bash - && apt-get install -y nodejs"},
		},
		Service: Service{
			Name:       "z-smart-server",
			EntryPoint: "index.js",
			UnitDir:    "/etc/systemd/system",
		},
	}
}

// LoadConfig reads the YAML file at path and layers it over Default.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No config file; keep the defaults
	case err != nil:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}
	}

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	if !strings.HasPrefix(cfg.ArchiveExt, ".") {
		cfg.ArchiveExt = "." + cfg.ArchiveExt
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.AppName == "":
		return errors.New("config: app_name must not be empty")
	case strings.Count(c.Repo, "/") != 1 || strings.HasPrefix(c.Repo, "/") || strings.HasSuffix(c.Repo, "/"):
		return fmt.Errorf("config: repo %q must be in owner/name form", c.Repo)
	case c.Manifest == "":
		return errors.New("config: manifest must not be empty")
	case c.Timeout <= 0:
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

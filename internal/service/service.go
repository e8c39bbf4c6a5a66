// Package service registers the installed application as a systemd unit
// so it starts at boot.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/shell"
)

// ErrUnsupported is returned on systems without systemd.
var ErrUnsupported = errors.New("service registration is only supported on Linux with systemd")

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{.Name}}
After=network.target

[Service]
Type=simple
WorkingDirectory={{.Dir}}
ExecStart={{.Interpreter}} {{.EntryPoint}}
Restart=on-failure
Environment=NODE_ENV=production
{{- if .User}}
User={{.User}}
{{- end}}

[Install]
WantedBy=multi-user.target
`))

// Manager writes, enables and removes the unit.
type Manager struct {
	Runner      shell.Runner
	Name        string // Unit name without suffix
	UnitDir     string // Usually /etc/systemd/system
	EntryPoint  string // Relative to the install directory
	Interpreter string // Absolute path of the runtime binary
	User        string

	goos string // Overrides runtime.GOOS in tests
}

// UnitPath is where the unit file lives.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.UnitDir, m.Name+".service")
}

// Render returns the unit file for an installation in dir.
func (m *Manager) Render(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = unitTemplate.Execute(&buf, struct {
		Name, Dir, Interpreter, EntryPoint, User string
	}{
		Name:        m.Name,
		Dir:         abs,
		Interpreter: m.Interpreter,
		EntryPoint:  filepath.Join(abs, m.EntryPoint),
		User:        m.User,
	})
	return buf.String(), err
}

// Enable writes the unit for dir, then enables and starts it.
func (m *Manager) Enable(ctx context.Context, dir string) error {
	if err := m.supported(); err != nil {
		return err
	}
	unit, err := m.Render(dir)
	if err != nil {
		return fmt.Errorf("rendering unit: %w", err)
	}

	logger.Info("[INFO] Writing %s\n", m.UnitPath())
	if err := os.WriteFile(m.UnitPath(), []byte(unit), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", m.UnitPath(), err)
	}
	if err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	return m.systemctl(ctx, "enable", "--now", m.Name)
}

// Disable stops and disables the unit and deletes its file.
func (m *Manager) Disable(ctx context.Context) error {
	if err := m.supported(); err != nil {
		return err
	}
	if err := m.systemctl(ctx, "disable", "--now", m.Name); err != nil {
		logger.Warn("[WARN] %v\n", err)
	}

	logger.Info("[INFO] Removing %s\n", m.UnitPath())
	if err := os.Remove(m.UnitPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", m.UnitPath(), err)
	}
	return m.systemctl(ctx, "daemon-reload")
}

// Enabled reports whether the unit is enabled at boot.
func (m *Manager) Enabled(ctx context.Context) (bool, error) {
	if err := m.supported(); err != nil {
		return false, err
	}
	out, err := m.runner().Run(ctx, "", "systemctl", "is-enabled", m.Name)
	state := strings.TrimSpace(string(out))
	if err != nil && state == "" {
		return false, err
	}
	// is-enabled exits non-zero for "disabled" and "not-found"
	return state == "enabled", nil
}

func (m *Manager) supported() error {
	goos := m.goos
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "linux" {
		return fmt.Errorf("%w (running on %s)", ErrUnsupported, goos)
	}
	if _, ok := m.runner().(shell.Exec); ok {
		if _, err := shell.LookPath("systemctl"); err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
	}
	return nil
}

func (m *Manager) systemctl(ctx context.Context, args ...string) error {
	output, err := m.runner().Run(ctx, "", "systemctl", args...)
	if err != nil {
		return fmt.Errorf("%w\nOutput: %s", err, output)
	}
	return nil
}

func (m *Manager) runner() shell.Runner {
	if m.Runner == nil {
		return shell.Exec{}
	}
	return m.Runner
}

// Package installer downloads a release archive and lays its files over an
// install directory, then installs the application's dependencies.
package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"zsmart-installer/internal/logger"
)

var (
	// ErrDownload is returned when the asset cannot be fetched.
	ErrDownload = errors.New("download failed")
	// ErrExtract is returned for corrupt or unsupported archives.
	ErrExtract = errors.New("extraction failed")
	// ErrIO covers filesystem failures around the archive (permissions, space).
	ErrIO = errors.New("filesystem error")
	// ErrDependencyInstall is returned when the dependency step fails.
	ErrDependencyInstall = errors.New("dependency installation failed")
)

// Result describes a completed file transition.
type Result struct {
	Entries   int  // Archive entries written
	Flattened bool // Whether a wrapping directory was folded into the target
}

// Installer places release archives into an install directory.
type Installer struct {
	httpClient *http.Client
	appName    string
	deps       DependencyInstaller
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(in *Installer) { in.httpClient = c }
}

// WithDependencies sets the dependency step run after extraction.
func WithDependencies(d DependencyInstaller) Option {
	return func(in *Installer) { in.deps = d }
}

// New builds an Installer for the application named appName. Archives that
// wrap their content in a directory of that name are flattened.
func New(appName string, opts ...Option) *Installer {
	in := &Installer{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		appName:    appName,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Install downloads assetURL into targetDir, extracts it in place and runs
// the dependency step. Existing files with the same relative path are
// overwritten; files the release does not ship are left untouched.
// On failure the directory keeps whatever the failed step produced.
func (in *Installer) Install(ctx context.Context, assetURL, targetDir string) (Result, error) {
	ext := archiveExt(assetName(assetURL))
	if ext == "" {
		return Result{}, fmt.Errorf("%w: unsupported archive format: %s", ErrExtract, assetName(assetURL))
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	tmp, err := os.CreateTemp(targetDir, ".zsmart-download-*"+ext)
	if err != nil {
		return Result{}, fmt.Errorf("%w: creating temporary archive: %v", ErrIO, err)
	}
	archive := tmp.Name()
	removeArchive := func() {
		if err := os.Remove(archive); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("[WARN] Failed to remove temporary archive %s: %v\n", archive, err)
		}
	}
	defer removeArchive()

	logger.Info("[INFO] Downloading %s\n", assetName(assetURL))
	err = in.downloadFile(ctx, assetURL, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %v", ErrIO, cerr)
	}
	if err != nil {
		return Result{}, err
	}

	logger.Info("[INFO] Extracting into %s\n", targetDir)
	ex, err := extractArchive(archive, targetDir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExtract, err)
	}
	logger.Debug("[DEBUG] Archive top-level entries: %v\n", ex.names())
	res := Result{Entries: ex.entries}

	flattenErr := in.flatten(ex, targetDir)
	removeArchive()
	if flattenErr != nil {
		return res, fmt.Errorf("%w: flattening %s: %v", ErrIO, in.appName, flattenErr)
	}
	res.Flattened = in.wrapped(ex)

	if in.deps != nil {
		if err := in.deps.InstallDependencies(ctx, targetDir); err != nil {
			return res, fmt.Errorf("%w: %w", ErrDependencyInstall, err)
		}
	}
	return res, nil
}

// wrapped reports whether the archive nested everything in a directory named after the app.
func (in *Installer) wrapped(ex *extraction) bool {
	name, ok := ex.singleWrapper()
	return ok && name == in.appName
}

// flatten moves the content of a wrapping app directory up one level.
func (in *Installer) flatten(ex *extraction, targetDir string) error {
	if !in.wrapped(ex) {
		return nil
	}
	wrapper := filepath.Join(targetDir, in.appName)
	logger.Debug("[DEBUG] Flattening %s into %s\n", wrapper, targetDir)
	return mergeInto(wrapper, targetDir)
}

// assetName returns the file name part of a download URL.
func assetName(assetURL string) string {
	if u, err := url.Parse(assetURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(assetURL)
}

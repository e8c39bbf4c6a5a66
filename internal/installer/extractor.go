package installer

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/xi2/xz"          // For reading .xz compressed data

	"zsmart-installer/internal/logger"
)

// archiveExts lists the supported suffixes, longest first so ".tar.gz" wins over ".gz".
var archiveExts = []string{".tar.bz2", ".tar.gz", ".tar.xz", ".tgz", ".tar", ".zip", ".7z"}

// archiveExt returns the supported archive suffix of name, or "".
func archiveExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range archiveExts {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return ""
}

// extraction records which top-level names an archive produced.
type extraction struct {
	topLevel map[string]bool // First path component of every entry
	dirs     map[string]bool // Top-level names that are directories
	entries  int
}

func newExtraction() *extraction {
	return &extraction{topLevel: map[string]bool{}, dirs: map[string]bool{}}
}

// note records an archive entry name (always slash separated).
func (e *extraction) note(name string, isDir bool) {
	clean := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(filepath.FromSlash(name))), "./")
	if clean == "." || clean == "" {
		return
	}
	first, rest, nested := strings.Cut(clean, "/")
	e.topLevel[first] = true
	if (nested && rest != "") || isDir {
		e.dirs[first] = true
	}
	e.entries++
}

// names returns the sorted top-level names.
func (e *extraction) names() []string {
	out := make([]string, 0, len(e.topLevel))
	for n := range e.topLevel {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// singleWrapper returns the only top-level name when it is a directory.
func (e *extraction) singleWrapper() (string, bool) {
	if len(e.topLevel) != 1 {
		return "", false
	}
	for n := range e.topLevel {
		return n, e.dirs[n]
	}
	return "", false
}

// extractArchive routes to the right extractor based on the archive suffix.
// Files land directly under dest, overwriting same-named files and leaving
// everything else in dest alone.
func extractArchive(src, dest string) (*extraction, error) {
	switch ext := archiveExt(src); ext {
	case ".zip":
		logger.Debug("[DEBUG] compression type is zip\n")
		return extractZip(src, dest)
	case ".7z":
		logger.Debug("[DEBUG] compression type is 7z\n")
		return extract7z(src, dest)
	case ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz":
		logger.Debug("[DEBUG] compression type is %s\n", ext)
		return extractTarArchive(src, dest, ext)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Base(src))
	}
}

// sanitizePath joins name onto dest and rejects entries escaping dest (zip-slip).
func sanitizePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes the target directory", name)
	}
	return target, nil
}

// writeFile copies r to path with the given mode, replacing any existing file.
func writeFile(path string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if mode.Perm() == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// extractTarArchive handles tar and compressed tar variants.
func extractTarArchive(src, dest, ext string) (*extraction, error) {
	logger.Debug("[DEBUG] uncompressing %s to %s\n", src, dest)
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	switch ext {
	case ".tar.gz", ".tgz":
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		reader = gr
	case ".tar.bz2":
		reader = bzip2.NewReader(f)
	case ".tar.xz":
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return nil, err
		}
		reader = xzr
	}

	res := newExtraction()
	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		target, err := sanitizePath(dest, hdr.Name)
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			res.note(hdr.Name, true)
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			res.note(hdr.Name, false)
			if err := writeFile(target, tr, fs.FileMode(hdr.Mode)); err != nil {
				return nil, err
			}
		default:
			logger.Debug("[DEBUG] Skipping tar entry %s of type %c\n", hdr.Name, hdr.Typeflag)
		}
	}
	return res, nil
}

// extractZip extracts a .zip archive.
func extractZip(src, dest string) (*extraction, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	res := newExtraction()
	for _, f := range r.File {
		target, err := sanitizePath(dest, f.Name)
		if err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			res.note(f.Name, true)
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}

		res.note(f.Name, false)
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// extract7z handles .7z extraction using the sevenzip library.
func extract7z(src, dest string) (*extraction, error) {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	res := newExtraction()
	for _, f := range r.File {
		target, err := sanitizePath(dest, f.Name)
		if err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			res.note(f.Name, true)
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}

		res.note(f.Name, false)
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// mergeInto moves every entry of src into dst, recursing into directories
// that exist on both sides, then removes the emptied src.
func mergeInto(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())

		existing, err := os.Lstat(to)
		switch {
		case err == nil && existing.IsDir() && e.IsDir():
			if err := mergeInto(from, to); err != nil {
				return err
			}
			continue
		case err == nil:
			if err := os.RemoveAll(to); err != nil {
				return err
			}
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
		if err := os.Rename(from, to); err != nil {
			return err
		}
	}
	return os.Remove(src)
}
